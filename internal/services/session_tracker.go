package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studiostory/studiostory-backend/internal/data/repos"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

// ActiveSession is the in-memory state of the one in-flight generation
// session. It is never persisted; only terminated sessions reach the store,
// so a session abandoned without an explicit end call does not count toward
// learning.
type ActiveSession struct {
	ID             uuid.UUID                 `json:"id"`
	ProfileID      string                    `json:"profile_id"`
	ProjectID      *uuid.UUID                `json:"project_id,omitempty"`
	StartedAt      time.Time                 `json:"started_at"`
	IterationCount int                       `json:"iteration_count"`
	Dimensions     []types.DimensionSnapshot `json:"dimensions"`
	BaseImage      string                    `json:"base_image,omitempty"`
	OutputMode     string                    `json:"output_mode"`
	PromptIDs      []string                  `json:"prompt_ids"`
}

type StartSessionInput struct {
	ProjectID  *uuid.UUID
	Dimensions []types.DimensionSnapshot
	BaseImage  string
	OutputMode string
}

// SessionTracker holds the single active-session slot. It replaces the
// original's process-wide mutable variable with an owned, injectable manager
// so the one-active-session invariant survives while staying testable.
type SessionTracker interface {
	// Start opens a new session. If a session is already active it is
	// overwritten, last start wins. That is intentional: a stuck session must
	// never block a new attempt, and the overwritten session is simply lost.
	Start(input StartSessionInput) *ActiveSession
	// RecordIteration is a no-op when no session is active.
	RecordIteration(promptIDs []string)
	// MarkSatisfied terminates the active session successfully, stamps
	// time-to-satisfaction, persists it and clears the slot. Returns nil when
	// no session was active.
	MarkSatisfied(dbc dbctx.Context, finalFeedback string) (*types.GenerationSession, error)
	// EndUnsuccessful terminates the active session without success stamps.
	EndUnsuccessful(dbc dbctx.Context, finalFeedback string) (*types.GenerationSession, error)
	// Active returns a copy of the in-flight session, or nil.
	Active() *ActiveSession
}

type sessionTracker struct {
	log      *logger.Logger
	sessions repos.GenerationSessionRepo

	mu     sync.Mutex
	active *ActiveSession
}

func NewSessionTracker(baseLog *logger.Logger, sessions repos.GenerationSessionRepo) SessionTracker {
	return &sessionTracker{
		log:      baseLog.With("service", "SessionTracker"),
		sessions: sessions,
	}
}

func (t *sessionTracker) Start(input StartSessionInput) *ActiveSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		t.log.Warn("Overwriting active generation session", "session_id", t.active.ID)
	}

	mode := input.OutputMode
	if mode == "" {
		mode = types.OutputModeImage
	}
	t.active = &ActiveSession{
		ID:         uuid.New(),
		ProfileID:  types.DefaultProfileID,
		ProjectID:  input.ProjectID,
		StartedAt:  time.Now().UTC(),
		Dimensions: append([]types.DimensionSnapshot(nil), input.Dimensions...),
		BaseImage:  input.BaseImage,
		OutputMode: mode,
		PromptIDs:  []string{},
	}
	return t.copyActiveLocked()
}

func (t *sessionTracker) RecordIteration(promptIDs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return
	}
	t.active.IterationCount++
	t.active.PromptIDs = append(t.active.PromptIDs, promptIDs...)
}

func (t *sessionTracker) MarkSatisfied(dbc dbctx.Context, finalFeedback string) (*types.GenerationSession, error) {
	return t.terminate(dbc, finalFeedback, true)
}

func (t *sessionTracker) EndUnsuccessful(dbc dbctx.Context, finalFeedback string) (*types.GenerationSession, error) {
	return t.terminate(dbc, finalFeedback, false)
}

func (t *sessionTracker) terminate(dbc dbctx.Context, finalFeedback string, satisfied bool) (*types.GenerationSession, error) {
	t.mu.Lock()
	active := t.active
	t.active = nil
	t.mu.Unlock()

	if active == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	session := &types.GenerationSession{
		ID:                active.ID,
		ProfileID:         active.ProfileID,
		ProjectID:         active.ProjectID,
		StartedAt:         active.StartedAt,
		IterationCount:    active.IterationCount,
		BaseImageSnapshot: active.BaseImage,
		OutputMode:        active.OutputMode,
		Successful:        satisfied,
		FinalFeedback:     finalFeedback,
		CreatedAt:         now,
	}
	if satisfied {
		session.SatisfiedAt = &now
		ms := now.Sub(active.StartedAt).Milliseconds()
		if ms < 0 {
			ms = 0
		}
		session.TimeToSatisfactionMS = &ms
	}
	if raw, err := json.Marshal(active.Dimensions); err == nil {
		session.DimensionsSnapshot = datatypes.JSON(raw)
	}
	if raw, err := json.Marshal(active.PromptIDs); err == nil {
		session.PromptIDs = datatypes.JSON(raw)
	}

	if err := t.sessions.Create(dbc, session); err != nil {
		t.log.Warn("Failed to persist terminated session", "session_id", session.ID, "error", err)
		return nil, err
	}
	return session, nil
}

func (t *sessionTracker) Active() *ActiveSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyActiveLocked()
}

func (t *sessionTracker) copyActiveLocked() *ActiveSession {
	if t.active == nil {
		return nil
	}
	cp := *t.active
	cp.Dimensions = append([]types.DimensionSnapshot(nil), t.active.Dimensions...)
	cp.PromptIDs = append([]string(nil), t.active.PromptIDs...)
	return &cp
}
