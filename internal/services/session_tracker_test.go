package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/studiostory/studiostory-backend/internal/data/repos"
	"github.com/studiostory/studiostory-backend/internal/data/repos/testutil"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
)

func newTrackerFixture(t *testing.T) (SessionTracker, repos.GenerationSessionRepo, dbctx.Context) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)

	sessionRepo := repos.NewGenerationSessionRepo(db, logg)
	return NewSessionTracker(logg, sessionRepo), sessionRepo, dbc
}

func TestSessionLifecycle(t *testing.T) {
	tracker, sessionRepo, dbc := newTrackerFixture(t)

	if tracker.Active() != nil {
		t.Fatalf("expected no active session initially")
	}

	started := tracker.Start(StartSessionInput{
		Dimensions: []types.DimensionSnapshot{{Type: "style", Reference: "neon noir", Weight: 70}},
		OutputMode: types.OutputModeImage,
	})
	if started == nil {
		t.Fatalf("Start returned nil")
	}

	for i := 0; i < 3; i++ {
		tracker.RecordIteration([]string{"prompt-0", "prompt-1"})
	}
	active := tracker.Active()
	if active.IterationCount != 3 {
		t.Fatalf("iteration count = %d, want 3", active.IterationCount)
	}
	if len(active.PromptIDs) != 6 {
		t.Fatalf("prompt ids = %d, want 6", len(active.PromptIDs))
	}

	session, err := tracker.MarkSatisfied(dbc, "nailed it")
	if err != nil {
		t.Fatalf("MarkSatisfied: %v", err)
	}
	if !session.Successful {
		t.Fatalf("terminated session should be successful")
	}
	if session.SatisfiedAt == nil || session.TimeToSatisfactionMS == nil {
		t.Fatalf("satisfied session missing satisfaction stamps: %+v", session)
	}
	if *session.TimeToSatisfactionMS < 0 {
		t.Fatalf("time to satisfaction must be non-negative")
	}
	if tracker.Active() != nil {
		t.Fatalf("slot should be clear after termination")
	}

	stored, err := sessionRepo.ListSuccessful(dbc, types.DefaultProfileID, 10)
	if err != nil {
		t.Fatalf("ListSuccessful: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored sessions = %d, want 1", len(stored))
	}
	var snaps []types.DimensionSnapshot
	if err := json.Unmarshal(stored[0].DimensionsSnapshot, &snaps); err != nil || len(snaps) != 1 {
		t.Fatalf("dimensions snapshot not persisted: %v %v", err, snaps)
	}
}

func TestSessionLastStartWins(t *testing.T) {
	tracker, _, _ := newTrackerFixture(t)

	first := tracker.Start(StartSessionInput{OutputMode: types.OutputModeImage})
	tracker.RecordIteration([]string{"prompt-0"})
	second := tracker.Start(StartSessionInput{OutputMode: types.OutputModeVideo})

	if first.ID == second.ID {
		t.Fatalf("restart must mint a new session id")
	}
	active := tracker.Active()
	if active.ID != second.ID {
		t.Fatalf("active session should be the most recent start")
	}
	if active.IterationCount != 0 {
		t.Fatalf("overwritten session state must not leak into the new one")
	}
}

func TestTerminateWithoutActiveSession(t *testing.T) {
	tracker, _, dbc := newTrackerFixture(t)

	session, err := tracker.MarkSatisfied(dbc, "")
	if err != nil {
		t.Fatalf("MarkSatisfied on idle tracker: %v", err)
	}
	if session != nil {
		t.Fatalf("idle termination should return nil session, got %+v", session)
	}
}

func TestEndUnsuccessfulSkipsSatisfactionStamps(t *testing.T) {
	tracker, _, dbc := newTrackerFixture(t)

	tracker.Start(StartSessionInput{})
	session, err := tracker.EndUnsuccessful(dbc, "gave up")
	if err != nil {
		t.Fatalf("EndUnsuccessful: %v", err)
	}
	if session.Successful {
		t.Fatalf("unsuccessful termination marked successful")
	}
	if session.SatisfiedAt != nil || session.TimeToSatisfactionMS != nil {
		t.Fatalf("unsuccessful session must not carry satisfaction stamps")
	}
	if session.FinalFeedback != "gave up" {
		t.Fatalf("final feedback = %q", session.FinalFeedback)
	}
}
