package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/studiostory/studiostory-backend/internal/clients/imagegen"
	"github.com/studiostory/studiostory-backend/internal/data/repos"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
	"github.com/studiostory/studiostory-backend/internal/realtime/bus"
)

const (
	maxPollAttempts    = 60
	pollInterval       = 2 * time.Second
	maxConcurrentPolls = 4
)

type StartGenerationInput struct {
	ProjectID  *uuid.UUID
	Prompts    []types.GeneratedPrompt
	BaseImage  string
	OutputMode string
}

// GenerationService drives the request-then-poll lifecycle against the image
// provider. Each started prompt gets a pending record immediately; polling
// runs on background goroutines that survive the originating request, capped
// at maxPollAttempts before the record goes terminal failed.
type GenerationService interface {
	StartGeneration(dbc dbctx.Context, input StartGenerationInput) ([]*types.GeneratedImage, error)
	CheckPrompt(dbc dbctx.Context, promptID string) (*types.GeneratedImage, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.GeneratedImage, error)
	// Delete stops any in-flight polling for the record before removing it.
	Delete(dbc dbctx.Context, id uuid.UUID) error
	// Shutdown cancels all in-flight polling and waits for workers to exit.
	Shutdown()
}

type generationService struct {
	log     *logger.Logger
	images  repos.GeneratedImageRepo
	client  imagegen.Client
	tracker SessionTracker
	panel   PanelService
	bus     bus.Bus

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

func NewGenerationService(
	baseLog *logger.Logger,
	images repos.GeneratedImageRepo,
	client imagegen.Client,
	tracker SessionTracker,
	panel PanelService,
	eventBus bus.Bus,
) GenerationService {
	return &generationService{
		log:     baseLog.With("service", "GenerationService"),
		images:  images,
		client:  client,
		tracker: tracker,
		panel:   panel,
		bus:     eventBus,
		cancels: map[uuid.UUID]context.CancelFunc{},
	}
}

func (s *generationService) StartGeneration(dbc dbctx.Context, input StartGenerationInput) ([]*types.GeneratedImage, error) {
	if len(input.Prompts) == 0 {
		return []*types.GeneratedImage{}, nil
	}
	mode := input.OutputMode
	if mode == "" {
		mode = types.OutputModeImage
	}
	now := time.Now().UTC()

	records := make([]*types.GeneratedImage, 0, len(input.Prompts))
	promptIDs := make([]string, 0, len(input.Prompts))
	for _, prompt := range input.Prompts {
		rec := &types.GeneratedImage{
			ID:         uuid.New(),
			ProjectID:  input.ProjectID,
			PromptID:   prompt.ID,
			PromptText: prompt.Text,
			Status:     types.GenerationStatusPending,
			OutputMode: mode,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.images.Create(dbc, rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
		promptIDs = append(promptIDs, prompt.ID)
	}
	s.tracker.RecordIteration(promptIDs)

	// Fan out bounded so a large batch cannot flood the provider. Workers run
	// against the base DB, never the request transaction, since they outlive
	// the request.
	grp := &errgroup.Group{}
	grp.SetLimit(maxConcurrentPolls)
	for i := range records {
		rec := records[i]
		prompt := input.Prompts[i]
		pollCtx, cancel := context.WithCancel(context.Background())
		s.mu.Lock()
		s.cancels[rec.ID] = cancel
		s.mu.Unlock()

		s.wg.Add(1)
		grp.Go(func() error {
			defer s.wg.Done()
			defer s.releaseCancel(rec.ID)
			s.runGeneration(pollCtx, rec, prompt, input.BaseImage, mode)
			return nil
		})
	}
	go func() { _ = grp.Wait() }()

	return records, nil
}

func (s *generationService) runGeneration(ctx context.Context, rec *types.GeneratedImage, prompt types.GeneratedPrompt, baseImage, mode string) {
	dbc := dbctx.Background()

	started, err := s.client.Start(ctx, imagegen.StartRequest{
		Prompt:     prompt.Text,
		BaseImage:  baseImage,
		OutputMode: mode,
	})
	if err != nil {
		s.failRecord(dbc, rec, err.Error())
		return
	}
	if err := s.images.UpdateStatus(dbc, rec.ID, map[string]any{
		"generation_id": started.GenerationID,
	}); err != nil {
		s.log.Warn("Failed to store generation id", "record_id", rec.ID, "error", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			s.log.Debug("Polling cancelled", "record_id", rec.ID)
			return
		case <-ticker.C:
		}

		check, err := s.client.Check(ctx, started.GenerationID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("Poll attempt failed", "record_id", rec.ID, "attempt", attempt, "error", err)
			continue
		}
		_ = s.images.UpdateStatus(dbc, rec.ID, map[string]any{"attempts": attempt})

		switch check.Status {
		case imagegen.StatusComplete:
			s.completeRecord(dbc, rec, prompt, check)
			return
		case imagegen.StatusFailed:
			msg := check.Error
			if msg == "" {
				msg = "generation failed"
			}
			s.failRecord(dbc, rec, msg)
			return
		default:
			s.publish(bus.EventGenerationProgress, rec, map[string]any{
				"prompt_id": rec.PromptID,
				"attempt":   attempt,
			})
		}
	}

	s.failRecord(dbc, rec, "generation timed out")
}

func (s *generationService) completeRecord(dbc dbctx.Context, rec *types.GeneratedImage, prompt types.GeneratedPrompt, check *imagegen.CheckResponse) {
	updates := map[string]any{
		"status": types.GenerationStatusComplete,
		"url":    check.URL,
	}
	if check.VideoURL != "" {
		updates["video_url"] = check.VideoURL
	}
	if err := s.images.UpdateStatus(dbc, rec.ID, updates); err != nil {
		s.log.Warn("Failed to mark generation complete", "record_id", rec.ID, "error", err)
		return
	}

	if s.panel != nil && check.URL != "" {
		saved, err := s.panel.SaveImageToPanel(dbc, PanelImageInput{
			URL:      check.URL,
			Prompt:   prompt.Text,
			PromptID: rec.PromptID,
			VideoURL: check.VideoURL,
		})
		if err != nil {
			s.log.Warn("Failed to place completed image", "record_id", rec.ID, "error", err)
		} else if !saved {
			s.log.Debug("Completed image not placed", "record_id", rec.ID)
		}
	}

	s.publish(bus.EventGenerationComplete, rec, map[string]any{
		"prompt_id": rec.PromptID,
		"url":       check.URL,
		"video_url": check.VideoURL,
	})
}

func (s *generationService) failRecord(dbc dbctx.Context, rec *types.GeneratedImage, msg string) {
	if err := s.images.UpdateStatus(dbc, rec.ID, map[string]any{
		"status":        types.GenerationStatusFailed,
		"error_message": msg,
	}); err != nil {
		s.log.Warn("Failed to mark generation failed", "record_id", rec.ID, "error", err)
	}
	s.publish(bus.EventGenerationFailed, rec, map[string]any{
		"prompt_id": rec.PromptID,
		"error":     msg,
	})
}

func (s *generationService) publish(eventType string, rec *types.GeneratedImage, payload map[string]any) {
	if s.bus == nil {
		return
	}
	projectID := ""
	if rec.ProjectID != nil {
		projectID = rec.ProjectID.String()
	}
	if err := s.bus.Publish(context.Background(), bus.NewEvent(eventType, projectID, payload)); err != nil {
		s.log.Warn("Failed to publish generation event", "event", eventType, "error", err)
	}
}

func (s *generationService) releaseCancel(id uuid.UUID) {
	s.mu.Lock()
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
	s.mu.Unlock()
}

func (s *generationService) CheckPrompt(dbc dbctx.Context, promptID string) (*types.GeneratedImage, error) {
	return s.images.LatestByPromptID(dbc, promptID)
}

func (s *generationService) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.GeneratedImage, error) {
	return s.images.ListByProject(dbc, projectID)
}

func (s *generationService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	s.releaseCancel(id)
	return s.images.Delete(dbc, id)
}

func (s *generationService) Shutdown() {
	s.mu.Lock()
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
