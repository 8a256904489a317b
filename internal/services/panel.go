package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studiostory/studiostory-backend/internal/data/kvstore"
	"github.com/studiostory/studiostory-backend/internal/data/repos"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
	"github.com/studiostory/studiostory-backend/internal/realtime/bus"
)

func panelKey(projectID uuid.UUID) string { return "panel:" + projectID.String() }

// PanelImageInput is a candidate image for a display slot.
type PanelImageInput struct {
	URL      string
	Prompt   string
	PromptID string
	VideoURL string
}

// PanelService owns the two fixed slot columns of the active project's
// display panel. Slot claims are serialized through one mutex; the durable
// write happens outside the lock and the claim is rolled back if it fails, so
// memory never ends up ahead of storage for long.
//
// Two tracking sets guard against double placement: seen prompt IDs (prompt
// IDs are deterministic per batch slot, so a marker can be stale from an
// earlier batch and is recovered when the URL is genuinely absent) and
// pending URLs (claimed but not yet durably written).
type PanelService interface {
	// SetActiveProject switches panels, loading the target project's state.
	SetActiveProject(dbc dbctx.Context, projectID uuid.UUID) (*types.PanelState, error)
	// SaveImageToPanel places the image in the first free slot, left column
	// first. Returns false without error when the panel is uninitialized, the
	// URL is already placed or in flight, or both columns are full.
	SaveImageToPanel(dbc dbctx.Context, input PanelImageInput) (bool, error)
	// SaveGeneratedImage resolves the latest generated image for the prompt
	// and places it. The URL comes from the stored record, never the caller;
	// a missing, unfinished or URL-less record is rejected with false.
	SaveGeneratedImage(dbc dbctx.Context, promptID string) (bool, error)
	// ResetSaveTracking clears the seen and pending sets, typically at the
	// start of a new generation batch.
	ResetSaveTracking()
	// HydratePanelImages stages rebuilt state so the next load for the
	// project returns it instead of stale durable data.
	HydratePanelImages(projectID uuid.UUID, images []*types.SavedPanelImage)
	GetPanelState(dbc dbctx.Context) (*types.PanelState, error)
	ClearPanel(dbc dbctx.Context) error
}

type panelService struct {
	log    *logger.Logger
	kv     kvstore.Store
	images repos.GeneratedImageRepo
	bus    bus.Bus

	mu        sync.Mutex
	projectID uuid.UUID
	state     *types.PanelState
	seen      map[string]bool
	pending   map[string]bool
}

func NewPanelService(baseLog *logger.Logger, kv kvstore.Store, images repos.GeneratedImageRepo, eventBus bus.Bus) PanelService {
	return &panelService{
		log:     baseLog.With("service", "PanelService"),
		kv:      kv,
		images:  images,
		bus:     eventBus,
		seen:    map[string]bool{},
		pending: map[string]bool{},
	}
}

func (s *panelService) SaveGeneratedImage(dbc dbctx.Context, promptID string) (bool, error) {
	if promptID == "" {
		return false, nil
	}
	img, err := s.images.LatestByPromptID(dbc, promptID)
	if err != nil {
		return false, err
	}
	if img == nil || img.Status != types.GenerationStatusComplete || img.URL == "" {
		s.log.Warn("Rejecting panel save for unfinished prompt", "prompt_id", promptID)
		return false, nil
	}
	return s.SaveImageToPanel(dbc, PanelImageInput{
		URL:      img.URL,
		Prompt:   img.PromptText,
		PromptID: promptID,
		VideoURL: img.VideoURL,
	})
}

func (s *panelService) SetActiveProject(dbc dbctx.Context, projectID uuid.UUID) (*types.PanelState, error) {
	if projectID == uuid.Nil {
		return nil, nil
	}
	state, err := s.loadState(dbc, projectID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.projectID = projectID
	s.state = state
	s.seen = map[string]bool{}
	s.pending = map[string]bool{}
	s.mu.Unlock()

	return copyPanelState(state), nil
}

func (s *panelService) loadState(dbc dbctx.Context, projectID uuid.UUID) (*types.PanelState, error) {
	raw, err := s.kv.Load(dbc, panelKey(projectID))
	if err != nil {
		return nil, err
	}
	state := types.NewPanelState()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, state); err != nil {
			s.log.Warn("Discarding unreadable panel state", "project_id", projectID, "error", err)
			state = types.NewPanelState()
		}
	}
	state.Normalize()
	return state, nil
}

func (s *panelService) SaveImageToPanel(dbc dbctx.Context, input PanelImageInput) (bool, error) {
	if input.URL == "" {
		return false, nil
	}

	s.mu.Lock()
	if s.projectID == uuid.Nil || s.state == nil {
		s.mu.Unlock()
		s.log.Warn("Ignoring panel save before project activation", "prompt_id", input.PromptID)
		return false, nil
	}

	// URL dedup across both columns and in-flight claims.
	if s.pending[input.URL] || s.urlPlacedLocked(input.URL) {
		if input.PromptID != "" {
			s.seen[input.PromptID] = true
		}
		s.mu.Unlock()
		return false, nil
	}

	// A seen marker with the URL absent is stale: prompt IDs repeat across
	// batches, so an old marker must not block a genuinely new image.
	if input.PromptID != "" && s.seen[input.PromptID] {
		s.log.Debug("Recovering stale prompt seen marker", "prompt_id", input.PromptID)
	}

	side, slot := s.findFreeSlotLocked()
	if side == "" {
		// No marker survives a failed placement, a retry must stay possible.
		if input.PromptID != "" {
			delete(s.seen, input.PromptID)
		}
		s.mu.Unlock()
		return false, nil
	}

	img := &types.SavedPanelImage{
		ID:        uuid.NewString(),
		URL:       input.URL,
		Prompt:    input.Prompt,
		PromptID:  input.PromptID,
		Side:      side,
		SlotIndex: slot,
		VideoURL:  input.VideoURL,
		CreatedAt: time.Now().UTC(),
	}
	s.setSlotLocked(side, slot, img)
	s.pending[input.URL] = true
	if input.PromptID != "" {
		s.seen[input.PromptID] = true
	}
	projectID := s.projectID
	snapshot := copyPanelState(s.state)
	s.mu.Unlock()

	if err := s.persist(dbc, projectID, snapshot); err != nil {
		s.mu.Lock()
		s.setSlotLocked(side, slot, nil)
		delete(s.pending, input.URL)
		if input.PromptID != "" {
			delete(s.seen, input.PromptID)
		}
		s.mu.Unlock()
		return false, err
	}

	// The pending marker only drops once the write is durably readable.
	s.mu.Lock()
	delete(s.pending, input.URL)
	s.mu.Unlock()

	if s.bus != nil {
		ev := bus.NewEvent(bus.EventImageSaved, projectID.String(), img)
		if err := s.bus.Publish(dbc.Ctx, ev); err != nil {
			s.log.Warn("Failed to publish image_saved", "error", err)
		}
	}
	return true, nil
}

func (s *panelService) persist(dbc dbctx.Context, projectID uuid.UUID, state *types.PanelState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.kv.Save(dbc, panelKey(projectID), raw); err != nil {
		return err
	}
	// Read back to confirm the row landed before the claim is released.
	if _, err := s.kv.Load(dbc, panelKey(projectID)); err != nil {
		return err
	}
	return nil
}

func (s *panelService) urlPlacedLocked(url string) bool {
	for _, img := range s.state.Images() {
		if img.URL == url {
			return true
		}
	}
	return false
}

func (s *panelService) findFreeSlotLocked() (string, int) {
	for i, img := range s.state.Left {
		if img == nil {
			return types.PanelSideLeft, i
		}
	}
	for i, img := range s.state.Right {
		if img == nil {
			return types.PanelSideRight, i
		}
	}
	return "", -1
}

func (s *panelService) setSlotLocked(side string, slot int, img *types.SavedPanelImage) {
	if side == types.PanelSideLeft {
		s.state.Left[slot] = img
		return
	}
	s.state.Right[slot] = img
}

func (s *panelService) ResetSaveTracking() {
	s.mu.Lock()
	s.seen = map[string]bool{}
	s.pending = map[string]bool{}
	s.mu.Unlock()
}

func (s *panelService) HydratePanelImages(projectID uuid.UUID, images []*types.SavedPanelImage) {
	if projectID == uuid.Nil {
		return
	}
	state := types.NewPanelState()
	for _, img := range images {
		if img == nil || img.SlotIndex < 0 || img.SlotIndex >= types.SlotsPerSide {
			continue
		}
		cp := *img
		if cp.Side == types.PanelSideRight {
			state.Right[cp.SlotIndex] = &cp
		} else {
			cp.Side = types.PanelSideLeft
			state.Left[cp.SlotIndex] = &cp
		}
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	s.kv.OverrideNextLoad(panelKey(projectID), raw)

	s.mu.Lock()
	if s.projectID == projectID {
		s.state = state
	}
	s.mu.Unlock()
}

func (s *panelService) GetPanelState(dbc dbctx.Context) (*types.PanelState, error) {
	s.mu.Lock()
	projectID := s.projectID
	s.mu.Unlock()
	if projectID == uuid.Nil {
		return types.NewPanelState(), nil
	}

	state, err := s.loadState(dbc, projectID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.projectID == projectID {
		s.state = state
	}
	s.mu.Unlock()
	return copyPanelState(state), nil
}

func (s *panelService) ClearPanel(dbc dbctx.Context) error {
	s.mu.Lock()
	projectID := s.projectID
	if s.state != nil {
		s.state = types.NewPanelState()
	}
	s.seen = map[string]bool{}
	s.pending = map[string]bool{}
	s.mu.Unlock()

	if projectID == uuid.Nil {
		return nil
	}
	if err := s.kv.Delete(dbc, panelKey(projectID)); err != nil {
		return err
	}
	if s.bus != nil {
		ev := bus.NewEvent(bus.EventPanelReset, projectID.String(), nil)
		if err := s.bus.Publish(dbc.Ctx, ev); err != nil {
			s.log.Warn("Failed to publish panel_reset", "error", err)
		}
	}
	return nil
}

func copyPanelState(state *types.PanelState) *types.PanelState {
	if state == nil {
		return nil
	}
	cp := types.NewPanelState()
	for i, img := range state.Left {
		if img != nil && i < types.SlotsPerSide {
			c := *img
			cp.Left[i] = &c
		}
	}
	for i, img := range state.Right {
		if img != nil && i < types.SlotsPerSide {
			c := *img
			cp.Right[i] = &c
		}
	}
	return cp
}
