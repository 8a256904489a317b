package bus

import (
	"context"
	"encoding/json"
)

const (
	EventImageSaved         = "image_saved"
	EventPanelReset         = "panel_reset"
	EventGenerationProgress = "generation_progress"
	EventGenerationComplete = "generation_complete"
	EventGenerationFailed   = "generation_failed"
)

// Event is one fan-out message. Payload is pre-encoded so subscribers relay
// it without re-marshaling.
type Event struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"project_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func NewEvent(eventType, projectID string, payload any) Event {
	ev := Event{Type: eventType, ProjectID: projectID}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			ev.Payload = raw
		}
	}
	return ev
}

// Bus fans events out to all current subscribers. Publish never blocks on a
// slow subscriber; implementations drop events instead.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe returns a receive channel and a cancel func that must be
	// called to release the subscription.
	Subscribe(ctx context.Context) (<-chan Event, func())
	Close() error
}
