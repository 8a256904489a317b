package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RatingUp   = "up"
	RatingDown = "down"
)

// FeedbackEvent is one explicit user reaction to a generated prompt/image.
// The prompt is snapshotted so pattern learning can replay history without
// the original generation records.
type FeedbackEvent struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID        string         `gorm:"column:profile_id;not null;index:idx_feedback_event_profile" json:"profile_id"`
	ProjectID        *uuid.UUID     `gorm:"type:uuid;column:project_id;index" json:"project_id,omitempty"`
	PromptID         string         `gorm:"column:prompt_id;index" json:"prompt_id"`
	Rating           string         `gorm:"column:rating;not null" json:"rating"`
	LikedElements    datatypes.JSON `gorm:"column:liked_elements" json:"liked_elements,omitempty"`
	DislikedElements datatypes.JSON `gorm:"column:disliked_elements" json:"disliked_elements,omitempty"`
	TextFeedback     string         `gorm:"column:text_feedback;type:text" json:"text_feedback,omitempty"`
	PromptSnapshot   datatypes.JSON `gorm:"column:prompt_snapshot" json:"prompt_snapshot,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
}

func (FeedbackEvent) TableName() string { return "feedback_event" }
