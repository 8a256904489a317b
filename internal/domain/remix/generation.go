package remix

import (
	"time"

	"github.com/google/uuid"
)

const (
	GenerationStatusPending  = "pending"
	GenerationStatusComplete = "complete"
	GenerationStatusFailed   = "failed"
)

// GeneratedImage tracks one prompt's image generation from request through
// polling to a terminal state.
type GeneratedImage struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	PromptID     string     `gorm:"column:prompt_id;not null;index" json:"prompt_id"`
	PromptText   string     `gorm:"column:prompt_text;type:text" json:"prompt_text"`
	GenerationID string     `gorm:"column:generation_id;index" json:"generation_id"`
	Status       string     `gorm:"column:status;not null;default:'pending';index" json:"status"`
	URL          string     `gorm:"column:url" json:"url,omitempty"`
	VideoURL     string     `gorm:"column:video_url" json:"video_url,omitempty"`
	OutputMode   string     `gorm:"column:output_mode;not null;default:'image'" json:"output_mode"`
	ErrorMessage string     `gorm:"column:error_message" json:"error_message,omitempty"`
	Attempts     int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (GeneratedImage) TableName() string { return "generated_image" }
