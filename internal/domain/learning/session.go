package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GenerationSession is one completed user attempt at iterating toward a
// satisfying generated result. Only terminated sessions are persisted; a
// session abandoned without an explicit end call is lost on process exit and
// never counts toward learning.
type GenerationSession struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID            string         `gorm:"column:profile_id;not null;index:idx_generation_session_profile" json:"profile_id"`
	ProjectID            *uuid.UUID     `gorm:"type:uuid;column:project_id;index" json:"project_id,omitempty"`
	StartedAt            time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	IterationCount       int            `gorm:"column:iteration_count;not null;default:0" json:"iteration_count"`
	DimensionsSnapshot   datatypes.JSON `gorm:"column:dimensions_snapshot" json:"dimensions_snapshot"`
	BaseImageSnapshot    string         `gorm:"column:base_image_snapshot;type:text" json:"base_image_snapshot,omitempty"`
	OutputMode           string         `gorm:"column:output_mode;not null;default:'image'" json:"output_mode"`
	Successful           bool           `gorm:"column:successful;not null;default:false;index:idx_generation_session_successful" json:"successful"`
	SatisfiedAt          *time.Time     `gorm:"column:satisfied_at" json:"satisfied_at,omitempty"`
	TimeToSatisfactionMS *int64         `gorm:"column:time_to_satisfaction_ms" json:"time_to_satisfaction_ms,omitempty"`
	FinalFeedback        string         `gorm:"column:final_feedback;type:text" json:"final_feedback,omitempty"`
	PromptIDs            datatypes.JSON `gorm:"column:prompt_ids" json:"prompt_ids"`
	CreatedAt            time.Time      `gorm:"not null" json:"created_at"`
}

func (GenerationSession) TableName() string { return "generation_session" }
