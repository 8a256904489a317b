package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StyleCategoryLighting    = "lighting"
	StyleCategoryRendering   = "rendering"
	StyleCategoryComposition = "composition"
	StyleCategoryColor       = "color"
	StyleCategoryTexture     = "texture"
	StyleCategoryDetail      = "detail"
)

// StylePreference tracks how a specific style keyword performs for the
// learner. Strength is the positive-association share scaled to [0,100].
type StylePreference struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID            string         `gorm:"column:profile_id;not null;index:idx_style_preference_profile" json:"profile_id"`
	Category             string         `gorm:"column:category;not null;index:idx_style_preference_profile" json:"category"`
	Value                string         `gorm:"column:value;not null" json:"value"`
	Strength             float64        `gorm:"column:strength;not null;default:0" json:"strength"`
	PositiveAssociations int            `gorm:"column:positive_associations;not null;default:0" json:"positive_associations"`
	NegativeAssociations int            `gorm:"column:negative_associations;not null;default:0" json:"negative_associations"`
	SourceDimensions     datatypes.JSON `gorm:"column:source_dimensions" json:"source_dimensions"`
	CreatedAt            time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null" json:"updated_at"`
}

func (StylePreference) TableName() string { return "style_preference" }
