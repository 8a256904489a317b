package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SuggestionTypeDimension  = "dimension"
	SuggestionTypeWeight     = "weight"
	SuggestionTypeOutputMode = "output_mode"
)

// SmartSuggestion is a derived recommendation. It is recomputed on demand and
// only persisted once shown, so the accepted flag can be tracked.
type SmartSuggestion struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID  string         `gorm:"column:profile_id;not null;index:idx_smart_suggestion_profile" json:"profile_id"`
	Type       string         `gorm:"column:type;not null" json:"type"`
	Suggestion string         `gorm:"column:suggestion;not null" json:"suggestion"`
	Reason     string         `gorm:"column:reason" json:"reason"`
	Confidence float64        `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Data       datatypes.JSON `gorm:"column:data" json:"data,omitempty"`
	Shown      bool           `gorm:"column:shown;not null;default:false" json:"shown"`
	Accepted   *bool          `gorm:"column:accepted" json:"accepted,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (SmartSuggestion) TableName() string { return "smart_suggestion" }

// VariantStat accumulates A/B test results per variant label.
type VariantStat struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID       string    `gorm:"column:profile_id;not null;index:idx_variant_stat_profile" json:"profile_id"`
	VariantLabel    string    `gorm:"column:variant_label;not null;index:idx_variant_stat_profile" json:"variant_label"`
	Impressions     int       `gorm:"column:impressions;not null;default:0" json:"impressions"`
	PositiveRatings int       `gorm:"column:positive_ratings;not null;default:0" json:"positive_ratings"`
	ConversionRate  float64   `gorm:"column:conversion_rate;not null;default:0" json:"conversion_rate"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (VariantStat) TableName() string { return "variant_stat" }
