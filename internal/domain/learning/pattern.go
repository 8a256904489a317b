package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const PatternTypeElementCombination = "element_combination"

// PromptPattern is a statistically observed prompt-element outcome. The value
// key is "category:lowercased text". A pattern is only materialized once it
// has at least MinPatternObservations total observations.
type PromptPattern struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID    string    `gorm:"column:profile_id;not null;index:idx_prompt_pattern_profile" json:"profile_id"`
	Type         string    `gorm:"column:type;not null;default:'element_combination'" json:"type"`
	Value        string    `gorm:"column:value;not null;index:idx_prompt_pattern_profile" json:"value"`
	SuccessCount int       `gorm:"column:success_count;not null;default:0" json:"success_count"`
	FailureCount int       `gorm:"column:failure_count;not null;default:0" json:"failure_count"`
	Confidence   float64   `gorm:"column:confidence;not null;default:0" json:"confidence"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (PromptPattern) TableName() string { return "prompt_pattern" }

// MinPatternObservations is the materialization threshold for prompt patterns.
const MinPatternObservations = 3

// DimensionCombinationPattern records a set of dimension types that appeared
// together in successful sessions. The key is the sorted-and-joined set of
// dimension types. AvgSuccessfulWeights is an incremental running average:
// each update averages the stored value with the new sample, which biases it
// toward recent sessions.
type DimensionCombinationPattern struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID            string         `gorm:"column:profile_id;not null;index:idx_dimension_combo_profile" json:"profile_id"`
	Key                  string         `gorm:"column:key;not null;index:idx_dimension_combo_profile" json:"key"`
	DimensionTypes       datatypes.JSON `gorm:"column:dimension_types" json:"dimension_types"`
	SuccessfulReferences datatypes.JSON `gorm:"column:successful_references" json:"successful_references"`
	SuccessRate          float64        `gorm:"column:success_rate;not null;default:0" json:"success_rate"`
	UsageCount           int            `gorm:"column:usage_count;not null;default:1" json:"usage_count"`
	AvgSuccessfulWeights datatypes.JSON `gorm:"column:avg_successful_weights" json:"avg_successful_weights"`
	CreatedAt            time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null" json:"updated_at"`
}

func (DimensionCombinationPattern) TableName() string { return "dimension_combination_pattern" }
