package learning

import (
	"time"

	"github.com/google/uuid"
)

// DefaultProfileID identifies the single local learner profile. There is no
// multi-tenant separation in the learned store: one deployment = one learner.
const DefaultProfileID = "default-user"

const (
	CategoryComposition = "composition"
	CategorySetting     = "setting"
	CategorySubject     = "subject"
	CategoryStyle       = "style"
	CategoryMood        = "mood"
	CategoryQuality     = "quality"
	CategoryAvoid       = "avoid"
)

const (
	SourceExplicit = "explicit"
	SourceInferred = "inferred"
)

// UserPreference is a learned affinity (or aversion, category "avoid") for a
// text value within a category. Strength is reinforced by feedback up to 100
// and, for inferred preferences, decays by one on every learning pass that
// does not touch it; a preference at strength 0 is pruned.
type UserPreference struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID      string    `gorm:"column:profile_id;not null;index:idx_user_preference_profile" json:"profile_id"`
	Category       string    `gorm:"column:category;not null;index:idx_user_preference_profile" json:"category"`
	Value          string    `gorm:"column:value;not null" json:"value"`
	Strength       int       `gorm:"column:strength;not null;default:0" json:"strength"`
	Reinforcements int       `gorm:"column:reinforcements;not null;default:0" json:"reinforcements"`
	Source         string    `gorm:"column:source;not null;default:'inferred'" json:"source"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (UserPreference) TableName() string { return "user_preference" }

// LearnerProfile anchors all learned record families. A single row with
// DefaultProfileID is ensured at startup.
type LearnerProfile struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LearnerProfile) TableName() string { return "learner_profile" }
