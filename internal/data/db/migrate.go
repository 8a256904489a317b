package db

import (
	"gorm.io/gorm"

	"github.com/studiostory/studiostory-backend/internal/data/kvstore"
	types "github.com/studiostory/studiostory-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Learner profile + learned record families
		&types.LearnerProfile{},
		&types.UserPreference{},
		&types.PromptPattern{},
		&types.GenerationSession{},
		&types.DimensionCombinationPattern{},
		&types.StylePreference{},
		&types.SmartSuggestion{},
		&types.VariantStat{},
		&types.FeedbackEvent{},

		// Remix simulator
		&types.GeneratedImage{},

		// Project entities
		&types.Project{},
		&types.Character{},
		&types.Faction{},
		&types.Scene{},

		// Generic key-value table (panel slots, dimension configs)
		&kvstore.KVEntry{},
	)
}
