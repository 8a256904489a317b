package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type DimensionCombinationRepo interface {
	ListByProfile(dbc dbctx.Context, profileID string) ([]*types.DimensionCombinationPattern, error)
	UpsertByKey(dbc dbctx.Context, pattern *types.DimensionCombinationPattern) error
}

type dimensionCombinationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDimensionCombinationRepo(db *gorm.DB, baseLog *logger.Logger) DimensionCombinationRepo {
	return &dimensionCombinationRepo{
		db:  db,
		log: baseLog.With("repo", "DimensionCombinationRepo"),
	}
}

func (r *dimensionCombinationRepo) ListByProfile(dbc dbctx.Context, profileID string) ([]*types.DimensionCombinationPattern, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.DimensionCombinationPattern{}
	if profileID == "" {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("profile_id = ?", profileID).
		Order("usage_count DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertByKey matches on (profile_id, key); the key is the sorted-and-joined
// dimension-type set, so one row exists per combination identity.
func (r *dimensionCombinationRepo) UpsertByKey(dbc dbctx.Context, pattern *types.DimensionCombinationPattern) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if pattern == nil || pattern.ProfileID == "" || pattern.Key == "" {
		return nil
	}
	now := time.Now().UTC()

	var existing types.DimensionCombinationPattern
	err := t.WithContext(dbc.Ctx).
		Where("profile_id = ? AND key = ?", pattern.ProfileID, pattern.Key).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return err
	}
	if existing.ID == uuid.Nil {
		if pattern.ID == uuid.Nil {
			pattern.ID = uuid.New()
		}
		pattern.CreatedAt = now
		pattern.UpdatedAt = now
		return t.WithContext(dbc.Ctx).Create(pattern).Error
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.DimensionCombinationPattern{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"dimension_types":        pattern.DimensionTypes,
			"successful_references":  pattern.SuccessfulReferences,
			"success_rate":           pattern.SuccessRate,
			"usage_count":            pattern.UsageCount,
			"avg_successful_weights": pattern.AvgSuccessfulWeights,
			"updated_at":             now,
		}).Error
}
