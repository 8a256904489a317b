package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type VariantStatRepo interface {
	RecordResult(dbc dbctx.Context, profileID, variantLabel string, positive bool) (*types.VariantStat, error)
	ListByProfile(dbc dbctx.Context, profileID string) ([]*types.VariantStat, error)
}

type variantStatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantStatRepo(db *gorm.DB, baseLog *logger.Logger) VariantStatRepo {
	return &variantStatRepo{
		db:  db,
		log: baseLog.With("repo", "VariantStatRepo"),
	}
}

// RecordResult bumps impressions, bumps positive ratings when positive, and
// recomputes conversion rate as positive/impressions.
func (r *variantStatRepo) RecordResult(dbc dbctx.Context, profileID, variantLabel string, positive bool) (*types.VariantStat, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if profileID == "" || variantLabel == "" {
		return nil, nil
	}
	now := time.Now().UTC()

	var row types.VariantStat
	err := t.WithContext(dbc.Ctx).
		Where("profile_id = ? AND variant_label = ?", profileID, variantLabel).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
		row.ProfileID = profileID
		row.VariantLabel = variantLabel
		row.CreatedAt = now
	}

	row.Impressions++
	if positive {
		row.PositiveRatings++
	}
	row.ConversionRate = float64(row.PositiveRatings) / float64(row.Impressions)
	row.UpdatedAt = now

	if err := t.WithContext(dbc.Ctx).Save(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *variantStatRepo) ListByProfile(dbc dbctx.Context, profileID string) ([]*types.VariantStat, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.VariantStat{}
	if profileID == "" {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("profile_id = ?", profileID).
		Order("variant_label ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
