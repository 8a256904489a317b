package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type PromptPatternRepo interface {
	ListByProfile(dbc dbctx.Context, profileID string) ([]*types.PromptPattern, error)
	Upsert(dbc dbctx.Context, pattern *types.PromptPattern) error
	CountByProfile(dbc dbctx.Context, profileID string) (int64, error)
}

type promptPatternRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromptPatternRepo(db *gorm.DB, baseLog *logger.Logger) PromptPatternRepo {
	return &promptPatternRepo{
		db:  db,
		log: baseLog.With("repo", "PromptPatternRepo"),
	}
}

func (r *promptPatternRepo) ListByProfile(dbc dbctx.Context, profileID string) ([]*types.PromptPattern, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.PromptPattern{}
	if profileID == "" {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("profile_id = ?", profileID).
		Order("confidence DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert matches on (profile_id, type, value) so counts accumulate across
// learning passes.
func (r *promptPatternRepo) Upsert(dbc dbctx.Context, pattern *types.PromptPattern) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if pattern == nil || pattern.ProfileID == "" || pattern.Value == "" {
		return nil
	}
	now := time.Now().UTC()

	var existing types.PromptPattern
	err := t.WithContext(dbc.Ctx).
		Where("profile_id = ? AND type = ? AND value = ?", pattern.ProfileID, pattern.Type, pattern.Value).
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
		Model(&types.PromptPattern{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"success_count": pattern.SuccessCount,
			"failure_count": pattern.FailureCount,
			"confidence":    pattern.Confidence,
			"updated_at":    now,
		}).Error
}

func (r *promptPatternRepo) CountByProfile(dbc dbctx.Context, profileID string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.PromptPattern{}).
		Where("profile_id = ?", profileID).
		Count(&n).Error
	return n, err
}
