package repos

import (
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

// UserPreferenceRepo persists the learned preference list. The learning
// engine works read-modify-write against the full list, so ReplaceAll swaps
// the profile's rows wholesale inside one transaction.
type UserPreferenceRepo interface {
	ListByProfile(dbc dbctx.Context, profileID string) ([]*types.UserPreference, error)
	ListTop(dbc dbctx.Context, profileID string, limit int) ([]*types.UserPreference, error)
	ReplaceAll(dbc dbctx.Context, profileID string, prefs []*types.UserPreference) error
	CountByProfile(dbc dbctx.Context, profileID string) (int64, error)
}

type userPreferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) UserPreferenceRepo {
	return &userPreferenceRepo{
		db:  db,
		log: baseLog.With("repo", "UserPreferenceRepo"),
	}
}

func (r *userPreferenceRepo) ListByProfile(dbc dbctx.Context, profileID string) ([]*types.UserPreference, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.UserPreference{}
	if profileID == "" {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("profile_id = ?", profileID).
		Order("strength DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userPreferenceRepo) ListTop(dbc dbctx.Context, profileID string, limit int) ([]*types.UserPreference, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.UserPreference{}
	if profileID == "" || limit <= 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("profile_id = ?", profileID).
		Order("strength DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userPreferenceRepo) ReplaceAll(dbc dbctx.Context, profileID string, prefs []*types.UserPreference) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if profileID == "" {
		return nil
	}
	run := func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).Delete(&types.UserPreference{}).Error; err != nil {
			return err
		}
		if len(prefs) == 0 {
			return nil
		}
		return tx.Create(&prefs).Error
	}
	if dbc.Tx != nil {
		return run(dbc.Tx.WithContext(dbc.Ctx))
	}
	return t.WithContext(dbc.Ctx).Transaction(run)
}

func (r *userPreferenceRepo) CountByProfile(dbc dbctx.Context, profileID string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.UserPreference{}).
		Where("profile_id = ?", profileID).
		Count(&n).Error
	return n, err
}
