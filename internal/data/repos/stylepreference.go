package repos

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type StylePreferenceRepo interface {
	Get(dbc dbctx.Context, profileID, category, value string) (*types.StylePreference, error)
	ListByProfile(dbc dbctx.Context, profileID string) ([]*types.StylePreference, error)
	Upsert(dbc dbctx.Context, pref *types.StylePreference) error
}

type stylePreferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStylePreferenceRepo(db *gorm.DB, baseLog *logger.Logger) StylePreferenceRepo {
	return &stylePreferenceRepo{
		db:  db,
		log: baseLog.With("repo", "StylePreferenceRepo"),
	}
}

func (r *stylePreferenceRepo) Get(dbc dbctx.Context, profileID, category, value string) (*types.StylePreference, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if profileID == "" || category == "" || value == "" {
		return nil, nil
	}
	var row types.StylePreference
	err := t.WithContext(dbc.Ctx).
		Where("profile_id = ? AND category = ? AND value = ?", profileID, category, value).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *stylePreferenceRepo) ListByProfile(dbc dbctx.Context, profileID string) ([]*types.StylePreference, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.StylePreference{}
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

func (r *stylePreferenceRepo) Upsert(dbc dbctx.Context, pref *types.StylePreference) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if pref == nil || pref.ProfileID == "" || pref.Category == "" || pref.Value == "" {
		return nil
	}
	now := time.Now().UTC()
	pref.Value = strings.ToLower(strings.TrimSpace(pref.Value))
	pref.UpdatedAt = now

	var existing types.StylePreference
	err := t.WithContext(dbc.Ctx).
		Where("profile_id = ? AND category = ? AND value = ?", pref.ProfileID, pref.Category, pref.Value).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return err
	}
	if existing.ID == uuid.Nil {
		if pref.ID == uuid.Nil {
			pref.ID = uuid.New()
		}
		pref.CreatedAt = now
		return t.WithContext(dbc.Ctx).Create(pref).Error
	}
	pref.ID = existing.ID
	return t.WithContext(dbc.Ctx).
		Model(&types.StylePreference{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"strength":              pref.Strength,
			"positive_associations": pref.PositiveAssociations,
			"negative_associations": pref.NegativeAssociations,
			"source_dimensions":     pref.SourceDimensions,
			"updated_at":            now,
		}).Error
}
