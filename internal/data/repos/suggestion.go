package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type SmartSuggestionRepo interface {
	Create(dbc dbctx.Context, suggestion *types.SmartSuggestion) error
	MarkShown(dbc dbctx.Context, id uuid.UUID) error
	MarkAccepted(dbc dbctx.Context, id uuid.UUID, accepted bool) error
	ListRecent(dbc dbctx.Context, profileID string, limit int) ([]*types.SmartSuggestion, error)
}

type smartSuggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSmartSuggestionRepo(db *gorm.DB, baseLog *logger.Logger) SmartSuggestionRepo {
	return &smartSuggestionRepo{
		db:  db,
		log: baseLog.With("repo", "SmartSuggestionRepo"),
	}
}

func (r *smartSuggestionRepo) Create(dbc dbctx.Context, suggestion *types.SmartSuggestion) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if suggestion == nil {
		return nil
	}
	if suggestion.ID == uuid.Nil {
		suggestion.ID = uuid.New()
	}
	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Create(suggestion).Error
}

func (r *smartSuggestionRepo) MarkShown(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.SmartSuggestion{}).
		Where("id = ?", id).
		Update("shown", true).Error
}

func (r *smartSuggestionRepo) MarkAccepted(dbc dbctx.Context, id uuid.UUID, accepted bool) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.SmartSuggestion{}).
		Where("id = ?", id).
		Update("accepted", accepted).Error
}

func (r *smartSuggestionRepo) ListRecent(dbc dbctx.Context, profileID string, limit int) ([]*types.SmartSuggestion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.SmartSuggestion{}
	if profileID == "" {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
