package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type GenerationSessionRepo interface {
	Create(dbc dbctx.Context, session *types.GenerationSession) error
	ListSuccessful(dbc dbctx.Context, profileID string, limit int) ([]*types.GenerationSession, error)
	CountByProfile(dbc dbctx.Context, profileID string) (int64, error)
}

type generationSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationSessionRepo(db *gorm.DB, baseLog *logger.Logger) GenerationSessionRepo {
	return &generationSessionRepo{
		db:  db,
		log: baseLog.With("repo", "GenerationSessionRepo"),
	}
}

func (r *generationSessionRepo) Create(dbc dbctx.Context, session *types.GenerationSession) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if session == nil {
		return nil
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(session).Error
}

func (r *generationSessionRepo) ListSuccessful(dbc dbctx.Context, profileID string, limit int) ([]*types.GenerationSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.GenerationSession{}
	if profileID == "" {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("profile_id = ? AND successful = ?", profileID, true).
		Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generationSessionRepo) CountByProfile(dbc dbctx.Context, profileID string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.GenerationSession{}).
		Where("profile_id = ?", profileID).
		Count(&n).Error
	return n, err
}
