package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type SceneRepo interface {
	Create(dbc dbctx.Context, s *types.Scene) error
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Scene, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Scene, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type sceneRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSceneRepo(db *gorm.DB, baseLog *logger.Logger) SceneRepo {
	return &sceneRepo{
		db:  db,
		log: baseLog.With("repo", "SceneRepo"),
	}
}

func (r *sceneRepo) Create(dbc dbctx.Context, s *types.Scene) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if s == nil {
		return nil
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(s).Error
}

func (r *sceneRepo) Get(dbc dbctx.Context, id uuid.UUID) (*types.Scene, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Scene
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sceneRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Scene, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Scene{}
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("sort_index ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sceneRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Model(&types.Scene{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *sceneRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.Scene{}).Error
}
