package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type CharacterRepo interface {
	Create(dbc dbctx.Context, c *types.Character) error
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Character, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Character, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type characterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCharacterRepo(db *gorm.DB, baseLog *logger.Logger) CharacterRepo {
	return &characterRepo{
		db:  db,
		log: baseLog.With("repo", "CharacterRepo"),
	}
}

func (r *characterRepo) Create(dbc dbctx.Context, c *types.Character) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if c == nil {
		return nil
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(c).Error
}

func (r *characterRepo) Get(dbc dbctx.Context, id uuid.UUID) (*types.Character, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Character
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *characterRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Character, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Character{}
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *characterRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Model(&types.Character{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *characterRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.Character{}).Error
}
