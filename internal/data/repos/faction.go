package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type FactionRepo interface {
	Create(dbc dbctx.Context, f *types.Faction) error
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Faction, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Faction, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type factionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFactionRepo(db *gorm.DB, baseLog *logger.Logger) FactionRepo {
	return &factionRepo{
		db:  db,
		log: baseLog.With("repo", "FactionRepo"),
	}
}

func (r *factionRepo) Create(dbc dbctx.Context, f *types.Faction) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if f == nil {
		return nil
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(f).Error
}

func (r *factionRepo) Get(dbc dbctx.Context, id uuid.UUID) (*types.Faction, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Faction
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *factionRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Faction, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Faction{}
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

func (r *factionRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Model(&types.Faction{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *factionRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.Faction{}).Error
}
