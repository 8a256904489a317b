package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type GeneratedImageRepo interface {
	Create(dbc dbctx.Context, image *types.GeneratedImage) error
	Get(dbc dbctx.Context, id uuid.UUID) (*types.GeneratedImage, error)
	// LatestByPromptID returns the most recent generation record for a prompt
	// slot. Prompt IDs are deterministically reused across iterations, so the
	// latest row is the one the UI is looking at.
	LatestByPromptID(dbc dbctx.Context, promptID string) (*types.GeneratedImage, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.GeneratedImage, error)
}

type generatedImageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeneratedImageRepo(db *gorm.DB, baseLog *logger.Logger) GeneratedImageRepo {
	return &generatedImageRepo{
		db:  db,
		log: baseLog.With("repo", "GeneratedImageRepo"),
	}
}

func (r *generatedImageRepo) Create(dbc dbctx.Context, image *types.GeneratedImage) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if image == nil {
		return nil
	}
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(image).Error
}

func (r *generatedImageRepo) Get(dbc dbctx.Context, id uuid.UUID) (*types.GeneratedImage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.GeneratedImage
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *generatedImageRepo) LatestByPromptID(dbc dbctx.Context, promptID string) (*types.GeneratedImage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if promptID == "" {
		return nil, nil
	}
	var row types.GeneratedImage
	err := t.WithContext(dbc.Ctx).
		Where("prompt_id = ?", promptID).
		Order("created_at DESC").
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

func (r *generatedImageRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Model(&types.GeneratedImage{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *generatedImageRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.GeneratedImage{}).Error
}

func (r *generatedImageRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.GeneratedImage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.GeneratedImage{}
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
