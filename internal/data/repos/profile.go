package repos

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type LearnerProfileRepo interface {
	Ensure(dbc dbctx.Context, profileID string) error
	Get(dbc dbctx.Context, profileID string) (*types.LearnerProfile, error)
	Touch(dbc dbctx.Context, profileID string) error
}

type learnerProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearnerProfileRepo(db *gorm.DB, baseLog *logger.Logger) LearnerProfileRepo {
	return &learnerProfileRepo{
		db:  db,
		log: baseLog.With("repo", "LearnerProfileRepo"),
	}
}

func (r *learnerProfileRepo) Ensure(dbc dbctx.Context, profileID string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if profileID == "" {
		return nil
	}
	now := time.Now().UTC()
	row := types.LearnerProfile{ID: profileID, CreatedAt: now, UpdatedAt: now}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&row).Error
}

func (r *learnerProfileRepo) Get(dbc dbctx.Context, profileID string) (*types.LearnerProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.LearnerProfile
	err := t.WithContext(dbc.Ctx).Where("id = ?", profileID).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *learnerProfileRepo) Touch(dbc dbctx.Context, profileID string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.LearnerProfile{}).
		Where("id = ?", profileID).
		Update("updated_at", time.Now().UTC()).Error
}
