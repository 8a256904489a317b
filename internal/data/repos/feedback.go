package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type FeedbackEventRepo interface {
	Create(dbc dbctx.Context, event *types.FeedbackEvent) error
	ListRecent(dbc dbctx.Context, profileID string, limit int) ([]*types.FeedbackEvent, error)
	ListRecentNegative(dbc dbctx.Context, profileID string, limit int) ([]*types.FeedbackEvent, error)
	CountByProfile(dbc dbctx.Context, profileID string) (int64, error)
}

type feedbackEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackEventRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackEventRepo {
	return &feedbackEventRepo{
		db:  db,
		log: baseLog.With("repo", "FeedbackEventRepo"),
	}
}

func (r *feedbackEventRepo) Create(dbc dbctx.Context, event *types.FeedbackEvent) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if event == nil {
		return nil
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(event).Error
}

func (r *feedbackEventRepo) ListRecent(dbc dbctx.Context, profileID string, limit int) ([]*types.FeedbackEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.FeedbackEvent{}
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

func (r *feedbackEventRepo) ListRecentNegative(dbc dbctx.Context, profileID string, limit int) ([]*types.FeedbackEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.FeedbackEvent{}
	if profileID == "" {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("profile_id = ? AND rating = ?", profileID, types.RatingDown).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *feedbackEventRepo) CountByProfile(dbc dbctx.Context, profileID string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.FeedbackEvent{}).
		Where("profile_id = ?", profileID).
		Count(&n).Error
	return n, err
}
