package kvstore

import (
	"encoding/json"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

// KVEntry is one durable key-value row. Each concern owns a disjoint key
// namespace (e.g. "panel:<projectID>", "dimensions:<projectID>").
type KVEntry struct {
	Key       string         `gorm:"primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"column:value" json:"value"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (KVEntry) TableName() string { return "kv_entry" }

// Store is a generic durable key-value store with an override-next-load
// escape hatch: a staged value that the next Load for its key returns (and
// persists under that key) instead of reading the table. This lets a caller
// hydrate fresh state across an identity-key change without a racing load
// clobbering it with stale durable data.
type Store interface {
	Load(dbc dbctx.Context, key string) (json.RawMessage, error)
	Save(dbc dbctx.Context, key string, value json.RawMessage) error
	Delete(dbc dbctx.Context, key string) error
	OverrideNextLoad(key string, value json.RawMessage)
}

type store struct {
	db  *gorm.DB
	log *logger.Logger

	mu        sync.Mutex
	overrides map[string]json.RawMessage
}

func NewStore(db *gorm.DB, baseLog *logger.Logger) Store {
	return &store{
		db:        db,
		log:       baseLog.With("component", "KVStore"),
		overrides: make(map[string]json.RawMessage),
	}
}

func (s *store) takeOverride(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.overrides[key]
	if ok {
		delete(s.overrides, key)
	}
	return v, ok
}

func (s *store) OverrideNextLoad(key string, value json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(json.RawMessage, len(value))
	copy(cp, value)
	s.overrides[key] = cp
}

// Load returns nil when the key is absent or the store is unavailable.
// Storage unavailability is a recoverable "empty" result, not a crash.
func (s *store) Load(dbc dbctx.Context, key string) (json.RawMessage, error) {
	if v, ok := s.takeOverride(key); ok {
		if err := s.Save(dbc, key, v); err != nil {
			s.log.Warn("Failed to persist override value", "key", key, "error", err)
		}
		return v, nil
	}

	t := dbc.Tx
	if t == nil {
		t = s.db
	}
	if t == nil {
		return nil, nil
	}

	var row KVEntry
	err := t.WithContext(dbc.Ctx).Where("key = ?", key).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Key == "" {
		return nil, nil
	}
	return json.RawMessage(row.Value), nil
}

func (s *store) Save(dbc dbctx.Context, key string, value json.RawMessage) error {
	t := dbc.Tx
	if t == nil {
		t = s.db
	}
	if t == nil {
		return gorm.ErrInvalidDB
	}
	row := KVEntry{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *store) Delete(dbc dbctx.Context, key string) error {
	t := dbc.Tx
	if t == nil {
		t = s.db
	}
	if t == nil {
		return gorm.ErrInvalidDB
	}
	return t.WithContext(dbc.Ctx).Where("key = ?", key).Delete(&KVEntry{}).Error
}
