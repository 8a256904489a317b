package kvstore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/studiostory/studiostory-backend/internal/data/kvstore"
	"github.com/studiostory/studiostory-backend/internal/data/repos/testutil"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
)

func newStoreFixture(t *testing.T) (kvstore.Store, dbctx.Context) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	return kvstore.NewStore(db, testutil.Logger(t)), dbctx.Context{Ctx: context.Background(), Tx: tx}
}

func TestStoreSaveLoadDelete(t *testing.T) {
	store, dbc := newStoreFixture(t)

	got, err := store.Load(dbc, "panel:missing")
	if err != nil {
		t.Fatalf("Load absent key: %v", err)
	}
	if got != nil {
		t.Fatalf("absent key should load nil, got %s", got)
	}

	if err := store.Save(dbc, "panel:p1", json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = store.Load(dbc, "panel:p1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("Load = %s, want {\"a\":1}", got)
	}

	// Save on an existing key replaces the value.
	if err := store.Save(dbc, "panel:p1", json.RawMessage(`{"a":2}`)); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, _ = store.Load(dbc, "panel:p1")
	if string(got) != `{"a":2}` {
		t.Fatalf("overwrite not visible, got %s", got)
	}

	if err := store.Delete(dbc, "panel:p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = store.Load(dbc, "panel:p1")
	if got != nil {
		t.Fatalf("deleted key should load nil, got %s", got)
	}
}

func TestStoreKeysAreIndependent(t *testing.T) {
	store, dbc := newStoreFixture(t)

	if err := store.Save(dbc, "panel:p1", json.RawMessage(`1`)); err != nil {
		t.Fatalf("Save p1: %v", err)
	}
	if err := store.Save(dbc, "dimensions:p1", json.RawMessage(`2`)); err != nil {
		t.Fatalf("Save dimensions: %v", err)
	}
	if err := store.Delete(dbc, "panel:p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ := store.Load(dbc, "dimensions:p1")
	if string(got) != `2` {
		t.Fatalf("sibling key disturbed, got %s", got)
	}
}

func TestStoreOverrideNextLoad(t *testing.T) {
	store, dbc := newStoreFixture(t)

	if err := store.Save(dbc, "panel:p1", json.RawMessage(`"stale"`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.OverrideNextLoad("panel:p1", json.RawMessage(`"fresh"`))

	got, err := store.Load(dbc, "panel:p1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `"fresh"` {
		t.Fatalf("override not returned, got %s", got)
	}

	// The override is consumed once and persisted under its key.
	got, err = store.Load(dbc, "panel:p1")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if string(got) != `"fresh"` {
		t.Fatalf("override was not persisted, got %s", got)
	}
}

func TestStoreNilDBLoadsEmpty(t *testing.T) {
	store := kvstore.NewStore(nil, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	got, err := store.Load(dbc, "panel:p1")
	if err != nil || got != nil {
		t.Fatalf("nil-db Load = %s %v, want nil nil", got, err)
	}
	if err := store.Save(dbc, "panel:p1", json.RawMessage(`1`)); err == nil {
		t.Fatalf("nil-db Save should fail")
	}
}
