package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studiostory/studiostory-backend/internal/data/repos/testutil"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
)

func prefRow(profileID, category, value string, strength int) *types.UserPreference {
	now := time.Now().UTC()
	return &types.UserPreference{
		ID:        uuid.New(),
		ProfileID: profileID,
		Category:  category,
		Value:     value,
		Strength:  strength,
		Source:    types.SourceInferred,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUserPreferenceReplaceAll(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)
	testutil.SeedProfile(t, dbc.Ctx, tx, "other-profile")

	repo := NewUserPreferenceRepo(db, logg)

	first := []*types.UserPreference{
		prefRow(types.DefaultProfileID, types.CategoryStyle, "neon glow", 80),
		prefRow(types.DefaultProfileID, types.CategoryAvoid, "fog", 40),
	}
	if err := repo.ReplaceAll(dbc, types.DefaultProfileID, first); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if err := repo.ReplaceAll(dbc, "other-profile", []*types.UserPreference{
		prefRow("other-profile", types.CategoryMood, "gloomy", 50),
	}); err != nil {
		t.Fatalf("ReplaceAll other profile: %v", err)
	}

	// The swap is wholesale: rows absent from the new list disappear.
	second := []*types.UserPreference{
		prefRow(types.DefaultProfileID, types.CategoryStyle, "watercolor", 35),
	}
	if err := repo.ReplaceAll(dbc, types.DefaultProfileID, second); err != nil {
		t.Fatalf("ReplaceAll swap: %v", err)
	}

	got, err := repo.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		t.Fatalf("ListByProfile: %v", err)
	}
	if len(got) != 1 || got[0].Value != "watercolor" {
		t.Fatalf("prefs after swap = %+v, want single watercolor row", got)
	}

	// Sibling profiles are untouched.
	other, err := repo.ListByProfile(dbc, "other-profile")
	if err != nil {
		t.Fatalf("ListByProfile other: %v", err)
	}
	if len(other) != 1 || other[0].Value != "gloomy" {
		t.Fatalf("other profile disturbed: %+v", other)
	}
}

func TestUserPreferenceListTopOrdersByStrength(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)

	repo := NewUserPreferenceRepo(db, logg)
	if err := repo.ReplaceAll(dbc, types.DefaultProfileID, []*types.UserPreference{
		prefRow(types.DefaultProfileID, types.CategoryStyle, "weak", 20),
		prefRow(types.DefaultProfileID, types.CategoryStyle, "strong", 90),
		prefRow(types.DefaultProfileID, types.CategoryStyle, "middle", 55),
	}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	top, err := repo.ListTop(dbc, types.DefaultProfileID, 2)
	if err != nil {
		t.Fatalf("ListTop: %v", err)
	}
	if len(top) != 2 || top[0].Value != "strong" || top[1].Value != "middle" {
		t.Fatalf("ListTop = %+v, want strong then middle", top)
	}

	n, err := repo.CountByProfile(dbc, types.DefaultProfileID)
	if err != nil || n != 3 {
		t.Fatalf("CountByProfile = %d %v, want 3", n, err)
	}
}
