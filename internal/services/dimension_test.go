package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/studiostory/studiostory-backend/internal/data/repos/testutil"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/apierr"
)

func newDimensionFixture(t *testing.T) (DimensionService, dbctx.Context) {
	t.Helper()
	svc, err := NewDimensionService(testutil.Logger(t), newFakeKV())
	if err != nil {
		t.Fatalf("NewDimensionService: %v", err)
	}
	return svc, dbctx.Context{Ctx: context.Background()}
}

func TestDimensionCatalog(t *testing.T) {
	svc, _ := newDimensionFixture(t)

	ts := svc.Types()
	if len(ts) != 6 {
		t.Fatalf("types = %d, want 6", len(ts))
	}
	seen := map[string]bool{}
	for _, dt := range ts {
		seen[dt.ID] = true
	}
	for _, want := range []string{"style", "setting", "subject", "mood", "era", "palette"} {
		if !seen[want] {
			t.Fatalf("type catalog missing %q: %v", want, ts)
		}
	}
	if len(svc.Presets()) == 0 {
		t.Fatalf("preset catalog is empty")
	}
}

func TestApplyPreset(t *testing.T) {
	svc, _ := newDimensionFixture(t)

	dims, err := svc.ApplyPreset("neon noir")
	if err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if len(dims) == 0 {
		t.Fatalf("preset expanded to no dimensions")
	}
	ids := map[string]bool{}
	for _, d := range dims {
		if d.ID == "" {
			t.Fatalf("preset dimension missing id: %+v", d)
		}
		ids[d.ID] = true
		if err := svc.Validate([]types.Dimension{d}); err != nil {
			t.Fatalf("preset dimension fails validation: %+v: %v", d, err)
		}
	}
	if len(ids) != len(dims) {
		t.Fatalf("preset dimension ids are not unique")
	}

	if _, err := svc.ApplyPreset("does not exist"); err == nil {
		t.Fatalf("unknown preset must fail")
	}
}

func TestValidateDimensions(t *testing.T) {
	svc, _ := newDimensionFixture(t)

	good := types.Dimension{
		Type:          "style",
		Reference:     "neon noir",
		FilterMode:    types.FilterModeStructure,
		TransformMode: types.TransformModeBlend,
		Weight:        70,
	}
	if err := svc.Validate([]types.Dimension{good}); err != nil {
		t.Fatalf("valid dimension rejected: %v", err)
	}

	bad := types.Dimension{
		Type:          "flavor",
		Reference:     "  ",
		FilterMode:    "hue",
		TransformMode: "teleport",
		Weight:        120,
	}
	err := svc.Validate([]types.Dimension{bad})
	if err == nil {
		t.Fatalf("invalid dimension accepted")
	}
	var ve *apierr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %T", err)
	}
	if len(ve.Fields) != 5 {
		t.Fatalf("field errors = %d, want 5: %+v", len(ve.Fields), ve.Fields)
	}
}

func TestSaveLoadDimensionsRoundTrip(t *testing.T) {
	svc, dbc := newDimensionFixture(t)
	projectID := uuid.New()

	dims, err := svc.ApplyPreset("Storybook")
	if err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if err := svc.SaveDimensions(dbc, projectID, dims); err != nil {
		t.Fatalf("SaveDimensions: %v", err)
	}

	loaded, err := svc.LoadDimensions(dbc, projectID)
	if err != nil {
		t.Fatalf("LoadDimensions: %v", err)
	}
	if len(loaded) != len(dims) {
		t.Fatalf("loaded %d dimensions, want %d", len(loaded), len(dims))
	}
	for i := range dims {
		if loaded[i] != dims[i] {
			t.Fatalf("dimension %d changed in round trip: %+v vs %+v", i, loaded[i], dims[i])
		}
	}

	// Unknown projects load empty, not an error.
	loaded, err = svc.LoadDimensions(dbc, uuid.New())
	if err != nil || len(loaded) != 0 {
		t.Fatalf("unknown project load = %v %v, want empty", loaded, err)
	}
}

func TestSaveDimensionsRejectsInvalid(t *testing.T) {
	svc, dbc := newDimensionFixture(t)

	err := svc.SaveDimensions(dbc, uuid.New(), []types.Dimension{{Type: "flavor", Reference: "x"}})
	if err == nil {
		t.Fatalf("invalid dimensions must not persist")
	}
	if err := svc.SaveDimensions(dbc, uuid.Nil, nil); err == nil {
		t.Fatalf("nil project id must be rejected")
	}
}

func TestDimensionSnapshots(t *testing.T) {
	svc, _ := newDimensionFixture(t)

	snaps := svc.Snapshots([]types.Dimension{
		{ID: "a", Type: "style", Reference: "neon noir", FilterMode: types.FilterModeNone, TransformMode: types.TransformModeStylize, Weight: 70},
	})
	if len(snaps) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snaps))
	}
	if snaps[0] != (types.DimensionSnapshot{Type: "style", Reference: "neon noir", Weight: 70}) {
		t.Fatalf("snapshot = %+v", snaps[0])
	}
}
