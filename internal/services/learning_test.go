package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studiostory/studiostory-backend/internal/data/repos"
	"github.com/studiostory/studiostory-backend/internal/data/repos/testutil"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
)

func neonPrompt() types.GeneratedPrompt {
	return types.GeneratedPrompt{
		ID:   "prompt-0",
		Text: "a city street, neon glow, rain",
		Elements: []types.PromptElement{
			{ID: "prompt-0-el-0", Category: "subject", Text: "a city street"},
			{ID: "prompt-0-el-1", Category: "style", Text: "neon glow"},
			{ID: "prompt-0-el-2", Category: "mood", Text: "rain"},
		},
	}
}

func findPref(prefs []*types.UserPreference, category, value string) *types.UserPreference {
	for _, p := range prefs {
		if p.Category == category && p.Value == value {
			return p
		}
	}
	return nil
}

func TestApplyFeedbackCreatesAndReinforces(t *testing.T) {
	now := time.Now().UTC()
	fb := types.Feedback{Rating: types.RatingUp, LikedElements: []string{"prompt-0-el-1"}}

	prefs := ApplyFeedback(nil, fb, neonPrompt(), now)
	p := findPref(prefs, types.CategoryStyle, "neon glow")
	if p == nil {
		t.Fatalf("expected a style preference for neon glow, got %v", prefs)
	}
	if p.Strength != 30 {
		t.Fatalf("new liked preference strength = %d, want 30", p.Strength)
	}

	prefs = ApplyFeedback(prefs, fb, neonPrompt(), now.Add(time.Minute))
	p = findPref(prefs, types.CategoryStyle, "neon glow")
	if p.Strength != 40 {
		t.Fatalf("reinforced strength = %d, want 40", p.Strength)
	}
	if p.Reinforcements != 2 {
		t.Fatalf("reinforcements = %d, want 2", p.Reinforcements)
	}
}

func TestApplyFeedbackStrengthCap(t *testing.T) {
	now := time.Now().UTC()
	prefs := []*types.UserPreference{{
		Category: types.CategoryStyle, Value: "neon glow",
		Strength: 95, Source: types.SourceInferred,
	}}
	fb := types.Feedback{Rating: types.RatingUp, LikedElements: []string{"prompt-0-el-1"}}

	out := ApplyFeedback(prefs, fb, neonPrompt(), now)
	if p := findPref(out, types.CategoryStyle, "neon glow"); p.Strength != 100 {
		t.Fatalf("strength = %d, want capped at 100", p.Strength)
	}
}

func TestApplyFeedbackPositiveFallsBackToAllElements(t *testing.T) {
	now := time.Now().UTC()
	out := ApplyFeedback(nil, types.Feedback{Rating: types.RatingUp}, neonPrompt(), now)
	if len(out) != 3 {
		t.Fatalf("like without liked elements should learn all %d elements, got %d", 3, len(out))
	}
	// Lighting-less mood element maps to the mood category.
	if findPref(out, types.CategoryMood, "rain") == nil {
		t.Fatalf("expected mood preference for rain")
	}
}

func TestApplyFeedbackNegativeDoesNotFallBack(t *testing.T) {
	now := time.Now().UTC()
	out := ApplyFeedback(nil, types.Feedback{Rating: types.RatingDown}, neonPrompt(), now)
	if len(out) != 0 {
		t.Fatalf("dislike without disliked elements must learn nothing, got %v", out)
	}
}

func TestApplyFeedbackAvoidFromDislikedElement(t *testing.T) {
	now := time.Now().UTC()
	fb := types.Feedback{Rating: types.RatingDown, DislikedElements: []string{"prompt-0-el-2"}}

	out := ApplyFeedback(nil, fb, neonPrompt(), now)
	p := findPref(out, types.CategoryAvoid, "rain")
	if p == nil {
		t.Fatalf("expected avoid preference for rain, got %v", out)
	}
	if p.Strength != 40 {
		t.Fatalf("new avoid strength = %d, want 40", p.Strength)
	}

	out = ApplyFeedback(out, fb, neonPrompt(), now.Add(time.Minute))
	if p = findPref(out, types.CategoryAvoid, "rain"); p.Strength != 55 {
		t.Fatalf("reinforced avoid strength = %d, want 55", p.Strength)
	}
}

func TestApplyFeedbackMinesAvoidTermsFromText(t *testing.T) {
	now := time.Now().UTC()
	fb := types.Feedback{Rating: types.RatingDown, TextFeedback: "too much red everywhere"}

	out := ApplyFeedback(nil, fb, neonPrompt(), now)
	p := findPref(out, types.CategoryAvoid, "red")
	if p == nil {
		t.Fatalf("expected mined avoid term red, got %v", out)
	}
	if p.Strength != 25 {
		t.Fatalf("mined term strength = %d, want 25", p.Strength)
	}
}

func TestApplyFeedbackDecaysAndPrunes(t *testing.T) {
	now := time.Now().UTC()
	stale := now.Add(-time.Hour)
	prefs := []*types.UserPreference{
		{Category: types.CategoryStyle, Value: "watercolor", Strength: 20, Source: types.SourceInferred, UpdatedAt: stale},
		{Category: types.CategoryStyle, Value: "sketch", Strength: 1, Source: types.SourceInferred, UpdatedAt: stale},
		{Category: types.CategoryStyle, Value: "pinned", Strength: 10, Source: types.SourceExplicit, UpdatedAt: stale},
	}
	fb := types.Feedback{Rating: types.RatingUp, LikedElements: []string{"prompt-0-el-1"}}

	out := ApplyFeedback(prefs, fb, neonPrompt(), now)

	if p := findPref(out, types.CategoryStyle, "watercolor"); p == nil || p.Strength != 19 {
		t.Fatalf("untouched inferred preference should decay by 1, got %+v", p)
	}
	if p := findPref(out, types.CategoryStyle, "sketch"); p != nil {
		t.Fatalf("preference at strength 0 should be pruned, got %+v", p)
	}
	if p := findPref(out, types.CategoryStyle, "pinned"); p == nil || p.Strength != 10 {
		t.Fatalf("explicit preference must not decay, got %+v", p)
	}
}

func feedbackEvent(rating string, prompt types.GeneratedPrompt) *types.FeedbackEvent {
	raw, _ := json.Marshal(prompt)
	return &types.FeedbackEvent{
		Rating:         rating,
		PromptSnapshot: datatypes.JSON(raw),
	}
}

func TestLearnPatternsThreshold(t *testing.T) {
	prompt := neonPrompt()

	history := []*types.FeedbackEvent{
		feedbackEvent(types.RatingUp, prompt),
		feedbackEvent(types.RatingUp, prompt),
	}
	if out := LearnPatterns(history, nil); len(out) != 0 {
		t.Fatalf("2 observations must not materialize a pattern, got %d", len(out))
	}

	history = append(history, feedbackEvent(types.RatingDown, prompt))
	out := LearnPatterns(history, nil)
	if len(out) == 0 {
		t.Fatalf("3 observations should materialize patterns")
	}
	for _, p := range out {
		if p.SuccessCount != 2 || p.FailureCount != 1 {
			t.Fatalf("pattern %q counts = %d/%d, want 2/1", p.Value, p.SuccessCount, p.FailureCount)
		}
		want := 2.0 / 3.0
		if diff := p.Confidence - want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("pattern %q confidence = %f, want %f", p.Value, p.Confidence, want)
		}
	}
}

func TestLearnPatternsKeepsExistingIdentity(t *testing.T) {
	prompt := neonPrompt()
	history := []*types.FeedbackEvent{
		feedbackEvent(types.RatingUp, prompt),
		feedbackEvent(types.RatingUp, prompt),
		feedbackEvent(types.RatingUp, prompt),
	}
	first := LearnPatterns(history, nil)
	if len(first) == 0 {
		t.Fatalf("expected patterns from 3 observations")
	}
	byValue := map[string]*types.PromptPattern{}
	for _, p := range first {
		byValue[p.Value] = p
	}
	for _, p := range LearnPatterns(history, first) {
		if prev, ok := byValue[p.Value]; !ok || prev.ID != p.ID {
			t.Fatalf("pattern identity for %q should be stable across passes", p.Value)
		}
	}
}

func TestMineAvoidTerms(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"too much red", []string{"red"}},
		{"don't like the fog here", []string{"the", "fog", "here"}},
		{"", nil},
		{"great image", nil},
	}
	for _, tc := range cases {
		got := mineAvoidTerms(tc.text)
		if len(got) != len(tc.want) {
			t.Fatalf("mineAvoidTerms(%q) = %v, want %v", tc.text, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("mineAvoidTerms(%q) = %v, want %v", tc.text, got, tc.want)
			}
		}
	}
}

func TestRecordFeedbackRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)

	prefRepo := repos.NewUserPreferenceRepo(db, logg)
	svc := NewLearningService(logg,
		prefRepo,
		repos.NewPromptPatternRepo(db, logg),
		repos.NewGenerationSessionRepo(db, logg),
		repos.NewDimensionCombinationRepo(db, logg),
		repos.NewStylePreferenceRepo(db, logg),
		repos.NewFeedbackEventRepo(db, logg),
	)

	fb := types.Feedback{Rating: types.RatingUp, LikedElements: []string{"prompt-0-el-1"}}
	prefs, err := svc.RecordFeedback(dbc, nil, neonPrompt(), fb)
	if err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}
	if findPref(prefs, types.CategoryStyle, "neon glow") == nil {
		t.Fatalf("expected learned preference in result")
	}

	stored, err := prefRepo.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		t.Fatalf("ListByProfile: %v", err)
	}
	if findPref(stored, types.CategoryStyle, "neon glow") == nil {
		t.Fatalf("expected learned preference persisted")
	}

	events, err := repos.NewFeedbackEventRepo(db, logg).ListRecent(dbc, types.DefaultProfileID, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("feedback events = %d, want 1", len(events))
	}
	if len(events[0].PromptSnapshot) == 0 {
		t.Fatalf("feedback event missing prompt snapshot")
	}
}

func TestLearnStylePreferences(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)

	styleRepo := repos.NewStylePreferenceRepo(db, logg)
	svc := NewLearningService(logg,
		repos.NewUserPreferenceRepo(db, logg),
		repos.NewPromptPatternRepo(db, logg),
		repos.NewGenerationSessionRepo(db, logg),
		repos.NewDimensionCombinationRepo(db, logg),
		styleRepo,
		repos.NewFeedbackEventRepo(db, logg),
	)

	if err := svc.LearnStylePreferences(dbc, neonPrompt(), types.RatingUp); err != nil {
		t.Fatalf("LearnStylePreferences: %v", err)
	}

	sp, err := styleRepo.Get(dbc, types.DefaultProfileID, "lighting", "neon")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sp == nil {
		t.Fatalf("expected lighting/neon style preference")
	}
	if sp.PositiveAssociations != 1 || sp.Strength != 100 {
		t.Fatalf("style pref = %+v, want 1 positive at strength 100", sp)
	}
}

func TestLearnStylePreferencesCategoryOrderIsStable(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)

	styleRepo := repos.NewStylePreferenceRepo(db, logg)
	svc := NewLearningService(logg,
		repos.NewUserPreferenceRepo(db, logg),
		repos.NewPromptPatternRepo(db, logg),
		repos.NewGenerationSessionRepo(db, logg),
		repos.NewDimensionCombinationRepo(db, logg),
		styleRepo,
		repos.NewFeedbackEventRepo(db, logg),
	)

	// "neon sketch" matches both lighting (neon) and rendering (sketch);
	// lighting comes first in the scan order, every run.
	prompt := types.GeneratedPrompt{
		ID:   "prompt-0",
		Text: "neon sketch",
		Elements: []types.PromptElement{
			{ID: "prompt-0-el-0", Category: "style", Text: "neon sketch"},
		},
	}
	for i := 0; i < 5; i++ {
		if err := svc.LearnStylePreferences(dbc, prompt, types.RatingUp); err != nil {
			t.Fatalf("LearnStylePreferences pass %d: %v", i, err)
		}
	}

	lighting, err := styleRepo.Get(dbc, types.DefaultProfileID, types.StyleCategoryLighting, "neon")
	if err != nil {
		t.Fatalf("Get lighting: %v", err)
	}
	if lighting == nil || lighting.PositiveAssociations != 5 {
		t.Fatalf("lighting/neon = %+v, want 5 positives", lighting)
	}
	rendering, err := styleRepo.Get(dbc, types.DefaultProfileID, types.StyleCategoryRendering, "sketch")
	if err != nil {
		t.Fatalf("Get rendering: %v", err)
	}
	if rendering != nil {
		t.Fatalf("rendering/sketch should never be mined for this element, got %+v", rendering)
	}
}

func TestLearnDimensionCombinationsKey(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)

	sessionRepo := repos.NewGenerationSessionRepo(db, logg)
	comboRepo := repos.NewDimensionCombinationRepo(db, logg)
	svc := NewLearningService(logg,
		repos.NewUserPreferenceRepo(db, logg),
		repos.NewPromptPatternRepo(db, logg),
		sessionRepo,
		comboRepo,
		repos.NewStylePreferenceRepo(db, logg),
		repos.NewFeedbackEventRepo(db, logg),
	)

	snaps, err := json.Marshal([]types.DimensionSnapshot{
		{Type: "style", Reference: "neon noir", Weight: 70},
		{Type: "mood", Reference: "rainy", Weight: 40},
	})
	if err != nil {
		t.Fatalf("marshal snapshots: %v", err)
	}
	now := time.Now().UTC()
	err = sessionRepo.Create(dbc, &types.GenerationSession{
		ID:                 uuid.New(),
		ProfileID:          types.DefaultProfileID,
		StartedAt:          now,
		OutputMode:         types.OutputModeImage,
		Successful:         true,
		DimensionsSnapshot: datatypes.JSON(snaps),
		CreatedAt:          now,
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	out, err := svc.LearnDimensionCombinations(dbc)
	if err != nil {
		t.Fatalf("LearnDimensionCombinations: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("combos = %d, want 1", len(out))
	}
	// Sorted types joined with the same separator the consumers split on.
	if out[0].Key != "mood|style" {
		t.Fatalf("combo key = %q, want mood|style", out[0].Key)
	}

	stored, err := comboRepo.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil || len(stored) != 1 || stored[0].Key != "mood|style" {
		t.Fatalf("stored combos = %+v %v, want single mood|style row", stored, err)
	}
}
