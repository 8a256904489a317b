package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studiostory/studiostory-backend/internal/data/repos"
	"github.com/studiostory/studiostory-backend/internal/data/repos/testutil"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
)

func TestExtractSuggestionFromTextOrder(t *testing.T) {
	cases := []struct {
		text       string
		action     string
		target     string
		confidence float64
	}{
		// "too much" outranks "remove" when both appear.
		{"too much red, remove the hat", types.SuggestionActionDeemphasize, "red", 0.9},
		{"more dramatic lighting please", types.SuggestionActionEmphasize, "dramatic lighting", 0.9},
		{"remove the hat", types.SuggestionActionRemove, "hat", 0.95},
		{"without fog", types.SuggestionActionRemove, "fog", 0.95},
	}
	for _, tc := range cases {
		got := ExtractSuggestionFromText(tc.text)
		if got == nil {
			t.Fatalf("ExtractSuggestionFromText(%q) = nil", tc.text)
		}
		if got.Action != tc.action || got.Target != tc.target {
			t.Fatalf("ExtractSuggestionFromText(%q) = %s %q, want %s %q",
				tc.text, got.Action, got.Target, tc.action, tc.target)
		}
		if got.Confidence != tc.confidence {
			t.Fatalf("ExtractSuggestionFromText(%q) confidence = %f, want %f",
				tc.text, got.Confidence, tc.confidence)
		}
	}

	if got := ExtractSuggestionFromText("looks great"); got != nil {
		t.Fatalf("expected nil for non-actionable text, got %+v", got)
	}
}

func seedPreference(t *testing.T, dbc dbctx.Context, repo repos.UserPreferenceRepo, category, value string, strength int) {
	t.Helper()
	existing, err := repo.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		t.Fatalf("ListByProfile: %v", err)
	}
	now := time.Now().UTC()
	existing = append(existing, &types.UserPreference{
		ID:        uuid.New(),
		ProfileID: types.DefaultProfileID,
		Category:  category,
		Value:     value,
		Strength:  strength,
		Source:    types.SourceInferred,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err := repo.ReplaceAll(dbc, types.DefaultProfileID, existing); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
}

func newSuggestionFixture(t *testing.T) (SuggestionService, repos.UserPreferenceRepo, dbctx.Context) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)

	prefRepo := repos.NewUserPreferenceRepo(db, logg)
	svc := NewSuggestionService(logg,
		prefRepo,
		repos.NewPromptPatternRepo(db, logg),
		repos.NewFeedbackEventRepo(db, logg),
		repos.NewDimensionCombinationRepo(db, logg),
		repos.NewVariantStatRepo(db, logg),
		repos.NewSmartSuggestionRepo(db, logg),
		repos.NewGenerationSessionRepo(db, logg),
		nil,
	)
	return svc, prefRepo, dbc
}

func TestGenerateRefinementSuggestions(t *testing.T) {
	svc, prefRepo, dbc := newSuggestionFixture(t)

	seedPreference(t, dbc, prefRepo, types.CategoryAvoid, "fog", 50)
	seedPreference(t, dbc, prefRepo, types.CategoryStyle, "neon glow", 80)

	prompt := types.GeneratedPrompt{ID: "prompt-0", Text: "a castle in fog"}
	out, err := svc.GenerateRefinementSuggestions(dbc, prompt)
	if err != nil {
		t.Fatalf("GenerateRefinementSuggestions: %v", err)
	}

	var sawRemove, sawEmphasize bool
	for _, sg := range out {
		if sg.Action == types.SuggestionActionRemove && sg.Target == "fog" {
			sawRemove = true
		}
		if sg.Action == types.SuggestionActionEmphasize && sg.Target == "neon glow" {
			sawEmphasize = true
		}
	}
	if !sawRemove {
		t.Fatalf("expected remove suggestion for fog, got %+v", out)
	}
	if !sawEmphasize {
		t.Fatalf("expected emphasize suggestion for neon glow, got %+v", out)
	}
	if len(out) > 5 {
		t.Fatalf("suggestions = %d, want at most 5", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Confidence > out[i-1].Confidence {
			t.Fatalf("suggestions not sorted by confidence: %+v", out)
		}
	}
}

func TestGenerateRefinementSuggestionsAIFallsBackLocal(t *testing.T) {
	svc, prefRepo, dbc := newSuggestionFixture(t)
	seedPreference(t, dbc, prefRepo, types.CategoryAvoid, "fog", 50)

	prompt := types.GeneratedPrompt{ID: "prompt-0", Text: "a castle in fog"}
	out := svc.GenerateRefinementSuggestionsAI(context.Background(), dbc, prompt)
	if len(out) == 0 {
		t.Fatalf("AI path must degrade to local suggestions, got none")
	}
}

func TestGenerateABVariants(t *testing.T) {
	svc, prefRepo, dbc := newSuggestionFixture(t)

	prompt := types.GeneratedPrompt{ID: "prompt-0", Text: "a castle in fog"}

	// With no learned state only the control exists.
	out, err := svc.GenerateABVariants(dbc, prompt)
	if err != nil {
		t.Fatalf("GenerateABVariants: %v", err)
	}
	if len(out) != 1 || out[0].Label != "A" || out[0].Prompt != prompt.Text {
		t.Fatalf("expected control variant only, got %+v", out)
	}

	seedPreference(t, dbc, prefRepo, types.CategoryStyle, "neon glow", 80)
	seedPreference(t, dbc, prefRepo, types.CategoryAvoid, "fog", 50)

	out, err = svc.GenerateABVariants(dbc, prompt)
	if err != nil {
		t.Fatalf("GenerateABVariants: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected A, B and C variants, got %+v", out)
	}
	if out[1].Label != "B" || out[1].Prompt == prompt.Text {
		t.Fatalf("variant B should extend the prompt, got %+v", out[1])
	}
	if out[2].Label != "C" || out[2].Prompt == prompt.Text {
		t.Fatalf("variant C should strip avoided terms, got %+v", out[2])
	}
}

func TestAnalyzeTextSentiment(t *testing.T) {
	svc, _, _ := newSuggestionFixture(t)

	if got := svc.AnalyzeTextSentiment("love the lighting, beautiful colors"); got.Sentiment != types.SentimentPositive {
		t.Fatalf("sentiment = %s, want positive", got.Sentiment)
	}
	neg := svc.AnalyzeTextSentiment("hate this, too much red")
	if neg.Sentiment != types.SentimentNegative {
		t.Fatalf("sentiment = %s, want negative", neg.Sentiment)
	}
	if len(neg.SuggestedActions) == 0 {
		t.Fatalf("negative sentiment with actionable phrase should suggest actions")
	}
	if got := svc.AnalyzeTextSentiment("a castle on a hill"); got.Sentiment != types.SentimentNeutral {
		t.Fatalf("sentiment = %s, want neutral", got.Sentiment)
	}
}

func TestRecordVariantResult(t *testing.T) {
	svc, _, dbc := newSuggestionFixture(t)

	stat, err := svc.RecordVariantResult(dbc, "B", true)
	if err != nil {
		t.Fatalf("RecordVariantResult: %v", err)
	}
	if stat.Impressions != 1 || stat.PositiveRatings != 1 || stat.ConversionRate != 1 {
		t.Fatalf("stat = %+v, want 1/1 conversion 1", stat)
	}

	stat, err = svc.RecordVariantResult(dbc, "B", false)
	if err != nil {
		t.Fatalf("RecordVariantResult: %v", err)
	}
	if stat.Impressions != 2 || stat.PositiveRatings != 1 || stat.ConversionRate != 0.5 {
		t.Fatalf("stat = %+v, want 2 impressions conversion 0.5", stat)
	}
}

func TestGenerateSmartSuggestions(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)

	comboRepo := repos.NewDimensionCombinationRepo(db, logg)
	sessionRepo := repos.NewGenerationSessionRepo(db, logg)
	svc := NewSuggestionService(logg,
		repos.NewUserPreferenceRepo(db, logg),
		repos.NewPromptPatternRepo(db, logg),
		repos.NewFeedbackEventRepo(db, logg),
		comboRepo,
		repos.NewVariantStatRepo(db, logg),
		repos.NewSmartSuggestionRepo(db, logg),
		sessionRepo,
		nil,
	)

	out, err := svc.GenerateSmartSuggestions(dbc)
	if err != nil {
		t.Fatalf("GenerateSmartSuggestions: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("fresh profile should have no smart suggestions, got %+v", out)
	}

	now := time.Now().UTC()
	err = comboRepo.UpsertByKey(dbc, &types.DimensionCombinationPattern{
		ID:                   uuid.New(),
		ProfileID:            types.DefaultProfileID,
		Key:                  "mood|style",
		UsageCount:           3,
		SuccessRate:          0.75,
		AvgSuccessfulWeights: datatypes.JSON(`{"style":70,"mood":40}`),
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		t.Fatalf("UpsertByKey: %v", err)
	}
	for i := 0; i < 2; i++ {
		err := sessionRepo.Create(dbc, &types.GenerationSession{
			ID:         uuid.New(),
			ProfileID:  types.DefaultProfileID,
			StartedAt:  now,
			OutputMode: types.OutputModeImage,
			Successful: true,
			CreatedAt:  now,
		})
		if err != nil {
			t.Fatalf("seed session %d: %v", i, err)
		}
	}

	out, err = svc.GenerateSmartSuggestions(dbc)
	if err != nil {
		t.Fatalf("GenerateSmartSuggestions: %v", err)
	}
	byType := map[string]*types.SmartSuggestion{}
	for _, sg := range out {
		byType[sg.Type] = sg
	}
	if byType[types.SuggestionTypeDimension] == nil {
		t.Fatalf("missing dimension suggestion: %+v", out)
	}
	if byType[types.SuggestionTypeWeight] == nil {
		t.Fatalf("missing weight suggestion: %+v", out)
	}
	mode := byType[types.SuggestionTypeOutputMode]
	if mode == nil || !strings.Contains(mode.Suggestion, types.OutputModeImage) {
		t.Fatalf("missing output mode suggestion: %+v", out)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Confidence > out[i-1].Confidence {
			t.Fatalf("smart suggestions not sorted by confidence: %+v", out)
		}
	}

	// Persisted only once shown; accepted flag rides on the stored row.
	shown := byType[types.SuggestionTypeDimension]
	if err := svc.MarkSuggestionShown(dbc, shown); err != nil {
		t.Fatalf("MarkSuggestionShown: %v", err)
	}
	if err := svc.MarkSuggestionAccepted(dbc, shown.ID, true); err != nil {
		t.Fatalf("MarkSuggestionAccepted: %v", err)
	}
	stored, err := svc.ListShownSuggestions(dbc, 10)
	if err != nil {
		t.Fatalf("ListShownSuggestions: %v", err)
	}
	if len(stored) != 1 || !stored[0].Shown {
		t.Fatalf("stored suggestions = %+v, want single shown row", stored)
	}
	if stored[0].Accepted == nil || !*stored[0].Accepted {
		t.Fatalf("accepted flag not recorded: %+v", stored[0])
	}
}

// stubTextgen returns a canned JSON reply for GenerateJSON.
type stubTextgen struct {
	reply string
	err   error
}

func (s *stubTextgen) GenerateText(context.Context, string, string) (string, error) {
	return s.reply, s.err
}

func (s *stubTextgen) GenerateJSON(_ context.Context, _ string, _ string, out any) error {
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.reply), out)
}

func TestGenerateRefinementSuggestionsAIModelWinsDedup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)

	prefRepo := repos.NewUserPreferenceRepo(db, logg)
	stub := &stubTextgen{reply: `[{"action":"remove","target":"fog","reason":"model pass","confidence":0.99}]`}
	svc := NewSuggestionService(logg,
		prefRepo,
		repos.NewPromptPatternRepo(db, logg),
		repos.NewFeedbackEventRepo(db, logg),
		repos.NewDimensionCombinationRepo(db, logg),
		repos.NewVariantStatRepo(db, logg),
		repos.NewSmartSuggestionRepo(db, logg),
		repos.NewGenerationSessionRepo(db, logg),
		stub,
	)

	// The local pass also produces remove:fog for this prompt.
	seedPreference(t, dbc, prefRepo, types.CategoryAvoid, "fog", 50)

	out := svc.GenerateRefinementSuggestionsAI(context.Background(), dbc, types.GeneratedPrompt{ID: "prompt-0", Text: "a castle in fog"})
	var removeFog *types.RefinementSuggestion
	for i := range out {
		if out[i].Action == types.SuggestionActionRemove && out[i].Target == "fog" {
			if removeFog != nil {
				t.Fatalf("duplicate remove:fog survived dedup: %+v", out)
			}
			removeFog = &out[i]
		}
	}
	if removeFog == nil {
		t.Fatalf("remove:fog missing from merge: %+v", out)
	}
	if removeFog.Reason != "model pass" || removeFog.Confidence != 0.99 {
		t.Fatalf("local suggestion shadowed the model's: %+v", removeFog)
	}
}

func TestAnalyzeTextSentimentKeywordsByFrequency(t *testing.T) {
	svc, _, _ := newSuggestionFixture(t)

	got := svc.AnalyzeTextSentiment("tower gate tower castle tower castle gate moat window door arch")
	// tower appears three times, gate and castle twice; gate was mentioned
	// first so it wins the tie.
	want := []string{"tower", "gate", "castle", "moat", "window"}
	if len(got.Keywords) != len(want) {
		t.Fatalf("keywords = %v, want %v", got.Keywords, want)
	}
	for i := range want {
		if got.Keywords[i] != want[i] {
			t.Fatalf("keywords = %v, want %v", got.Keywords, want)
		}
	}
}
