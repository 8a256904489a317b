package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studiostory/studiostory-backend/internal/data/repos"
	"github.com/studiostory/studiostory-backend/internal/data/repos/testutil"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
)

func newScoringFixture(t *testing.T) (ScoringService, scoringFixtureRepos, dbctx.Context) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	logg := testutil.Logger(t)
	testutil.SeedProfile(t, dbc.Ctx, tx, types.DefaultProfileID)

	r := scoringFixtureRepos{
		preferences:  repos.NewUserPreferenceRepo(db, logg),
		patterns:     repos.NewPromptPatternRepo(db, logg),
		combinations: repos.NewDimensionCombinationRepo(db, logg),
		feedback:     repos.NewFeedbackEventRepo(db, logg),
		sessions:     repos.NewGenerationSessionRepo(db, logg),
	}
	svc := NewScoringService(logg, r.preferences, r.patterns, r.combinations, r.feedback, r.sessions)
	return svc, r, dbc
}

type scoringFixtureRepos struct {
	preferences  repos.UserPreferenceRepo
	patterns     repos.PromptPatternRepo
	combinations repos.DimensionCombinationRepo
	feedback     repos.FeedbackEventRepo
	sessions     repos.GenerationSessionRepo
}

func TestScorePromptAgainst(t *testing.T) {
	learned := &types.LearnedContext{
		AvoidElements:     []string{"fog"},
		EmphasizeElements: []string{"neon glow"},
		Patterns: []*types.PromptPattern{
			{Value: "style:neon glow", Confidence: 0.8},
			{Value: "mood:gloomy", Confidence: 0.2},
		},
	}

	cases := []struct {
		text string
		want float64
	}{
		// neutral baseline
		{"a castle on a hill", 50},
		// -15 avoid hit
		{"a castle in fog", 35},
		// +10 emphasize, +0.8*10 winning pattern
		{"a street with neon glow", 68},
		// -(1-0.2)*10 losing pattern
		{"a gloomy alley", 42},
	}
	for _, tc := range cases {
		got := ScorePromptAgainst(types.GeneratedPrompt{Text: tc.text}, learned)
		if got != tc.want {
			t.Fatalf("ScorePromptAgainst(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestScorePromptAgainstClamps(t *testing.T) {
	learned := &types.LearnedContext{
		AvoidElements: []string{"fog", "rain", "mud", "haze"},
	}
	got := ScorePromptAgainst(types.GeneratedPrompt{Text: "fog rain mud haze"}, learned)
	if got != 0 {
		t.Fatalf("score = %v, want clamp at 0", got)
	}

	learned = &types.LearnedContext{
		EmphasizeElements: []string{"neon", "glow", "chrome", "rain", "steam", "signs"},
	}
	got = ScorePromptAgainst(types.GeneratedPrompt{Text: "neon glow chrome rain steam signs"}, learned)
	if got != 100 {
		t.Fatalf("score = %v, want clamp at 100", got)
	}
}

func seedFeedbackEvents(t *testing.T, dbc dbctx.Context, repo repos.FeedbackEventRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := repo.Create(dbc, &types.FeedbackEvent{
			ID:        uuid.New(),
			ProfileID: types.DefaultProfileID,
			PromptID:  "prompt-0",
			Rating:    types.RatingUp,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seed feedback %d: %v", i, err)
		}
	}
}

func TestLearningReadinessGate(t *testing.T) {
	svc, r, dbc := newScoringFixture(t)

	ready, err := svc.IsLearningReady(dbc)
	if err != nil {
		t.Fatalf("IsLearningReady: %v", err)
	}
	if ready {
		t.Fatalf("fresh profile must not be ready")
	}

	seedFeedbackEvents(t, dbc, r.feedback, 4)
	if ready, _ = svc.IsLearningReady(dbc); ready {
		t.Fatalf("4 feedback events must not trip the gate")
	}

	seedFeedbackEvents(t, dbc, r.feedback, 1)
	if ready, _ = svc.IsLearningReady(dbc); !ready {
		t.Fatalf("5 feedback events must trip the gate")
	}
}

func TestLearningReadinessViaSessions(t *testing.T) {
	svc, r, dbc := newScoringFixture(t)

	for i := 0; i < 3; i++ {
		err := r.sessions.Create(dbc, &types.GenerationSession{
			ID:         uuid.New(),
			ProfileID:  types.DefaultProfileID,
			StartedAt:  time.Now().UTC(),
			OutputMode: types.OutputModeImage,
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seed session %d: %v", i, err)
		}
	}

	status, err := svc.GetLearningStatus(dbc)
	if err != nil {
		t.Fatalf("GetLearningStatus: %v", err)
	}
	if status.FeedbackCount != 0 || status.SessionCount != 3 {
		t.Fatalf("status counts = %+v", status)
	}
	if !status.Ready {
		t.Fatalf("3 sessions must trip the gate on their own")
	}
}

func TestBuildLearnedContextThresholds(t *testing.T) {
	svc, r, dbc := newScoringFixture(t)

	now := time.Now().UTC()
	prefs := []*types.UserPreference{
		{ID: uuid.New(), ProfileID: types.DefaultProfileID, Category: types.CategoryAvoid, Value: "fog", Strength: 30, Source: types.SourceInferred, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), ProfileID: types.DefaultProfileID, Category: types.CategoryAvoid, Value: "mud", Strength: 29, Source: types.SourceInferred, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), ProfileID: types.DefaultProfileID, Category: types.CategoryStyle, Value: "neon glow", Strength: 60, Source: types.SourceInferred, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), ProfileID: types.DefaultProfileID, Category: types.CategoryStyle, Value: "sketch", Strength: 59, Source: types.SourceInferred, CreatedAt: now, UpdatedAt: now},
	}
	if err := r.preferences.ReplaceAll(dbc, types.DefaultProfileID, prefs); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	combo := &types.DimensionCombinationPattern{
		ID:                   uuid.New(),
		ProfileID:            types.DefaultProfileID,
		Key:                  "mood|style",
		UsageCount:           2,
		AvgSuccessfulWeights: datatypes.JSON(`{"style":70,"mood":40}`),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := r.combinations.UpsertByKey(dbc, combo); err != nil {
		t.Fatalf("UpsertByKey: %v", err)
	}

	learned, err := svc.BuildLearnedContext(dbc)
	if err != nil {
		t.Fatalf("BuildLearnedContext: %v", err)
	}
	if len(learned.AvoidElements) != 1 || learned.AvoidElements[0] != "fog" {
		t.Fatalf("avoid elements = %v, want [fog]", learned.AvoidElements)
	}
	if len(learned.EmphasizeElements) != 1 || learned.EmphasizeElements[0] != "neon glow" {
		t.Fatalf("emphasize elements = %v, want [neon glow]", learned.EmphasizeElements)
	}
	if learned.DimensionAdjustments["style"] != 70 || learned.DimensionAdjustments["mood"] != 40 {
		t.Fatalf("dimension adjustments = %v", learned.DimensionAdjustments)
	}
}
