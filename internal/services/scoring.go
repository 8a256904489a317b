package services

import (
	"encoding/json"
	"strings"

	"github.com/studiostory/studiostory-backend/internal/data/repos"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

const (
	// Readiness gate: learned output is surfaced once either threshold is met.
	minFeedbackForReadiness = 5
	minSessionsForReadiness = 3

	contextAvoidStrength     = 30
	contextEmphasizeStrength = 60
)

// ScoringService aggregates learned state into a consumable context and
// scores candidate prompts against it.
type ScoringService interface {
	BuildLearnedContext(dbc dbctx.Context) (*types.LearnedContext, error)
	ScorePrompt(dbc dbctx.Context, prompt types.GeneratedPrompt) (float64, error)
	GetLearningStatus(dbc dbctx.Context) (*types.LearningStatus, error)
	IsLearningReady(dbc dbctx.Context) (bool, error)
}

type scoringService struct {
	log          *logger.Logger
	preferences  repos.UserPreferenceRepo
	patterns     repos.PromptPatternRepo
	combinations repos.DimensionCombinationRepo
	feedback     repos.FeedbackEventRepo
	sessions     repos.GenerationSessionRepo
}

func NewScoringService(
	baseLog *logger.Logger,
	preferences repos.UserPreferenceRepo,
	patterns repos.PromptPatternRepo,
	combinations repos.DimensionCombinationRepo,
	feedback repos.FeedbackEventRepo,
	sessions repos.GenerationSessionRepo,
) ScoringService {
	return &scoringService{
		log:          baseLog.With("service", "ScoringService"),
		preferences:  preferences,
		patterns:     patterns,
		combinations: combinations,
		feedback:     feedback,
		sessions:     sessions,
	}
}

func (s *scoringService) BuildLearnedContext(dbc dbctx.Context) (*types.LearnedContext, error) {
	prefs, err := s.preferences.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	patterns, err := s.patterns.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	combos, err := s.combinations.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}

	ctx := &types.LearnedContext{
		Preferences:          prefs,
		Patterns:             patterns,
		AvoidElements:        []string{},
		EmphasizeElements:    []string{},
		DimensionAdjustments: map[string]float64{},
	}

	for _, p := range prefs {
		switch {
		case p.Category == types.CategoryAvoid && p.Strength >= contextAvoidStrength:
			ctx.AvoidElements = append(ctx.AvoidElements, p.Value)
		case p.Category != types.CategoryAvoid && p.Strength >= contextEmphasizeStrength:
			ctx.EmphasizeElements = append(ctx.EmphasizeElements, p.Value)
		}
	}

	// Dimension adjustments come from the most-used successful combination.
	for _, combo := range combos {
		if len(combo.AvgSuccessfulWeights) == 0 {
			continue
		}
		weights := map[string]float64{}
		if err := json.Unmarshal(combo.AvgSuccessfulWeights, &weights); err != nil {
			continue
		}
		for dim, w := range weights {
			if _, taken := ctx.DimensionAdjustments[dim]; !taken {
				ctx.DimensionAdjustments[dim] = w
			}
		}
		break
	}

	return ctx, nil
}

// ScorePrompt returns a score in [0,100], starting from a neutral 50.
// Matching emphasize elements and winning patterns raise it; avoid elements
// lower it.
func (s *scoringService) ScorePrompt(dbc dbctx.Context, prompt types.GeneratedPrompt) (float64, error) {
	learned, err := s.BuildLearnedContext(dbc)
	if err != nil {
		return 0, err
	}
	return ScorePromptAgainst(prompt, learned), nil
}

func ScorePromptAgainst(prompt types.GeneratedPrompt, learned *types.LearnedContext) float64 {
	score := 50.0
	lowered := strings.ToLower(prompt.Text)

	for _, avoid := range learned.AvoidElements {
		if strings.Contains(lowered, strings.ToLower(avoid)) {
			score -= 15
		}
	}
	for _, emph := range learned.EmphasizeElements {
		if strings.Contains(lowered, strings.ToLower(emph)) {
			score += 10
		}
	}
	for _, pat := range learned.Patterns {
		_, text, ok := strings.Cut(pat.Value, ":")
		if !ok || text == "" {
			continue
		}
		if strings.Contains(lowered, text) {
			if pat.Confidence >= 0.5 {
				score += pat.Confidence * 10
			} else {
				score -= (1 - pat.Confidence) * 10
			}
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (s *scoringService) GetLearningStatus(dbc dbctx.Context) (*types.LearningStatus, error) {
	feedbackCount, err := s.feedback.CountByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	sessionCount, err := s.sessions.CountByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	prefCount, err := s.preferences.CountByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	patternCount, err := s.patterns.CountByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}

	return &types.LearningStatus{
		FeedbackCount:   int(feedbackCount),
		SessionCount:    int(sessionCount),
		PreferenceCount: int(prefCount),
		PatternCount:    int(patternCount),
		Ready:           feedbackCount >= minFeedbackForReadiness || sessionCount >= minSessionsForReadiness,
	}, nil
}

func (s *scoringService) IsLearningReady(dbc dbctx.Context) (bool, error) {
	status, err := s.GetLearningStatus(dbc)
	if err != nil {
		return false, err
	}
	return status.Ready, nil
}
