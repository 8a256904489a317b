package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studiostory/studiostory-backend/internal/clients/textgen"
	"github.com/studiostory/studiostory-backend/internal/data/repos"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

const (
	maxRefinementSuggestions = 5

	avoidSuggestionStrength     = 30
	emphasizeSuggestionStrength = 60
	patternSuggestionConfidence = 0.7
)

// SuggestionService derives prompt refinements, explanations and A/B variants
// from learned state. Everything works without a remote model; the AI path is
// an optional merge layer on top of the local heuristics.
type SuggestionService interface {
	GenerateRefinementSuggestions(dbc dbctx.Context, prompt types.GeneratedPrompt) ([]types.RefinementSuggestion, error)
	// GenerateRefinementSuggestionsAI merges model-proposed refinements with
	// the local heuristics. It never fails: any model error degrades to the
	// local-only result.
	GenerateRefinementSuggestionsAI(ctx context.Context, dbc dbctx.Context, prompt types.GeneratedPrompt) []types.RefinementSuggestion
	GeneratePromptExplanation(dbc dbctx.Context, prompt types.GeneratedPrompt) (*types.PromptExplanation, error)
	GenerateABVariants(dbc dbctx.Context, prompt types.GeneratedPrompt) ([]types.PromptVariant, error)
	RecordVariantResult(dbc dbctx.Context, variantLabel string, positive bool) (*types.VariantStat, error)
	AnalyzeTextSentiment(text string) types.SentimentResult
	// GenerateSmartSuggestions recomputes dimension, weight and output-mode
	// recommendations from learned state. Nothing is persisted until a
	// suggestion is marked shown.
	GenerateSmartSuggestions(dbc dbctx.Context) ([]*types.SmartSuggestion, error)
	MarkSuggestionShown(dbc dbctx.Context, suggestion *types.SmartSuggestion) error
	MarkSuggestionAccepted(dbc dbctx.Context, id uuid.UUID, accepted bool) error
	ListShownSuggestions(dbc dbctx.Context, limit int) ([]*types.SmartSuggestion, error)
}

type suggestionService struct {
	log          *logger.Logger
	preferences  repos.UserPreferenceRepo
	patterns     repos.PromptPatternRepo
	feedback     repos.FeedbackEventRepo
	combinations repos.DimensionCombinationRepo
	variants     repos.VariantStatRepo
	smart        repos.SmartSuggestionRepo
	sessions     repos.GenerationSessionRepo
	text         textgen.Client
}

func NewSuggestionService(
	baseLog *logger.Logger,
	preferences repos.UserPreferenceRepo,
	patterns repos.PromptPatternRepo,
	feedback repos.FeedbackEventRepo,
	combinations repos.DimensionCombinationRepo,
	variants repos.VariantStatRepo,
	smart repos.SmartSuggestionRepo,
	sessions repos.GenerationSessionRepo,
	text textgen.Client,
) SuggestionService {
	return &suggestionService{
		log:          baseLog.With("service", "SuggestionService"),
		preferences:  preferences,
		patterns:     patterns,
		feedback:     feedback,
		combinations: combinations,
		variants:     variants,
		smart:        smart,
		sessions:     sessions,
		text:         text,
	}
}

func (s *suggestionService) GenerateRefinementSuggestions(dbc dbctx.Context, prompt types.GeneratedPrompt) ([]types.RefinementSuggestion, error) {
	prefs, err := s.preferences.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	patterns, err := s.patterns.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	recentNegative, err := s.feedback.ListRecentNegative(dbc, types.DefaultProfileID, 3)
	if err != nil {
		return nil, err
	}
	combos, err := s.combinations.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}

	lowered := strings.ToLower(prompt.Text)
	out := []types.RefinementSuggestion{}
	seen := map[string]bool{}
	add := func(sg types.RefinementSuggestion) {
		key := sg.Action + ":" + strings.ToLower(sg.Target)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, sg)
	}

	// Source 1: avoid preferences that still appear in the prompt.
	for _, p := range prefs {
		if p.Category != types.CategoryAvoid || p.Strength < avoidSuggestionStrength {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(p.Value)) {
			add(types.RefinementSuggestion{
				Action:     types.SuggestionActionRemove,
				Target:     p.Value,
				Reason:     fmt.Sprintf("You have disliked %q before", p.Value),
				Confidence: 0.8,
			})
		}
	}

	// Source 2: strong liked preferences absent from the prompt.
	for _, p := range prefs {
		if p.Category == types.CategoryAvoid || p.Strength < emphasizeSuggestionStrength {
			continue
		}
		if !strings.Contains(lowered, strings.ToLower(p.Value)) {
			add(types.RefinementSuggestion{
				Action:     types.SuggestionActionEmphasize,
				Target:     p.Value,
				Reason:     fmt.Sprintf("%q has worked well for you (%s)", p.Value, p.Category),
				Confidence: 0.7,
			})
		}
	}

	// Source 3: high-confidence winning patterns not represented yet.
	for _, pat := range patterns {
		if pat.Confidence < patternSuggestionConfidence || pat.SuccessCount <= pat.FailureCount {
			continue
		}
		_, text, ok := strings.Cut(pat.Value, ":")
		if !ok || text == "" {
			continue
		}
		if !strings.Contains(lowered, text) {
			add(types.RefinementSuggestion{
				Action:     types.SuggestionActionAdd,
				Target:     text,
				Reason:     fmt.Sprintf("%q succeeded in %d of %d prompts", text, pat.SuccessCount, pat.SuccessCount+pat.FailureCount),
				Confidence: pat.Confidence,
			})
		}
	}

	// Source 4: actionable phrases mined from the latest negative feedback.
	for _, fb := range recentNegative {
		if sg := ExtractSuggestionFromText(fb.TextFeedback); sg != nil {
			add(*sg)
		}
	}

	// Source 5: dimension weight nudges from successful combinations.
	for _, combo := range combos {
		if combo.UsageCount < 2 {
			continue
		}
		add(types.RefinementSuggestion{
			Action:     types.SuggestionActionAdjustWeight,
			Target:     combo.Key,
			Reason:     fmt.Sprintf("This dimension mix succeeded in %d sessions", combo.UsageCount),
			Confidence: 0.6,
		})
		break
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > maxRefinementSuggestions {
		out = out[:maxRefinementSuggestions]
	}
	return out, nil
}

var (
	tooMuchRe = regexp.MustCompile(`too much (\w+(?:\s\w+)?)`)
	moreRe    = regexp.MustCompile(`more (\w+(?:\s\w+)?)`)
	removeRe  = regexp.MustCompile(`(?:remove|no|without) (?:the )?(\w+(?:\s\w+)?)`)
)

// ExtractSuggestionFromText parses free-form feedback into a single
// refinement. Phrase checks run in a fixed order and the first match wins, so
// "too much red, remove the hat" yields the deemphasize and never the remove.
func ExtractSuggestionFromText(text string) *types.RefinementSuggestion {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return nil
	}
	if m := tooMuchRe.FindStringSubmatch(lowered); m != nil {
		return &types.RefinementSuggestion{
			Action:     types.SuggestionActionDeemphasize,
			Target:     m[1],
			Reason:     "You said there was too much of this",
			Confidence: 0.9,
		}
	}
	if m := moreRe.FindStringSubmatch(lowered); m != nil {
		return &types.RefinementSuggestion{
			Action:     types.SuggestionActionEmphasize,
			Target:     m[1],
			Reason:     "You asked for more of this",
			Confidence: 0.9,
		}
	}
	if m := removeRe.FindStringSubmatch(lowered); m != nil {
		return &types.RefinementSuggestion{
			Action:     types.SuggestionActionRemove,
			Target:     m[1],
			Reason:     "You asked for this to be removed",
			Confidence: 0.95,
		}
	}
	return nil
}

func (s *suggestionService) GenerateRefinementSuggestionsAI(ctx context.Context, dbc dbctx.Context, prompt types.GeneratedPrompt) []types.RefinementSuggestion {
	local, err := s.GenerateRefinementSuggestions(dbc, prompt)
	if err != nil {
		s.log.Warn("Local suggestion pass failed", "error", err)
		local = []types.RefinementSuggestion{}
	}
	if s.text == nil {
		return local
	}

	var remote []types.RefinementSuggestion
	system := "You refine image-generation prompts. Given a prompt, propose up to 3 small refinements as a JSON array of {action, target, reason, confidence} where action is one of add, remove, emphasize, deemphasize."
	if err := s.text.GenerateJSON(ctx, system, "Prompt: "+prompt.Text, &remote); err != nil {
		s.log.Debug("Model suggestion pass unavailable", "error", err)
		return local
	}

	// Model suggestions take precedence in the dedup: first occurrence wins,
	// so a remote refinement shadows the local one for the same action:target.
	seen := map[string]bool{}
	merged := []types.RefinementSuggestion{}
	for _, sg := range append(remote, local...) {
		sg.Target = strings.TrimSpace(sg.Target)
		if sg.Target == "" || !validSuggestionAction(sg.Action) {
			continue
		}
		key := sg.Action + ":" + strings.ToLower(sg.Target)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, sg)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Confidence > merged[j].Confidence })
	if len(merged) > maxRefinementSuggestions {
		merged = merged[:maxRefinementSuggestions]
	}
	return merged
}

func validSuggestionAction(action string) bool {
	switch action {
	case types.SuggestionActionAdd, types.SuggestionActionRemove,
		types.SuggestionActionEmphasize, types.SuggestionActionDeemphasize,
		types.SuggestionActionAdjustWeight:
		return true
	}
	return false
}

func (s *suggestionService) GeneratePromptExplanation(dbc dbctx.Context, prompt types.GeneratedPrompt) (*types.PromptExplanation, error) {
	prefs, err := s.preferences.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	patterns, err := s.patterns.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}

	influenced := 0
	elements := make([]types.ElementExplanation, 0, len(prompt.Elements))
	for _, el := range prompt.Elements {
		exp := types.ElementExplanation{
			ElementID: el.ID,
			Text:      el.Text,
			Category:  el.Category,
		}
		for _, p := range prefs {
			if strings.EqualFold(p.Value, el.Text) {
				if p.Category == types.CategoryAvoid {
					exp.Influences = append(exp.Influences,
						fmt.Sprintf("conflicts with learned aversion (strength %d)", p.Strength))
				} else {
					exp.Influences = append(exp.Influences,
						fmt.Sprintf("matches learned %s preference (strength %d)", p.Category, p.Strength))
				}
			}
		}
		loweredText := strings.ToLower(el.Text)
		for _, pat := range patterns {
			_, patText, ok := strings.Cut(pat.Value, ":")
			if !ok {
				continue
			}
			if strings.Contains(loweredText, patText) || strings.Contains(patText, loweredText) {
				exp.RelatedPatterns = append(exp.RelatedPatterns, pat.Value)
			}
		}
		if len(exp.Influences) > 0 || len(exp.RelatedPatterns) > 0 {
			influenced++
		}
		elements = append(elements, exp)
	}

	summary := "No learned influences apply to this prompt yet."
	if influenced > 0 {
		summary = fmt.Sprintf("%d of %d prompt elements reflect learned preferences or patterns.",
			influenced, len(prompt.Elements))
	}
	return &types.PromptExplanation{Elements: elements, Summary: summary}, nil
}

const maxVariantEmphasis = 2

func (s *suggestionService) GenerateABVariants(dbc dbctx.Context, prompt types.GeneratedPrompt) ([]types.PromptVariant, error) {
	prefs, err := s.preferences.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}

	variants := []types.PromptVariant{
		{Label: "A", Prompt: prompt.Text, Description: "Original prompt"},
	}

	// Variant B appends the strongest liked preferences not already present.
	lowered := strings.ToLower(prompt.Text)
	appended := []string{}
	for _, p := range prefs {
		if len(appended) >= maxVariantEmphasis {
			break
		}
		if p.Category == types.CategoryAvoid || p.Strength < emphasizeSuggestionStrength {
			continue
		}
		if !strings.Contains(lowered, strings.ToLower(p.Value)) {
			appended = append(appended, p.Value)
		}
	}
	if len(appended) > 0 {
		variants = append(variants, types.PromptVariant{
			Label:       "B",
			Prompt:      prompt.Text + ", " + strings.Join(appended, ", "),
			Description: "Emphasizes your strongest learned preferences",
		})
	}

	// Variant C strips learned avoid terms; only emitted when it differs.
	stripped := prompt.Text
	for _, p := range prefs {
		if p.Category != types.CategoryAvoid || p.Strength < avoidSuggestionStrength {
			continue
		}
		re, err := regexp.Compile(`(?i),?\s*\b` + regexp.QuoteMeta(p.Value) + `\b`)
		if err != nil {
			continue
		}
		stripped = re.ReplaceAllString(stripped, "")
	}
	stripped = strings.TrimSpace(strings.Trim(stripped, ","))
	if stripped != "" && stripped != prompt.Text {
		variants = append(variants, types.PromptVariant{
			Label:       "C",
			Prompt:      stripped,
			Description: "Removes elements you have disliked before",
		})
	}

	return variants, nil
}

func (s *suggestionService) RecordVariantResult(dbc dbctx.Context, variantLabel string, positive bool) (*types.VariantStat, error) {
	return s.variants.RecordResult(dbc, types.DefaultProfileID, variantLabel, positive)
}

const smartSuggestionMinUsage = 2

func (s *suggestionService) GenerateSmartSuggestions(dbc dbctx.Context) ([]*types.SmartSuggestion, error) {
	combos, err := s.combinations.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListSuccessful(dbc, types.DefaultProfileID, combinationSessionWindow)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := []*types.SmartSuggestion{}

	// Dimension mix: the most-used successful combination, once it has repeated.
	for _, combo := range combos {
		if combo.UsageCount < smartSuggestionMinUsage {
			continue
		}
		confidence := combo.SuccessRate
		if confidence == 0 {
			confidence = 0.5
		}
		out = append(out, &types.SmartSuggestion{
			ID:         uuid.New(),
			ProfileID:  types.DefaultProfileID,
			Type:       types.SuggestionTypeDimension,
			Suggestion: "Reuse the " + strings.ReplaceAll(combo.Key, "|", " + ") + " dimension mix",
			Reason:     fmt.Sprintf("This combination led to a kept image in %d sessions", combo.UsageCount),
			Confidence: confidence,
			Data:       combo.DimensionTypes,
			CreatedAt:  now,
		})

		// Weight nudge: the learned average weights for the same mix.
		if len(combo.AvgSuccessfulWeights) > 0 {
			out = append(out, &types.SmartSuggestion{
				ID:         uuid.New(),
				ProfileID:  types.DefaultProfileID,
				Type:       types.SuggestionTypeWeight,
				Suggestion: "Adjust dimension weights toward your successful average",
				Reason:     "Averaged from the weights of sessions you marked satisfied",
				Confidence: confidence,
				Data:       combo.AvgSuccessfulWeights,
				CreatedAt:  now,
			})
		}
		break
	}

	// Output mode: the dominant mode across successful sessions.
	modeCounts := map[string]int{}
	for _, sess := range sessions {
		if sess.OutputMode != "" {
			modeCounts[sess.OutputMode]++
		}
	}
	bestMode, bestCount := "", 0
	for mode, n := range modeCounts {
		if n > bestCount || (n == bestCount && mode < bestMode) {
			bestMode, bestCount = mode, n
		}
	}
	if bestMode != "" && bestCount >= smartSuggestionMinUsage && len(modeCounts) > 0 {
		out = append(out, &types.SmartSuggestion{
			ID:         uuid.New(),
			ProfileID:  types.DefaultProfileID,
			Type:       types.SuggestionTypeOutputMode,
			Suggestion: "Generate as " + bestMode,
			Reason:     fmt.Sprintf("%d of your %d successful sessions used this output mode", bestCount, len(sessions)),
			Confidence: float64(bestCount) / float64(len(sessions)),
			CreatedAt:  now,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

func (s *suggestionService) MarkSuggestionShown(dbc dbctx.Context, suggestion *types.SmartSuggestion) error {
	if suggestion == nil {
		return nil
	}
	suggestion.Shown = true
	if suggestion.ProfileID == "" {
		suggestion.ProfileID = types.DefaultProfileID
	}
	return s.smart.Create(dbc, suggestion)
}

func (s *suggestionService) MarkSuggestionAccepted(dbc dbctx.Context, id uuid.UUID, accepted bool) error {
	return s.smart.MarkAccepted(dbc, id, accepted)
}

func (s *suggestionService) ListShownSuggestions(dbc dbctx.Context, limit int) ([]*types.SmartSuggestion, error) {
	return s.smart.ListRecent(dbc, types.DefaultProfileID, limit)
}

var positiveWords = map[string]bool{
	"love": true, "great": true, "perfect": true, "amazing": true, "beautiful": true,
	"awesome": true, "good": true, "like": true, "nice": true, "excellent": true,
	"stunning": true, "gorgeous": true, "fantastic": true, "wonderful": true, "best": true,
}

var negativeWords = map[string]bool{
	"hate": true, "bad": true, "ugly": true, "wrong": true, "terrible": true,
	"awful": true, "dislike": true, "worse": true, "worst": true, "boring": true,
	"bland": true, "messy": true, "weird": true, "off": true, "distorted": true,
}

// AnalyzeTextSentiment is a word-list classifier. It is intentionally crude;
// its job is routing feedback, not understanding it.
func (s *suggestionService) AnalyzeTextSentiment(text string) types.SentimentResult {
	words := strings.Fields(strings.ToLower(text))
	pos, neg := 0, 0
	counts := map[string]int{}
	order := []string{}
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:'\"()")
		if w == "" {
			continue
		}
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		default:
			if len(w) > 3 {
				if counts[w] == 0 {
					order = append(order, w)
				}
				counts[w]++
			}
		}
	}

	// Top keywords by frequency; ties keep first-mention order.
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > 5 {
		order = order[:5]
	}

	result := types.SentimentResult{Sentiment: types.SentimentNeutral, Keywords: order}
	switch {
	case pos > neg:
		result.Sentiment = types.SentimentPositive
	case neg > pos:
		result.Sentiment = types.SentimentNegative
	}
	if result.Sentiment == types.SentimentNegative {
		if sg := ExtractSuggestionFromText(text); sg != nil {
			result.SuggestedActions = append(result.SuggestedActions, sg.Action+" "+sg.Target)
		}
	}
	return result
}
