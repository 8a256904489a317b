package services

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studiostory/studiostory-backend/internal/data/repos"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

// elementCategoryToPreference maps prompt-element categories onto preference
// categories. Unknown categories fall back to style.
var elementCategoryToPreference = map[string]string{
	"composition": types.CategoryComposition,
	"setting":     types.CategorySetting,
	"subject":     types.CategorySubject,
	"style":       types.CategoryStyle,
	"mood":        types.CategoryMood,
	"lighting":    types.CategoryMood,
	"quality":     types.CategoryQuality,
}

func mapElementCategory(category string) string {
	if mapped, ok := elementCategoryToPreference[strings.ToLower(category)]; ok {
		return mapped
	}
	return types.CategoryStyle
}

// avoidPhrases trigger heuristic avoid-term mining in negative text feedback.
var avoidPhrases = []string{
	"too much", "don't like", "remove", "less", "no more",
	"hate", "dislike", "avoid", "not", "without",
}

// styleKeywords lists style-preference categories with their trigger
// keywords, scanned in prompt elements. Order is fixed so an element matching
// keywords in several categories always mines the same preference.
var styleKeywords = []struct {
	category string
	keywords []string
}{
	{types.StyleCategoryLighting, []string{"dramatic lighting", "soft lighting", "neon", "golden hour", "backlit", "moody lighting", "natural light", "rim lighting"}},
	{types.StyleCategoryRendering, []string{"photorealistic", "cel shaded", "watercolor", "oil painting", "3d render", "pixel art", "sketch", "painterly"}},
	{types.StyleCategoryComposition, []string{"close-up", "wide shot", "symmetrical", "rule of thirds", "centered", "dynamic angle", "bird's eye view", "low angle"}},
	{types.StyleCategoryColor, []string{"vibrant", "muted", "monochrome", "pastel", "saturated", "warm tones", "cool tones", "high contrast"}},
	{types.StyleCategoryTexture, []string{"smooth", "gritty", "glossy", "matte", "rough", "polished", "weathered"}},
	{types.StyleCategoryDetail, []string{"intricate", "minimalist", "ornate", "clean", "highly detailed", "simple"}},
}

const (
	reinforcementPositive = 10
	reinforcementAvoid    = 15
	initialStrengthLiked  = 30
	initialStrengthAvoid  = 40
	initialStrengthMined  = 25
	maxStrength           = 100
)

// ApplyFeedback folds one feedback event into the preference list and
// returns the updated list. Pure: the caller owns loading and persisting the
// list, and must serialize calls for a profile since concurrent calls against
// stale snapshots lose updates.
//
// Every preference not touched by this call whose source is inferred decays
// by one point, and preferences at or below zero are pruned. The decay runs
// on every call rather than on a clock tick, so strength drains faster under
// high feedback volume; that drift-prevention behavior is deliberate.
func ApplyFeedback(prefs []*types.UserPreference, feedback types.Feedback, prompt types.GeneratedPrompt, now time.Time) []*types.UserPreference {
	out := make([]*types.UserPreference, 0, len(prefs))
	for _, p := range prefs {
		cp := *p
		out = append(out, &cp)
	}

	switch feedback.Rating {
	case types.RatingUp:
		elements := resolveElements(prompt, feedback.LikedElements)
		if len(feedback.LikedElements) == 0 {
			elements = prompt.Elements
		}
		for _, el := range elements {
			out = reinforceOrCreate(out, mapElementCategory(el.Category), el.Text,
				reinforcementPositive, initialStrengthLiked, now)
		}
	case types.RatingDown:
		// The negative path only mines explicitly disliked elements; unlike
		// the positive path it does not fall back to all prompt elements.
		for _, el := range resolveElements(prompt, feedback.DislikedElements) {
			out = reinforceOrCreate(out, types.CategoryAvoid, el.Text,
				reinforcementAvoid, initialStrengthAvoid, now)
		}
		for _, term := range mineAvoidTerms(feedback.TextFeedback) {
			if hasValue(out, term) {
				continue
			}
			out = append(out, newPreference(types.CategoryAvoid, term, initialStrengthMined, now))
		}
	}

	// Global decay pass over everything this call did not touch.
	kept := out[:0]
	for _, p := range out {
		if !p.UpdatedAt.Equal(now) && p.Source == types.SourceInferred {
			p.Strength--
		}
		if p.Strength > 0 {
			kept = append(kept, p)
		}
	}
	return kept
}

func resolveElements(prompt types.GeneratedPrompt, ids []string) []types.PromptElement {
	if len(ids) == 0 {
		return nil
	}
	byID := make(map[string]types.PromptElement, len(prompt.Elements))
	for _, el := range prompt.Elements {
		byID[el.ID] = el
	}
	out := make([]types.PromptElement, 0, len(ids))
	for _, id := range ids {
		if el, ok := byID[id]; ok {
			out = append(out, el)
		}
	}
	return out
}

func reinforceOrCreate(prefs []*types.UserPreference, category, value string, delta, initial int, now time.Time) []*types.UserPreference {
	value = strings.TrimSpace(value)
	if value == "" {
		return prefs
	}
	for _, p := range prefs {
		if p.Category == category && strings.EqualFold(p.Value, value) {
			p.Strength += delta
			if p.Strength > maxStrength {
				p.Strength = maxStrength
			}
			p.Reinforcements++
			p.UpdatedAt = now
			return prefs
		}
	}
	return append(prefs, newPreference(category, value, initial, now))
}

func newPreference(category, value string, strength int, now time.Time) *types.UserPreference {
	return &types.UserPreference{
		ID:             uuid.New(),
		ProfileID:      types.DefaultProfileID,
		Category:       category,
		Value:          value,
		Strength:       strength,
		Reinforcements: 1,
		Source:         types.SourceInferred,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func hasValue(prefs []*types.UserPreference, value string) bool {
	for _, p := range prefs {
		if strings.EqualFold(p.Value, value) {
			return true
		}
	}
	return false
}

// mineAvoidTerms scans free text for avoid phrases and collects up to three
// words longer than two characters after each match.
func mineAvoidTerms(text string) []string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return nil
	}
	seen := map[string]bool{}
	out := []string{}
	for _, phrase := range avoidPhrases {
		idx := strings.Index(lowered, phrase)
		if idx < 0 {
			continue
		}
		rest := lowered[idx+len(phrase):]
		words := strings.FieldsFunc(rest, func(r rune) bool {
			return !isWordRune(r)
		})
		taken := 0
		for _, w := range words {
			if taken >= 3 {
				break
			}
			if len(w) <= 2 {
				continue
			}
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
			taken++
		}
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '\'' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// LearnPatterns recomputes element-combination patterns from cumulative
// feedback history. A key only materializes once it has at least
// MinPatternObservations observations; confidence is the success share.
// Existing patterns keep their identity so IDs stay stable across passes.
func LearnPatterns(history []*types.FeedbackEvent, existing []*types.PromptPattern) []*types.PromptPattern {
	type tally struct {
		success int
		failure int
	}
	counts := map[string]*tally{}

	for _, fb := range history {
		var prompt types.GeneratedPrompt
		if len(fb.PromptSnapshot) == 0 {
			continue
		}
		if err := json.Unmarshal(fb.PromptSnapshot, &prompt); err != nil {
			continue
		}
		for _, el := range prompt.Elements {
			key := strings.ToLower(el.Category) + ":" + strings.ToLower(strings.TrimSpace(el.Text))
			t, ok := counts[key]
			if !ok {
				t = &tally{}
				counts[key] = t
			}
			if fb.Rating == types.RatingUp {
				t.success++
			} else {
				t.failure++
			}
		}
	}

	byValue := make(map[string]*types.PromptPattern, len(existing))
	for _, p := range existing {
		byValue[p.Value] = p
	}

	now := time.Now().UTC()
	out := []*types.PromptPattern{}
	for key, t := range counts {
		total := t.success + t.failure
		if total < types.MinPatternObservations {
			continue
		}
		p, ok := byValue[key]
		if !ok {
			p = &types.PromptPattern{
				ID:        uuid.New(),
				ProfileID: types.DefaultProfileID,
				Type:      types.PatternTypeElementCombination,
				Value:     key,
				CreatedAt: now,
			}
		}
		p.SuccessCount = t.success
		p.FailureCount = t.failure
		p.Confidence = float64(t.success) / float64(total)
		p.UpdatedAt = now
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// LearningService orchestrates feedback intake and the derived learning
// passes. Calls for one profile must be serialized by the caller; the service
// takes no internal lock around the preference read-modify-write.
type LearningService interface {
	RecordFeedback(dbc dbctx.Context, projectID *uuid.UUID, prompt types.GeneratedPrompt, feedback types.Feedback) ([]*types.UserPreference, error)
	LearnDimensionCombinations(dbc dbctx.Context) ([]*types.DimensionCombinationPattern, error)
	LearnStylePreferences(dbc dbctx.Context, prompt types.GeneratedPrompt, rating string) error
}

type learningService struct {
	log          *logger.Logger
	preferences  repos.UserPreferenceRepo
	patterns     repos.PromptPatternRepo
	sessions     repos.GenerationSessionRepo
	combinations repos.DimensionCombinationRepo
	styles       repos.StylePreferenceRepo
	feedback     repos.FeedbackEventRepo
}

func NewLearningService(
	baseLog *logger.Logger,
	preferences repos.UserPreferenceRepo,
	patterns repos.PromptPatternRepo,
	sessions repos.GenerationSessionRepo,
	combinations repos.DimensionCombinationRepo,
	styles repos.StylePreferenceRepo,
	feedback repos.FeedbackEventRepo,
) LearningService {
	return &learningService{
		log:          baseLog.With("service", "LearningService"),
		preferences:  preferences,
		patterns:     patterns,
		sessions:     sessions,
		combinations: combinations,
		styles:       styles,
		feedback:     feedback,
	}
}

const feedbackHistoryWindow = 200

func (s *learningService) RecordFeedback(dbc dbctx.Context, projectID *uuid.UUID, prompt types.GeneratedPrompt, feedback types.Feedback) ([]*types.UserPreference, error) {
	now := time.Now().UTC()

	event := &types.FeedbackEvent{
		ID:           uuid.New(),
		ProfileID:    types.DefaultProfileID,
		ProjectID:    projectID,
		PromptID:     prompt.ID,
		Rating:       feedback.Rating,
		TextFeedback: feedback.TextFeedback,
		CreatedAt:    now,
	}
	if raw, err := json.Marshal(feedback.LikedElements); err == nil {
		event.LikedElements = datatypes.JSON(raw)
	}
	if raw, err := json.Marshal(feedback.DislikedElements); err == nil {
		event.DislikedElements = datatypes.JSON(raw)
	}
	if raw, err := json.Marshal(prompt); err == nil {
		event.PromptSnapshot = datatypes.JSON(raw)
	}
	if err := s.feedback.Create(dbc, event); err != nil {
		return nil, err
	}

	prefs, err := s.preferences.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	updated := ApplyFeedback(prefs, feedback, prompt, now)
	if err := s.preferences.ReplaceAll(dbc, types.DefaultProfileID, updated); err != nil {
		return nil, err
	}

	history, err := s.feedback.ListRecent(dbc, types.DefaultProfileID, feedbackHistoryWindow)
	if err != nil {
		return nil, err
	}
	existing, err := s.patterns.ListByProfile(dbc, types.DefaultProfileID)
	if err != nil {
		return nil, err
	}
	for _, p := range LearnPatterns(history, existing) {
		if err := s.patterns.Upsert(dbc, p); err != nil {
			s.log.Warn("Failed to upsert prompt pattern", "value", p.Value, "error", err)
		}
	}

	if err := s.LearnStylePreferences(dbc, prompt, feedback.Rating); err != nil {
		s.log.Warn("Style preference pass failed", "error", err)
	}

	return updated, nil
}

const combinationSessionWindow = 100

func (s *learningService) LearnDimensionCombinations(dbc dbctx.Context) ([]*types.DimensionCombinationPattern, error) {
	sessions, err := s.sessions.ListSuccessful(dbc, types.DefaultProfileID, combinationSessionWindow)
	if err != nil {
		return nil, err
	}

	type combo struct {
		key        string
		dimTypes   []string
		references []string
		usageCount int
		avgWeights map[string]float64
	}
	combos := map[string]*combo{}

	for _, session := range sessions {
		var snaps []types.DimensionSnapshot
		if len(session.DimensionsSnapshot) == 0 {
			continue
		}
		if err := json.Unmarshal(session.DimensionsSnapshot, &snaps); err != nil || len(snaps) == 0 {
			continue
		}

		dimTypes := make([]string, 0, len(snaps))
		for _, d := range snaps {
			dimTypes = append(dimTypes, d.Type)
		}
		sort.Strings(dimTypes)
		key := strings.Join(dimTypes, "|")

		c, ok := combos[key]
		if !ok {
			c = &combo{key: key, dimTypes: dimTypes, avgWeights: map[string]float64{}}
			combos[key] = c
		}
		c.usageCount++
		for _, d := range snaps {
			if strings.TrimSpace(d.Reference) != "" {
				c.references = append(c.references, d.Reference)
			}
			// Running average with recency bias: each sample averages against
			// the stored value instead of a true mean.
			if existing, ok := c.avgWeights[d.Type]; ok {
				c.avgWeights[d.Type] = (existing + float64(d.Weight)) / 2
			} else {
				c.avgWeights[d.Type] = float64(d.Weight)
			}
		}
	}

	now := time.Now().UTC()
	out := make([]*types.DimensionCombinationPattern, 0, len(combos))
	for _, c := range combos {
		pattern := &types.DimensionCombinationPattern{
			ID:          uuid.New(),
			ProfileID:   types.DefaultProfileID,
			Key:         c.key,
			SuccessRate: 1,
			UsageCount:  c.usageCount,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if raw, err := json.Marshal(c.dimTypes); err == nil {
			pattern.DimensionTypes = datatypes.JSON(raw)
		}
		if raw, err := json.Marshal(c.references); err == nil {
			pattern.SuccessfulReferences = datatypes.JSON(raw)
		}
		if raw, err := json.Marshal(c.avgWeights); err == nil {
			pattern.AvgSuccessfulWeights = datatypes.JSON(raw)
		}
		if err := s.combinations.UpsertByKey(dbc, pattern); err != nil {
			s.log.Warn("Failed to upsert dimension combination", "key", c.key, "error", err)
			continue
		}
		out = append(out, pattern)
	}
	return out, nil
}

func (s *learningService) LearnStylePreferences(dbc dbctx.Context, prompt types.GeneratedPrompt, rating string) error {
	positive := rating == types.RatingUp
	for _, el := range prompt.Elements {
		lowered := strings.ToLower(el.Text)
		matched := false
		for _, group := range styleKeywords {
			for _, kw := range group.keywords {
				if !strings.Contains(lowered, kw) {
					continue
				}
				if err := s.upsertStylePreference(dbc, group.category, kw, el.Category, positive); err != nil {
					s.log.Warn("Failed to upsert style preference", "keyword", kw, "error", err)
				}
				matched = true
				break
			}
			if matched {
				break
			}
		}
	}
	return nil
}

func (s *learningService) upsertStylePreference(dbc dbctx.Context, category, value, sourceDimension string, positive bool) error {
	existing, err := s.styles.Get(dbc, types.DefaultProfileID, category, value)
	if err != nil {
		return err
	}
	if existing == nil {
		existing = &types.StylePreference{
			ID:        uuid.New(),
			ProfileID: types.DefaultProfileID,
			Category:  category,
			Value:     value,
		}
	}
	if positive {
		existing.PositiveAssociations++
	} else {
		existing.NegativeAssociations++
	}
	total := existing.PositiveAssociations + existing.NegativeAssociations
	if total > 0 {
		existing.Strength = float64(existing.PositiveAssociations) / float64(total) * 100
	}

	sources := []string{}
	if len(existing.SourceDimensions) > 0 {
		_ = json.Unmarshal(existing.SourceDimensions, &sources)
	}
	found := false
	for _, sd := range sources {
		if sd == sourceDimension {
			found = true
			break
		}
	}
	if !found && sourceDimension != "" {
		sources = append(sources, sourceDimension)
	}
	if raw, err := json.Marshal(sources); err == nil {
		existing.SourceDimensions = datatypes.JSON(raw)
	}

	return s.styles.Upsert(dbc, existing)
}
