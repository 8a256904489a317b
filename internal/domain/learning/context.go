package learning

// Feedback is the inbound reaction payload the learning engine consumes.
// Liked/disliked element entries are prompt-element IDs.
type Feedback struct {
	Rating           string   `json:"rating"`
	LikedElements    []string `json:"liked_elements,omitempty"`
	DislikedElements []string `json:"disliked_elements,omitempty"`
	TextFeedback     string   `json:"text_feedback,omitempty"`
}

const (
	SuggestionActionAdd          = "add"
	SuggestionActionRemove       = "remove"
	SuggestionActionEmphasize    = "emphasize"
	SuggestionActionDeemphasize  = "deemphasize"
	SuggestionActionAdjustWeight = "adjust_weight"
)

// RefinementSuggestion is one actionable tweak to the current prompt.
type RefinementSuggestion struct {
	Action     string  `json:"action"`
	Target     string  `json:"target"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// LearnedContext is the aggregated, ready-to-consume view of everything the
// engine has learned, used to score or explain a candidate prompt.
type LearnedContext struct {
	Preferences          []*UserPreference  `json:"preferences"`
	Patterns             []*PromptPattern   `json:"patterns"`
	AvoidElements        []string           `json:"avoid_elements"`
	EmphasizeElements    []string           `json:"emphasize_elements"`
	DimensionAdjustments map[string]float64 `json:"dimension_adjustments"`
}

// ElementExplanation attributes one prompt element to learned state.
type ElementExplanation struct {
	ElementID       string   `json:"element_id"`
	Text            string   `json:"text"`
	Category        string   `json:"category"`
	Influences      []string `json:"influences,omitempty"`
	RelatedPatterns []string `json:"related_patterns,omitempty"`
}

type PromptExplanation struct {
	Elements []ElementExplanation `json:"elements"`
	Summary  string               `json:"summary"`
}

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

type SentimentResult struct {
	Sentiment        string   `json:"sentiment"`
	Keywords         []string `json:"keywords"`
	SuggestedActions []string `json:"suggested_actions"`
}

// LearningStatus reports whether enough history exists to trust suggestions.
type LearningStatus struct {
	FeedbackCount   int  `json:"feedback_count"`
	SessionCount    int  `json:"session_count"`
	PreferenceCount int  `json:"preference_count"`
	PatternCount    int  `json:"pattern_count"`
	Ready           bool `json:"ready"`
}
