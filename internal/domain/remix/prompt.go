package remix

// PromptElement is one tagged fragment of a generated prompt. Element IDs are
// deterministic per slot within a generation batch, so the same ID can refer
// to different underlying text across iterations.
type PromptElement struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

type GeneratedPrompt struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Elements []PromptElement `json:"elements"`
}

// PromptVariant is an ephemeral A/B candidate derived from a base prompt.
type PromptVariant struct {
	Label       string `json:"label"`
	Prompt      string `json:"prompt"`
	Description string `json:"description"`
}
