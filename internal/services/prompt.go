package services

import (
	"fmt"
	"strings"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

// PromptBatchSize is how many prompt candidates one iteration produces, one
// per display row the frontend shows.
const PromptBatchSize = 4

// Prompt and element IDs are positional, not random: iteration N+1 reuses the
// IDs of iteration N so the UI can swap content in place. Downstream
// consumers must treat them as slot names, not identities.
func promptID(slot int) string { return fmt.Sprintf("prompt-%d", slot) }

func elementID(slot, idx int) string { return fmt.Sprintf("prompt-%d-el-%d", slot, idx) }

// PromptComposer turns the dimension stack plus learned context into a batch
// of prompt candidates.
type PromptComposer interface {
	Compose(dbc dbctx.Context, dims []types.Dimension, baseDescription string) ([]types.GeneratedPrompt, error)
}

type promptComposer struct {
	log     *logger.Logger
	scoring ScoringService
}

func NewPromptComposer(baseLog *logger.Logger, scoring ScoringService) PromptComposer {
	return &promptComposer{
		log:     baseLog.With("service", "PromptComposer"),
		scoring: scoring,
	}
}

// Variation seasoning per batch slot; slot 0 stays closest to the raw
// dimension stack.
var slotVariations = [PromptBatchSize][]string{
	{},
	{"highly detailed"},
	{"dramatic lighting"},
	{"wide shot", "cinematic"},
}

func (c *promptComposer) Compose(dbc dbctx.Context, dims []types.Dimension, baseDescription string) ([]types.GeneratedPrompt, error) {
	learned, err := c.scoring.BuildLearnedContext(dbc)
	if err != nil {
		return nil, err
	}

	avoid := map[string]bool{}
	for _, a := range learned.AvoidElements {
		avoid[strings.ToLower(a)] = true
	}

	out := make([]types.GeneratedPrompt, 0, PromptBatchSize)
	for slot := 0; slot < PromptBatchSize; slot++ {
		elements := []types.PromptElement{}
		idx := 0
		add := func(category, text string) {
			text = strings.TrimSpace(text)
			if text == "" || avoid[strings.ToLower(text)] {
				return
			}
			elements = append(elements, types.PromptElement{
				ID:       elementID(slot, idx),
				Category: category,
				Text:     text,
			})
			idx++
		}

		add(types.CategorySubject, baseDescription)
		for _, d := range dims {
			weight := d.Weight
			if adj, ok := learned.DimensionAdjustments[d.Type]; ok {
				weight = int(adj)
			}
			text := d.Reference
			if weight >= 70 {
				text = "strongly " + text
			} else if weight <= 30 {
				text = "subtly " + text
			}
			add(dimensionCategory(d.Type), text)
		}
		for _, v := range slotVariations[slot] {
			add(types.CategoryQuality, v)
		}
		// Learned emphasis rides along on the last slot only, keeping the
		// batch diverse rather than uniformly biased.
		if slot == PromptBatchSize-1 {
			for i, emph := range learned.EmphasizeElements {
				if i == maxVariantEmphasis {
					break
				}
				add(types.CategoryStyle, emph)
			}
		}

		texts := make([]string, 0, len(elements))
		for _, el := range elements {
			texts = append(texts, el.Text)
		}
		out = append(out, types.GeneratedPrompt{
			ID:       promptID(slot),
			Text:     strings.Join(texts, ", "),
			Elements: elements,
		})
	}
	return out, nil
}

func dimensionCategory(dimType string) string {
	switch dimType {
	case "setting", "era":
		return types.CategorySetting
	case "subject":
		return types.CategorySubject
	case "mood":
		return types.CategoryMood
	case "palette":
		return types.CategoryStyle
	default:
		return types.CategoryStyle
	}
}
