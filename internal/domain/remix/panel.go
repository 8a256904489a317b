package remix

import "time"

const (
	PanelSideLeft  = "left"
	PanelSideRight = "right"

	// SlotsPerSide is the fixed size of each panel column.
	SlotsPerSide = 4
)

// SavedPanelImage is one occupied display slot. Stored as JSON inside the
// project-scoped panel state, not as its own table.
type SavedPanelImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	PromptID  string    `json:"prompt_id,omitempty"`
	Side      string    `json:"side"`
	SlotIndex int       `json:"slot_index"`
	VideoURL  string    `json:"video_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PanelState holds both slot columns. A nil entry is an empty slot.
type PanelState struct {
	Left  []*SavedPanelImage `json:"left"`
	Right []*SavedPanelImage `json:"right"`
}

func NewPanelState() *PanelState {
	return &PanelState{
		Left:  make([]*SavedPanelImage, SlotsPerSide),
		Right: make([]*SavedPanelImage, SlotsPerSide),
	}
}

// Normalize pads or truncates both sides to exactly SlotsPerSide entries.
func (p *PanelState) Normalize() {
	p.Left = normalizeSide(p.Left)
	p.Right = normalizeSide(p.Right)
}

func normalizeSide(side []*SavedPanelImage) []*SavedPanelImage {
	out := make([]*SavedPanelImage, SlotsPerSide)
	for i := 0; i < SlotsPerSide && i < len(side); i++ {
		out[i] = side[i]
	}
	return out
}

// Images returns every occupied slot across both sides.
func (p *PanelState) Images() []*SavedPanelImage {
	out := []*SavedPanelImage{}
	for _, img := range p.Left {
		if img != nil {
			out = append(out, img)
		}
	}
	for _, img := range p.Right {
		if img != nil {
			out = append(out, img)
		}
	}
	return out
}
