package remix

// Dimension is one creative axis of the remix simulator: a text reference,
// a filter mode (what structural aspect of the base image to preserve), a
// transform mode (how the referenced content is swapped in) and a blend
// weight in [0,100].
type Dimension struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Reference     string `json:"reference"`
	FilterMode    string `json:"filter_mode"`
	TransformMode string `json:"transform_mode"`
	Weight        int    `json:"weight"`
}

// DimensionSnapshot is the trimmed form stored on a generation session.
type DimensionSnapshot struct {
	Type      string `json:"type"`
	Reference string `json:"reference"`
	Weight    int    `json:"weight"`
}

const (
	FilterModeStructure  = "structure"
	FilterModeSilhouette = "silhouette"
	FilterModePalette    = "palette"
	FilterModeNone       = "none"
)

const (
	TransformModeReplace = "replace"
	TransformModeBlend   = "blend"
	TransformModeStylize = "stylize"
)

const (
	OutputModeImage = "image"
	OutputModeVideo = "video"
)

func ValidFilterMode(m string) bool {
	switch m {
	case FilterModeStructure, FilterModeSilhouette, FilterModePalette, FilterModeNone:
		return true
	}
	return false
}

func ValidTransformMode(m string) bool {
	switch m {
	case TransformModeReplace, TransformModeBlend, TransformModeStylize:
		return true
	}
	return false
}
