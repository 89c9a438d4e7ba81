package domain

type TagCategory string

const (
	TagVibe     TagCategory = "vibe"
	TagDietary  TagCategory = "dietary"
	TagOccasion TagCategory = "occasion"
	TagPrice    TagCategory = "price"
	TagTime     TagCategory = "time"
)

// HighConfidenceThreshold marks tags consumers may highlight.
const HighConfidenceThreshold = 80

type Tag struct {
	Label      string      `json:"label"`
	Category   TagCategory `json:"category"`
	Confidence float64     `json:"confidence"`
}

func (t Tag) HighConfidence() bool {
	return t.Confidence >= HighConfidenceThreshold
}
