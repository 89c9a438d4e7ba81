package domain

// RankedResult is one entry of a ranking pass. It is recomputed on every
// pass and never persisted.
type RankedResult struct {
	CandidateID   string  `json:"candidate_id"`
	Name          string  `json:"name"`
	Cuisine       string  `json:"cuisine"`
	CombinedScore float64 `json:"combined_score"`
	TasteScore    float64 `json:"taste_score"`
	DistanceKm    float64 `json:"distance_km"`
	DistanceText  string  `json:"distance_text"`
	Region        string  `json:"region,omitempty"`
	Reason        string  `json:"reason"`
	IsTopPick     bool    `json:"is_top_pick"`
}

type RecommendationMeta struct {
	Region      string `json:"region"`
	Busy        bool   `json:"busy"`
	GeneratedAt string `json:"generated_at"`
	TotalCount  int    `json:"total_count"`
}
