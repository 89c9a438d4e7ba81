package domain

type HitType string

const (
	HitRestaurant HitType = "restaurant"
	HitDish       HitType = "dish"
	HitCuisine    HitType = "cuisine"
	HitSuggestion HitType = "suggestion"
)

// SearchHit is a single free-text search result.
type SearchHit struct {
	ID       string  `json:"id"`
	Type     HitType `json:"type"`
	Name     string  `json:"name"`
	Subtitle string  `json:"subtitle,omitempty"`
	ImageRef string  `json:"image_ref,omitempty"`
	Route    string  `json:"route"`
	Cuisine  string  `json:"cuisine,omitempty"`
}
