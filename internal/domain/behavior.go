package domain

import "time"

// Caps for the bounded behavior lists.
const (
	MaxRecentSearches     = 5
	MaxVisitedRestaurants = 20
	MaxViewedDishes       = 30
	PreferredCuisineCount = 3
)

type VisitSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Cuisine   string    `json:"cuisine"`
	Timestamp time.Time `json:"timestamp"`
}

type DishSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// BehaviorLog is the rolling interaction history of a session. The
// PreferredCuisines and LikesSpicy fields are derived from the raw lists.
type BehaviorLog struct {
	RecentSearches     []string       `json:"recent_searches"`
	VisitedRestaurants []VisitSummary `json:"visited_restaurants"`
	ViewedDishes       []DishSummary  `json:"viewed_dishes"`
	PreferredCuisines  []string       `json:"preferred_cuisines"`
	LikesSpicy         bool           `json:"likes_spicy"`
	SearchFrequency    int            `json:"search_frequency"`
}

func NewBehaviorLog() *BehaviorLog {
	return &BehaviorLog{
		RecentSearches:     []string{},
		VisitedRestaurants: []VisitSummary{},
		ViewedDishes:       []DishSummary{},
		PreferredCuisines:  []string{},
	}
}

func (b *BehaviorLog) Clone() *BehaviorLog {
	if b == nil {
		return nil
	}
	out := *b
	out.RecentSearches = append([]string{}, b.RecentSearches...)
	out.VisitedRestaurants = append([]VisitSummary{}, b.VisitedRestaurants...)
	out.ViewedDishes = append([]DishSummary{}, b.ViewedDishes...)
	out.PreferredCuisines = append([]string{}, b.PreferredCuisines...)
	return &out
}
