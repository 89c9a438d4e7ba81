package handler

import "github.com/actuallystonmai/venue-recommender/internal/domain"

type SessionResponse struct {
	SessionID string `json:"session_id"`
	Region    string `json:"region"`
}

type RecommendationResponse struct {
	SessionID       string                    `json:"session_id"`
	Recommendations []domain.RankedResult     `json:"recommendations"`
	TopPick         *domain.RankedResult      `json:"top_pick"`
	Metadata        domain.RecommendationMeta `json:"metadata"`
}

type PreferencesResponse struct {
	domain.LocationPreferences
	Region string `json:"region"`
}

type ProfileResponse struct {
	Profile  *domain.TasteProfile `json:"profile"`
	Complete bool                 `json:"complete"`
}

type SearchResponse struct {
	Query      string             `json:"query"`
	Hits       []domain.SearchHit `json:"hits"`
	Superseded bool               `json:"superseded,omitempty"`
}

type TagsResponse struct {
	VenueID string       `json:"venue_id"`
	Tags    []domain.Tag `json:"tags"`
	Hero    *domain.Tag  `json:"hero"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
