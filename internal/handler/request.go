package handler

type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

type PreferencesRequest struct {
	ManualLocation      *LocationRequest `json:"manual_location" validate:"omitempty"`
	PreferredRegion     string           `json:"preferred_region" validate:"max=64"`
	OnlyPreferredRegion bool             `json:"only_preferred_region"`
}

type InteractionRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	Kind        string `json:"kind" validate:"required"`
}

type VisitRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
}

type DishViewRequest struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Category string `json:"category"`
}

type ProfileRequest struct {
	SpiceLevel      *string  `json:"spice_level"`
	Cuisines        []string `json:"cuisines" validate:"omitempty,max=20,dive,required"`
	PricePreference *string  `json:"price_preference"`
	Proteins        []string `json:"proteins" validate:"omitempty,max=20,dive,required"`
}
