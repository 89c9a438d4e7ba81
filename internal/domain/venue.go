package domain

import "strings"

// Candidate is a venue supplied by the external directory. The engine never
// mutates it.
type Candidate struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Cuisine         string       `json:"cuisine"`
	Description     string       `json:"description,omitempty"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
	PriceLevel      string       `json:"price_level,omitempty"`
	Ambience        []string     `json:"ambience,omitempty"`
	SignatureDishes []string     `json:"signature_dishes,omitempty"`
	IsOpen          bool         `json:"is_open"`
}

// HasLocation reports whether the candidate carries usable coordinates.
func (c Candidate) HasLocation() bool {
	return c.Coordinates != nil && c.Coordinates.Valid()
}

// PrimaryCuisine returns the cuisine string up to its first whitespace.
func (c Candidate) PrimaryCuisine() string {
	fields := strings.Fields(c.Cuisine)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
