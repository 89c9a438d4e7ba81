package handler

import (
	"net/http"
	"strings"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/geo"
)

// PUT /sessions/{sessionID}/location
func (h *Handler) SetLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req LocationRequest
	if !h.decode(w, r, &req) {
		return
	}

	c := domain.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := s.Orchestrator.SetLocation(c); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.preferences(s.Orchestrator.Preferences(), s.Orchestrator.Region()))
}

// GET /sessions/{sessionID}/preferences
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.preferences(s.Orchestrator.Preferences(), s.Orchestrator.Region()))
}

// PUT /sessions/{sessionID}/preferences
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PreferencesRequest
	if !h.decode(w, r, &req) {
		return
	}

	region, known := canonicalRegion(req.PreferredRegion)
	if !known {
		writeError(w, http.StatusBadRequest, "unknown_region", "Unknown region "+req.PreferredRegion)
		return
	}

	prefs := domain.LocationPreferences{
		PreferredRegion:     region,
		OnlyPreferredRegion: req.OnlyPreferredRegion && region != "",
	}
	if req.ManualLocation != nil {
		prefs.ManualLocation = &domain.Coordinates{
			Latitude:  *req.ManualLocation.Latitude,
			Longitude: *req.ManualLocation.Longitude,
		}
	}

	if err := s.Orchestrator.SetPreferences(prefs); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.preferences(s.Orchestrator.Preferences(), s.Orchestrator.Region()))
}

func (h *Handler) preferences(p domain.LocationPreferences, region string) PreferencesResponse {
	return PreferencesResponse{LocationPreferences: p, Region: region}
}

// canonicalRegion maps a region name to its table spelling. An empty name
// is valid and means no preference.
func canonicalRegion(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", true
	}
	for _, r := range geo.Regions() {
		if strings.EqualFold(r.Name, name) {
			return r.Name, true
		}
	}
	return "", false
}
