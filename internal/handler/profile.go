package handler

import (
	"net/http"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/profile"
)

// GET /sessions/{sessionID}/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(s.Orchestrator.Profile()))
}

// PUT /sessions/{sessionID}/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	edit := profile.Edit{Cuisines: req.Cuisines, Proteins: req.Proteins}
	if req.SpiceLevel != nil {
		level, err := domain.ParseSpiceLevel(*req.SpiceLevel)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
			return
		}
		edit.SpiceLevel = &level
	}
	if req.PricePreference != nil {
		tier, err := domain.ParsePriceTier(*req.PricePreference)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
			return
		}
		edit.PricePreference = &tier
	}

	store := s.Orchestrator.Profile()
	store.Update(edit)
	writeJSON(w, http.StatusOK, profileResponse(store))
}

// DELETE /sessions/{sessionID}/profile
func (h *Handler) ResetProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Orchestrator.Profile().Reset()
	w.WriteHeader(http.StatusNoContent)
}

func profileResponse(store *profile.Store) ProfileResponse {
	return ProfileResponse{
		Profile:  store.Snapshot(),
		Complete: store.IsComplete(),
	}
}
