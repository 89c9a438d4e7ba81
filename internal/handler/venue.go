package handler

import (
	"net/http"

	"github.com/actuallystonmai/venue-recommender/internal/tags"
	"github.com/go-chi/chi/v5"
)

// GET /venues/{venueID}/tags
func (h *Handler) GetVenueTags(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "venueID")
	if h.venues == nil {
		writeError(w, http.StatusServiceUnavailable, "directory_unavailable", "Venue directory is not configured")
		return
	}

	c, err := h.venues.GetCandidate(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	generated := tags.Generate(c)
	resp := TagsResponse{VenueID: c.ID, Tags: generated}
	if hero, ok := tags.HeroOf(generated); ok {
		resp.Hero = &hero
	}
	writeJSON(w, http.StatusOK, resp)
}
