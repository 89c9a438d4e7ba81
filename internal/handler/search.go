package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/search"
)

// GET /sessions/{sessionID}/search?q=
//
// Each call is one keystroke: it waits out the debounce window and comes
// back superseded if a newer query arrived for the same session.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, SearchResponse{Hits: []domain.SearchHit{}})
		return
	}

	hits, err := s.Search.Submit(r.Context(), q)
	if errors.Is(err, search.ErrSuperseded) {
		writeJSON(w, http.StatusOK, SearchResponse{Query: q, Hits: []domain.SearchHit{}, Superseded: true})
		return
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Hits: hits})
}
