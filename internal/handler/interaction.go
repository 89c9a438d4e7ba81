package handler

import (
	"net/http"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/go-chi/chi/v5"
)

// POST /sessions/{sessionID}/interactions
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req InteractionRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := s.Orchestrator.RecordInteraction(req.CandidateID, req.Kind); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /sessions/{sessionID}/visits
func (h *Handler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req VisitRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := s.Orchestrator.RecordVisit(req.CandidateID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /sessions/{sessionID}/dish-views
func (h *Handler) RecordDishView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req DishViewRequest
	if !h.decode(w, r, &req) {
		return
	}

	s.Orchestrator.Behavior().RecordDishView(domain.DishSummary{
		ID:       req.ID,
		Name:     req.Name,
		Category: req.Category,
	})
	w.WriteHeader(http.StatusNoContent)
}

// GET /sessions/{sessionID}/behavior
func (h *Handler) GetBehavior(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Orchestrator.Behavior().Snapshot())
}

// PUT|DELETE /sessions/{sessionID}/saved/{venueID}
func (h *Handler) SetSaved(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "venueID")
	if _, found := s.Orchestrator.Candidate(id); !found {
		h.writeDomainError(w, domain.ErrCandidateNotFound)
		return
	}

	s.Orchestrator.Profile().SetSaved(id, r.Method == http.MethodPut)
	w.WriteHeader(http.StatusNoContent)
}
