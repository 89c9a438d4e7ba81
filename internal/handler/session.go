package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// POST /sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{
		SessionID: s.ID,
		Region:    s.Orchestrator.Region(),
	})
}

// DELETE /sessions/{sessionID}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
