package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
)

const maxLimit = 50

// GET /sessions/{sessionID}/recommendations
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	// Parse and validate limit
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > maxLimit {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	o := s.Orchestrator
	results := o.Results(limit)

	resp := RecommendationResponse{
		SessionID:       s.ID,
		Recommendations: results,
		Metadata: domain.RecommendationMeta{
			Region:      o.Region(),
			Busy:        o.Busy(),
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			TotalCount:  len(results),
		},
	}
	if len(results) > 0 {
		top := results[0]
		resp.TopPick = &top
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /sessions/{sessionID}/refresh
//
// The refresh runs in the background; clients poll recommendations until
// metadata.busy clears.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	// busy is set before the response goes out so an immediate poll sees it
	ctx, cancel := context.WithTimeout(context.Background(), h.RefreshTimeout)
	done := s.Orchestrator.RefreshAsync(ctx, true)
	go func() {
		defer cancel()
		if err := <-done; err != nil {
			h.logger.Warn().Err(err).Str("session_id", s.ID).Msg("refresh")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"session_id": s.ID,
		"busy":       true,
	})
}
