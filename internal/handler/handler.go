package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/logging"
	"github.com/actuallystonmai/venue-recommender/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	defaultRefreshTimeout = 10 * time.Second
	maxBodyBytes          = 64 << 10
)

// VenueSource looks up a single venue by id.
type VenueSource interface {
	GetCandidate(ctx context.Context, id string) (domain.Candidate, error)
}

type Handler struct {
	sessions *session.Manager
	venues   VenueSource
	validate *validator.Validate
	logger   zerolog.Logger

	// RefreshTimeout bounds a background refresh started by a request.
	RefreshTimeout time.Duration
}

func NewHandler(sessions *session.Manager, venues VenueSource) *Handler {
	return &Handler{
		sessions:       sessions,
		venues:         venues,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		logger:         logging.With().Str("component", "handler").Logger(),
		RefreshTimeout: defaultRefreshTimeout,
	}
}

// session resolves the {sessionID} path parameter, writing the error
// response itself when it fails.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	s, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return nil, false
	}
	return s, true
}

// decode reads a JSON body into v, rejecting unknown fields, and validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return false
	}
	return true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "Session does not exist")
	case errors.Is(err, domain.ErrCandidateNotFound):
		writeError(w, http.StatusNotFound, "venue_not_found", "Venue does not exist")
	case errors.Is(err, domain.ErrUnknownInteraction):
		writeError(w, http.StatusBadRequest, "unknown_interaction", err.Error())
	case errors.Is(err, domain.ErrInvalidCoordinates):
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "Coordinates are out of range")
	// Request timeout
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "Request timed out, please try again")
	default:
		h.logger.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}
