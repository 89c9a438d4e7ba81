package router

import (
	"context"
	"net/http"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/handler"
	"github.com/actuallystonmai/venue-recommender/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports a named dependency as unhealthy by returning an error.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	// SearchRatePerMinute limits search calls per client IP; 0 disables it.
	SearchRatePerMinute int
	HealthChecks        []HealthCheck
}

func Setup(h *handler.Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Routes
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Delete("/", h.DeleteSession)

		r.Put("/location", h.SetLocation)
		r.Get("/preferences", h.GetPreferences)
		r.Put("/preferences", h.SetPreferences)

		r.Get("/recommendations", h.GetRecommendations)
		r.Post("/refresh", h.Refresh)

		r.Post("/interactions", h.RecordInteraction)
		r.Post("/visits", h.RecordVisit)
		r.Post("/dish-views", h.RecordDishView)
		r.Get("/behavior", h.GetBehavior)
		r.Put("/saved/{venueID}", h.SetSaved)
		r.Delete("/saved/{venueID}", h.SetSaved)

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Delete("/profile", h.ResetProfile)

		r.Group(func(r chi.Router) {
			if opts.SearchRatePerMinute > 0 {
				r.Use(httprate.LimitByIP(opts.SearchRatePerMinute, time.Minute))
			}
			r.Get("/search", h.Search)
		})
	})
	r.Get("/venues/{venueID}/tags", h.GetVenueTags)

	r.Get("/health", healthCheck(opts.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func healthCheck(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]any{"status": "ok"}

		deps := make(map[string]string, len(checks))
		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := c.Check(ctx)
			cancel()
			if err != nil {
				deps[c.Name] = err.Error()
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				continue
			}
			deps[c.Name] = "ok"
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logging.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
