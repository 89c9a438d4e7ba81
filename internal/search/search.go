// Package search runs free-text queries against the external venue index and
// layers the session's cuisine preferences on top of the raw hits.
package search

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/logging"
	"github.com/actuallystonmai/venue-recommender/internal/metrics"
	"github.com/rs/zerolog"
)

const DefaultLimit = 10

// ErrSuperseded is returned when a newer query replaced this one before its
// result could be applied.
var ErrSuperseded = errors.New("search superseded by a newer query")

// Backend is the external search index. It owns ranking of raw hits.
type Backend interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
}

// Behavior is the part of the behavior tracker the searcher needs.
type Behavior interface {
	RecordSearch(query string)
	ShouldBoostCuisine(cuisine string) bool
	Snapshot() *domain.BehaviorLog
}

type Service struct {
	backend  Backend
	behavior Behavior
	limit    int
	logger   zerolog.Logger
}

func NewService(backend Backend, behavior Behavior, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{
		backend:  backend,
		behavior: behavior,
		limit:    limit,
		logger:   logging.With().Str("component", "search").Logger(),
	}
}

// Search never fails: blank queries and backend errors both yield an empty
// slice.
func (s *Service) Search(ctx context.Context, query string) []domain.SearchHit {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchHit{}
	}
	if s.behavior != nil {
		s.behavior.RecordSearch(query)
	}
	if s.backend == nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return []domain.SearchHit{}
	}

	hits, err := s.backend.Search(ctx, query, s.limit)
	if err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Str("query", query).Msg("search backend failed")
		return []domain.SearchHit{}
	}
	metrics.SearchRequests.WithLabelValues("ok").Inc()

	return s.merge(query, hits)
}

// merge puts suggestions for matching preferred cuisines first, then hits in
// a boosted cuisine, then the rest in backend order.
func (s *Service) merge(query string, hits []domain.SearchHit) []domain.SearchHit {
	if s.behavior == nil {
		return truncate(hits, s.limit)
	}

	merged := make([]domain.SearchHit, 0, len(hits)+domain.PreferredCuisineCount)
	merged = append(merged, s.cuisineSuggestions(query, hits)...)

	boosted := make([]domain.SearchHit, len(hits))
	copy(boosted, hits)
	sort.SliceStable(boosted, func(i, j int) bool {
		return s.boosted(boosted[i]) && !s.boosted(boosted[j])
	})
	merged = append(merged, boosted...)

	return truncate(merged, s.limit)
}

func (s *Service) boosted(h domain.SearchHit) bool {
	return h.Cuisine != "" && s.behavior.ShouldBoostCuisine(h.Cuisine)
}

func (s *Service) cuisineSuggestions(query string, hits []domain.SearchHit) []domain.SearchHit {
	log := s.behavior.Snapshot()
	if log == nil {
		return nil
	}
	q := strings.ToLower(query)

	var out []domain.SearchHit
	for _, cuisine := range log.PreferredCuisines {
		lc := strings.ToLower(cuisine)
		if !strings.Contains(lc, q) && !strings.Contains(q, lc) {
			continue
		}
		if hasCuisineHit(hits, cuisine) {
			continue
		}
		out = append(out, domain.SearchHit{
			ID:       "cuisine:" + lc,
			Type:     domain.HitCuisine,
			Name:     cuisine,
			Subtitle: "You visit these often",
			Route:    "/search?cuisine=" + lc,
			Cuisine:  cuisine,
		})
	}
	return out
}

func hasCuisineHit(hits []domain.SearchHit, cuisine string) bool {
	for _, h := range hits {
		if h.Type == domain.HitCuisine && strings.EqualFold(h.Name, cuisine) {
			return true
		}
	}
	return false
}

func truncate(hits []domain.SearchHit, limit int) []domain.SearchHit {
	if hits == nil {
		return []domain.SearchHit{}
	}
	if limit > 0 && len(hits) > limit {
		return hits[:limit]
	}
	return hits
}
