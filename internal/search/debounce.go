package search

import (
	"context"
	"sync"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/metrics"
)

const DefaultDebounceWindow = 250 * time.Millisecond

// Searcher is satisfied by *Service.
type Searcher interface {
	Search(ctx context.Context, query string) []domain.SearchHit
}

// Debouncer collapses bursts of queries (one per keystroke) into a single
// backend call. Every Submit bumps a generation; a call only reaches the
// backend if no newer Submit arrived within the window, and its result is
// only applied if no newer Submit arrived while it was in flight.
type Debouncer struct {
	searcher Searcher
	window   time.Duration

	mu          sync.Mutex
	generation  uint64
	latest      []domain.SearchHit
	latestQuery string
}

func NewDebouncer(searcher Searcher, window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{searcher: searcher, window: window}
}

// Submit blocks for the debounce window and then runs the query. It returns
// ErrSuperseded if a newer query replaced this one, or ctx.Err() if ctx ends
// first.
func (d *Debouncer) Submit(ctx context.Context, query string) ([]domain.SearchHit, error) {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.mu.Unlock()

	timer := time.NewTimer(d.window)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if !d.current(gen) {
		metrics.SearchRequests.WithLabelValues("stale").Inc()
		return nil, ErrSuperseded
	}

	hits := d.searcher.Search(ctx, query)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		metrics.SearchRequests.WithLabelValues("stale").Inc()
		return nil, ErrSuperseded
	}
	d.latest = hits
	d.latestQuery = query
	return hits, nil
}

// Latest returns the most recently applied result and its query.
func (d *Debouncer) Latest() (string, []domain.SearchHit) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.SearchHit, len(d.latest))
	copy(out, d.latest)
	return d.latestQuery, out
}

func (d *Debouncer) current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.generation
}
