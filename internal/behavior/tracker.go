// Package behavior keeps the rolling search/visit/view history of a session
// and derives soft preference signals from it.
package behavior

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/logging"
	"github.com/rs/zerolog"
)

const (
	persistTimeout = 2 * time.Second

	// spicyThreshold is how many viewed dishes must look spicy before the
	// session is considered to like spicy food.
	spicyThreshold = 2
)

var SpicyKeywords = []string{"spicy", "hot", "pepper", "chili", "suya"}

type Persister interface {
	SaveBehavior(ctx context.Context, b *domain.BehaviorLog) error
}

type Tracker struct {
	mu        sync.RWMutex
	log       *domain.BehaviorLog
	persister Persister
	now       func() time.Time
	logger    zerolog.Logger
}

// NewTracker wraps an existing log; nil starts an empty one. Derived fields
// are recomputed from the raw lists so a stale record cannot disagree with
// its own history.
func NewTracker(b *domain.BehaviorLog, persister Persister) *Tracker {
	log := b.Clone()
	if log == nil {
		log = domain.NewBehaviorLog()
	}
	t := &Tracker{
		log:       log,
		persister: persister,
		now:       time.Now,
		logger:    logging.With().Str("component", "behavior").Logger(),
	}
	t.log.PreferredCuisines = topCuisines(t.log.VisitedRestaurants)
	t.log.LikesSpicy = likesSpicy(t.log.ViewedDishes)
	return t
}

// RecordSearch remembers a non-blank query.
func (t *Tracker) RecordSearch(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	t.mu.Lock()
	searches := make([]string, 0, domain.MaxRecentSearches)
	searches = append(searches, query)
	for _, s := range t.log.RecentSearches {
		if !strings.EqualFold(s, query) {
			searches = append(searches, s)
		}
	}
	if len(searches) > domain.MaxRecentSearches {
		searches = searches[:domain.MaxRecentSearches]
	}
	t.log.RecentSearches = searches
	t.log.SearchFrequency++
	snapshot := t.log.Clone()
	t.mu.Unlock()

	t.persist(snapshot)
}

// RecordVisit remembers a restaurant visit and refreshes PreferredCuisines.
func (t *Tracker) RecordVisit(v domain.VisitSummary) {
	if v.ID == "" {
		return
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = t.now()
	}

	t.mu.Lock()
	visits := make([]domain.VisitSummary, 0, len(t.log.VisitedRestaurants)+1)
	visits = append(visits, v)
	for _, existing := range t.log.VisitedRestaurants {
		if existing.ID != v.ID {
			visits = append(visits, existing)
		}
	}
	if len(visits) > domain.MaxVisitedRestaurants {
		visits = visits[:domain.MaxVisitedRestaurants]
	}
	t.log.VisitedRestaurants = visits
	t.log.PreferredCuisines = topCuisines(visits)
	snapshot := t.log.Clone()
	t.mu.Unlock()

	t.persist(snapshot)
}

// RecordDishView remembers a dish view and refreshes LikesSpicy.
func (t *Tracker) RecordDishView(d domain.DishSummary) {
	if d.ID == "" {
		return
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = t.now()
	}

	t.mu.Lock()
	dishes := make([]domain.DishSummary, 0, len(t.log.ViewedDishes)+1)
	dishes = append(dishes, d)
	for _, existing := range t.log.ViewedDishes {
		if existing.ID != d.ID {
			dishes = append(dishes, existing)
		}
	}
	if len(dishes) > domain.MaxViewedDishes {
		dishes = dishes[:domain.MaxViewedDishes]
	}
	t.log.ViewedDishes = dishes
	t.log.LikesSpicy = likesSpicy(dishes)
	snapshot := t.log.Clone()
	t.mu.Unlock()

	t.persist(snapshot)
}

// ShouldBoostCuisine reports whether cuisine overlaps a preferred cuisine.
func (t *Tracker) ShouldBoostCuisine(cuisine string) bool {
	cuisine = strings.ToLower(strings.TrimSpace(cuisine))
	if cuisine == "" {
		return false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, pref := range t.log.PreferredCuisines {
		pref = strings.ToLower(pref)
		if pref == "" {
			continue
		}
		if strings.Contains(pref, cuisine) || strings.Contains(cuisine, pref) {
			return true
		}
	}
	return false
}

func (t *Tracker) Snapshot() *domain.BehaviorLog {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.log.Clone()
}

// Reset clears the history, keeping nothing.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.log = domain.NewBehaviorLog()
	snapshot := t.log.Clone()
	t.mu.Unlock()

	t.persist(snapshot)
}

func (t *Tracker) persist(b *domain.BehaviorLog) {
	if t.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := t.persister.SaveBehavior(ctx, b); err != nil {
		t.logger.Warn().Err(err).Msg("persist behavior log")
	}
}

// topCuisines returns the most frequent cuisines of a most-recent-first
// visit list. Equal counts keep the cuisine seen most recently first.
func topCuisines(visits []domain.VisitSummary) []string {
	type entry struct {
		cuisine string
		count   int
		first   int
	}

	byKey := make(map[string]*entry)
	var order []*entry
	for i, v := range visits {
		c := strings.TrimSpace(v.Cuisine)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		e, ok := byKey[key]
		if !ok {
			e = &entry{cuisine: c, first: i}
			byKey[key] = e
			order = append(order, e)
		}
		e.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	out := make([]string, 0, domain.PreferredCuisineCount)
	for _, e := range order {
		if len(out) == domain.PreferredCuisineCount {
			break
		}
		out = append(out, e.cuisine)
	}
	return out
}

func likesSpicy(dishes []domain.DishSummary) bool {
	matches := 0
	for _, d := range dishes {
		if isSpicy(d.Name) || isSpicy(d.Category) {
			matches++
			if matches >= spicyThreshold {
				return true
			}
		}
	}
	return false
}

func isSpicy(s string) bool {
	s = strings.ToLower(s)
	for _, kw := range SpicyKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
