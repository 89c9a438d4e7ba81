// Package profile owns a session's taste profile: it applies observed
// interactions and explicit edits, and scores candidates against it.
package profile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/logging"
	"github.com/rs/zerolog"
)

const persistTimeout = 2 * time.Second

// Persister writes the profile record. A nil profile means the record was
// reset and should be removed.
type Persister interface {
	SaveProfile(ctx context.Context, p *domain.TasteProfile) error
}

// Store holds at most one profile; it is created lazily on the first
// interaction or edit.
type Store struct {
	mu        sync.RWMutex
	profile   *domain.TasteProfile
	persister Persister
	now       func() time.Time
	logger    zerolog.Logger
}

// NewStore wraps an existing (possibly nil) profile. persister may be nil.
func NewStore(p *domain.TasteProfile, persister Persister) *Store {
	return &Store{
		profile:   p.Clone(),
		persister: persister,
		now:       time.Now,
		logger:    logging.With().Str("component", "profile").Logger(),
	}
}

// Edit is an explicit user change. Nil fields are left untouched.
type Edit struct {
	SpiceLevel      *domain.SpiceLevel
	Cuisines        []string
	PricePreference *domain.PriceTier
	Proteins        []string
}

// RecordInteraction folds an observed interaction into the profile.
func (s *Store) RecordInteraction(c domain.Candidate, kind domain.InteractionKind) error {
	switch kind {
	case domain.InteractionView, domain.InteractionSave, domain.InteractionOrder:
	default:
		return fmt.Errorf("record interaction: %w: %q", domain.ErrUnknownInteraction, kind)
	}

	s.mu.Lock()
	p := s.ensure()

	p.VisitedIDs = prependUnique(p.VisitedIDs, c.ID, domain.MaxVisitedIDs)

	if kind != domain.InteractionView {
		if cuisine := c.PrimaryCuisine(); cuisine != "" &&
			!containsFold(p.Cuisines, cuisine) && len(p.Cuisines) < domain.MaxProfileCuisines {
			p.Cuisines = append(p.Cuisines, cuisine)
		}
		for _, vibe := range c.Ambience {
			vibe = strings.TrimSpace(vibe)
			if vibe == "" || containsFold(p.PreferredVibes, vibe) {
				continue
			}
			p.PreferredVibes = appendBounded(p.PreferredVibes, vibe, domain.MaxPreferredVibes)
		}
	}

	now := s.now()
	p.LastInteractionAt = &now
	snapshot := p.Clone()
	s.mu.Unlock()

	s.persist(snapshot)
	return nil
}

// Update applies an explicit edit. Cuisines beyond the cap are dropped.
func (s *Store) Update(e Edit) {
	s.mu.Lock()
	p := s.ensure()
	if e.SpiceLevel != nil {
		p.SpiceLevel = *e.SpiceLevel
	}
	if e.PricePreference != nil {
		p.PricePreference = *e.PricePreference
	}
	if e.Cuisines != nil {
		p.Cuisines = uniqueFold(e.Cuisines, domain.MaxProfileCuisines)
	}
	if e.Proteins != nil {
		p.Proteins = uniqueFold(e.Proteins, 0)
	}
	snapshot := p.Clone()
	s.mu.Unlock()

	s.persist(snapshot)
}

// SetSaved adds or removes a candidate id from the saved set.
func (s *Store) SetSaved(id string, saved bool) {
	s.mu.Lock()
	p := s.ensure()
	idx := indexOf(p.SavedIDs, id)
	switch {
	case saved && idx < 0:
		p.SavedIDs = append(p.SavedIDs, id)
	case !saved && idx >= 0:
		p.SavedIDs = append(p.SavedIDs[:idx], p.SavedIDs[idx+1:]...)
	}
	snapshot := p.Clone()
	s.mu.Unlock()

	s.persist(snapshot)
}

// Reset destroys the profile.
func (s *Store) Reset() {
	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()

	s.persist(nil)
}

// Snapshot returns a deep copy of the profile, or nil if none exists.
func (s *Store) Snapshot() *domain.TasteProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

func (s *Store) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.IsComplete()
}

// CuisineCount is the number of preferred cuisines, 0 without a profile.
func (s *Store) CuisineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return 0
	}
	return len(s.profile.Cuisines)
}

// MatchScore scores c against the current profile.
func (s *Store) MatchScore(c domain.Candidate) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MatchScore(s.profile, c)
}

// ensure must be called with mu held.
func (s *Store) ensure() *domain.TasteProfile {
	if s.profile == nil {
		s.profile = domain.NewTasteProfile()
	}
	return s.profile
}

func (s *Store) persist(p *domain.TasteProfile) {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.SaveProfile(ctx, p); err != nil {
		s.logger.Warn().Err(err).Msg("persist taste profile")
	}
}

func prependUnique(list []string, v string, limit int) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, v)
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// appendBounded appends v and evicts from the front once over limit.
func appendBounded(list []string, v string, limit int) []string {
	list = append(list, v)
	if len(list) > limit {
		list = append([]string{}, list[len(list)-limit:]...)
	}
	return list
}

func uniqueFold(in []string, limit int) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || containsFold(out, v) {
			continue
		}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func indexOf(list []string, v string) int {
	for i, item := range list {
		if item == v {
			return i
		}
	}
	return -1
}
