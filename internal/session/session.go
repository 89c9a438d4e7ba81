// Package session holds the live per-session engines of the process.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/behavior"
	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/logging"
	"github.com/actuallystonmai/venue-recommender/internal/metrics"
	"github.com/actuallystonmai/venue-recommender/internal/orchestrator"
	"github.com/actuallystonmai/venue-recommender/internal/profile"
	"github.com/actuallystonmai/venue-recommender/internal/search"
	"github.com/actuallystonmai/venue-recommender/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is one user's engine: its persisted records, the orchestrator that
// owns the mutable state, and the debounced searcher.
type Session struct {
	ID           string
	Orchestrator *orchestrator.Orchestrator
	Search       *search.Debouncer
	Records      *store.Records

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Config struct {
	Orchestrator        orchestrator.Config
	SearchLimit         int
	DebounceWindow      time.Duration
	AutoRefreshInterval time.Duration
}

type Manager struct {
	backend store.Backend
	source  orchestrator.CandidateSource
	search  search.Backend
	cfg     Config
	now     func() time.Time
	logger  zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(backend store.Backend, source orchestrator.CandidateSource, searchBackend search.Backend, cfg Config) *Manager {
	if backend == nil {
		backend = store.NewMemoryBackend()
	}
	return &Manager{
		backend:  backend,
		source:   source,
		search:   searchBackend,
		cfg:      cfg,
		now:      time.Now,
		logger:   logging.With().Str("component", "session").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Create starts a fresh session with a new id.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s, err := m.open(ctx, uuid.NewString())
	if err != nil {
		return nil, err
	}
	// an empty location record marks the id as known across restarts
	if err := s.Records.SaveLocation(ctx, s.Orchestrator.Preferences()); err != nil {
		m.logger.Warn().Err(err).Str("session_id", s.ID).Msg("persist new session")
	}
	return s, nil
}

// Get returns a live session, reviving it from its persisted records if the
// process no longer holds it.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch(m.now())
		return s, nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrSessionNotFound
	}
	if !store.NewRecords(m.backend, id).Exists(ctx) {
		return nil, domain.ErrSessionNotFound
	}
	return m.open(ctx, id)
}

func (m *Manager) open(ctx context.Context, id string) (*Session, error) {
	records := store.NewRecords(m.backend, id)

	o := orchestrator.New(orchestrator.Deps{
		Profile:     profile.NewStore(records.LoadProfile(ctx), records),
		Behavior:    behavior.NewTracker(records.LoadBehavior(ctx), records),
		Source:      m.source,
		Locations:   records,
		Preferences: records.LoadLocation(ctx),
	}, m.cfg.Orchestrator)

	if err := o.LoadCandidates(ctx); err != nil {
		m.logger.Warn().Err(err).Str("session_id", id).Msg("initial candidate load failed")
	}
	if m.cfg.AutoRefreshInterval > 0 {
		if err := o.StartAutoRefresh(m.cfg.AutoRefreshInterval); err != nil {
			return nil, fmt.Errorf("start auto refresh: %w", err)
		}
	}

	svc := search.NewService(m.search, o.Behavior(), m.cfg.SearchLimit)
	s := &Session{
		ID:           id,
		Orchestrator: o,
		Search:       search.NewDebouncer(svc, m.cfg.DebounceWindow),
		Records:      records,
		lastSeen:     m.now(),
	}

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		o.Stop()
		return existing, nil
	}
	m.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	m.logger.Info().Str("session_id", id).Msg("session opened")
	return s, nil
}

// Delete drops a session and all of its persisted records.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	records := store.NewRecords(m.backend, id)
	if ok {
		s.Orchestrator.Stop()
		records = s.Records
	} else if !records.Exists(ctx) {
		return domain.ErrSessionNotFound
	}
	if err := records.Clear(ctx); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Sweep evicts sessions idle for longer than maxIdle from memory. Their
// records stay, so Get can revive them later.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var evicted []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			evicted = append(evicted, s)
			delete(m.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range evicted {
		s.Orchestrator.Stop()
	}
	if len(evicted) > 0 {
		m.logger.Info().Int("evicted", len(evicted)).Msg("swept idle sessions")
	}
	return len(evicted)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops every session's background work.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	metrics.ActiveSessions.Set(0)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Orchestrator.Stop()
	}
}
