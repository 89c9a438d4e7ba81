// Package orchestrator ties one session's taste profile, behavior history and
// location together into a memoized, reasoned recommendation list.
package orchestrator

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/behavior"
	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/geo"
	"github.com/actuallystonmai/venue-recommender/internal/logging"
	"github.com/actuallystonmai/venue-recommender/internal/metrics"
	"github.com/actuallystonmai/venue-recommender/internal/profile"
	"github.com/actuallystonmai/venue-recommender/internal/ranking"
	"github.com/actuallystonmai/venue-recommender/internal/reason"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultLimit        = 6
	DefaultRefreshDelay = 600 * time.Millisecond
	DefaultPoolSize     = 100

	persistTimeout = 2 * time.Second
)

// CandidateSource supplies the venues to rank. The orchestrator never
// mutates what it returns.
type CandidateSource interface {
	ListCandidates(ctx context.Context, limit int) ([]domain.Candidate, error)
}

// LocationPersister writes the location preference record.
type LocationPersister interface {
	SaveLocation(ctx context.Context, prefs domain.LocationPreferences) error
}

type Config struct {
	Ranking ranking.Options
	// Limit caps the list when the caller asks for none.
	Limit        int
	RefreshDelay time.Duration
	// PoolSize is how many candidates LoadCandidates asks the source for.
	PoolSize      int
	DefaultReason string
}

func DefaultConfig() Config {
	return Config{
		Ranking:       ranking.DefaultOptions(),
		Limit:         DefaultLimit,
		RefreshDelay:  DefaultRefreshDelay,
		PoolSize:      DefaultPoolSize,
		DefaultReason: reason.DefaultFallback,
	}
}

type Deps struct {
	Profile     *profile.Store
	Behavior    *behavior.Tracker
	Source      CandidateSource
	Locations   LocationPersister
	Preferences domain.LocationPreferences
}

type Orchestrator struct {
	profile   *profile.Store
	behavior  *behavior.Tracker
	source    CandidateSource
	locations LocationPersister
	cfg       Config
	logger    zerolog.Logger

	mu               sync.Mutex
	candidates       []domain.Candidate
	candidateVersion uint64
	location         *domain.Coordinates
	prefs            domain.LocationPreferences
	trigger          uint64
	refreshGen       uint64
	busy             bool

	memoKey   uint64
	memoValid bool
	memo      []domain.RankedResult

	schedMu   sync.Mutex
	scheduler *scheduler
}

func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.RefreshDelay < 0 {
		cfg.RefreshDelay = 0
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}

	p := deps.Profile
	if p == nil {
		p = profile.NewStore(nil, nil)
	}
	b := deps.Behavior
	if b == nil {
		b = behavior.NewTracker(nil, nil)
	}
	prefs := deps.Preferences
	if prefs.ManualLocation != nil && !prefs.ManualLocation.Valid() {
		prefs.ManualLocation = nil
	}
	var device *domain.Coordinates
	if prefs.DeviceLocation != nil && prefs.DeviceLocation.Valid() {
		c := *prefs.DeviceLocation
		device = &c
	}
	prefs.DeviceLocation = nil

	return &Orchestrator{
		profile:   p,
		behavior:  b,
		source:    deps.Source,
		locations: deps.Locations,
		cfg:       cfg,
		prefs:     prefs,
		location:  device,
		logger:    logging.With().Str("component", "orchestrator").Logger(),
	}
}

func (o *Orchestrator) Profile() *profile.Store     { return o.profile }
func (o *Orchestrator) Behavior() *behavior.Tracker { return o.behavior }

// SetCandidates replaces the candidate set.
func (o *Orchestrator) SetCandidates(candidates []domain.Candidate) {
	cp := make([]domain.Candidate, len(candidates))
	copy(cp, candidates)

	o.mu.Lock()
	o.candidates = cp
	o.candidateVersion++
	o.mu.Unlock()
}

// LoadCandidates pulls a fresh candidate set from the source. On failure the
// previous set is kept.
func (o *Orchestrator) LoadCandidates(ctx context.Context) error {
	if o.source == nil {
		return nil
	}
	candidates, err := o.source.ListCandidates(ctx, o.cfg.PoolSize)
	if err != nil {
		return fmt.Errorf("load candidates: %w", err)
	}
	o.SetCandidates(candidates)
	return nil
}

func (o *Orchestrator) Candidate(id string) (domain.Candidate, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, c := range o.candidates {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Candidate{}, false
}

// SetLocation records the device position and persists it with the location
// preferences.
func (o *Orchestrator) SetLocation(c domain.Coordinates) error {
	if !c.Valid() {
		return domain.ErrInvalidCoordinates
	}
	o.mu.Lock()
	o.location = &c
	record := o.locationRecord()
	o.mu.Unlock()

	o.persistLocation(record)
	return nil
}

// SetPreferences replaces the location preferences and persists them.
func (o *Orchestrator) SetPreferences(prefs domain.LocationPreferences) error {
	if prefs.ManualLocation != nil {
		if !prefs.ManualLocation.Valid() {
			return domain.ErrInvalidCoordinates
		}
		c := *prefs.ManualLocation
		prefs.ManualLocation = &c
	}

	prefs.DeviceLocation = nil

	o.mu.Lock()
	o.prefs = prefs
	record := o.locationRecord()
	o.mu.Unlock()

	o.persistLocation(record)
	return nil
}

// locationRecord builds the stored record. Callers hold o.mu.
func (o *Orchestrator) locationRecord() domain.LocationPreferences {
	record := o.prefs
	if o.location != nil {
		c := *o.location
		record.DeviceLocation = &c
	}
	return record
}

func (o *Orchestrator) persistLocation(record domain.LocationPreferences) {
	if o.locations == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := o.locations.SaveLocation(ctx, record); err != nil {
		o.logger.Warn().Err(err).Msg("persist location preferences")
	}
}

func (o *Orchestrator) Preferences() domain.LocationPreferences {
	o.mu.Lock()
	defer o.mu.Unlock()
	prefs := o.prefs
	if prefs.ManualLocation != nil {
		c := *prefs.ManualLocation
		prefs.ManualLocation = &c
	}
	return prefs
}

// Location is the point rankings are computed from: the manual override if
// set, else the device position, else the city centre.
func (o *Orchestrator) Location() domain.Coordinates {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.effectiveLocation()
}

func (o *Orchestrator) effectiveLocation() domain.Coordinates {
	if o.prefs.ManualLocation != nil {
		return *o.prefs.ManualLocation
	}
	if o.location != nil {
		return *o.location
	}
	return geo.DefaultCenter
}

// Region names the region around the current location. Never empty.
func (o *Orchestrator) Region() string {
	return geo.ResolveRegion(o.Location())
}

func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Results returns the ranked list capped to limit; limit <= 0 uses the
// configured default. The list is recomputed only when the location, the
// number of profile cuisines, the candidate set, the refresh trigger, the
// region preference or the limit changed since the last call.
func (o *Orchestrator) Results(limit int) []domain.RankedResult {
	if limit <= 0 {
		limit = o.cfg.Limit
	}
	cuisines := o.profile.CuisineCount()

	o.mu.Lock()
	defer o.mu.Unlock()

	from := o.effectiveLocation()
	key := o.key(from, cuisines, limit)
	if !o.memoValid || key != o.memoKey {
		o.memo = o.rank(from, limit)
		o.memoKey = key
		o.memoValid = true
	}

	out := make([]domain.RankedResult, len(o.memo))
	copy(out, o.memo)
	return out
}

// TopPick is the first result, if any.
func (o *Orchestrator) TopPick() (domain.RankedResult, bool) {
	results := o.Results(0)
	if len(results) == 0 {
		return domain.RankedResult{}, false
	}
	return results[0], true
}

func (o *Orchestrator) rank(from domain.Coordinates, limit int) []domain.RankedResult {
	opts := o.cfg.Ranking
	opts.Limit = limit
	opts.PreferredRegion = o.prefs.PreferredRegion
	opts.OnlyPreferredRegion = o.prefs.OnlyPreferredRegion

	scored := ranking.Rank(ranking.Input{
		Candidates: o.candidates,
		From:       from,
		Scorer:     o.profile,
		Options:    opts,
	})

	results := make([]domain.RankedResult, len(scored))
	for i, s := range scored {
		results[i] = domain.RankedResult{
			CandidateID:   s.Candidate.ID,
			Name:          s.Candidate.Name,
			Cuisine:       s.Candidate.Cuisine,
			CombinedScore: s.CombinedScore,
			TasteScore:    s.TasteScore,
			DistanceKm:    s.DistanceKm,
			DistanceText:  geo.DistanceToText(s.DistanceKm),
			Region:        s.Region,
		}
	}
	reason.Attach(results, o.cfg.DefaultReason)
	return results
}

func (o *Orchestrator) key(from domain.Coordinates, cuisines, limit int) uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		d.Write(buf[:])
	}
	put(math.Float64bits(from.Latitude))
	put(math.Float64bits(from.Longitude))
	put(uint64(cuisines))
	put(o.candidateVersion)
	put(o.trigger)
	put(uint64(limit))
	if o.prefs.OnlyPreferredRegion {
		put(1)
	} else {
		put(0)
	}
	d.WriteString(o.prefs.PreferredRegion)
	return d.Sum64()
}

// Refresh marks the orchestrator busy, waits the refresh delay and then
// forces the next Results call to recompute. A newer Refresh supersedes an
// older one still waiting: the older one then leaves both the trigger and
// the busy flag alone.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	return o.finishRefresh(ctx, o.beginRefresh(), false)
}

// RefreshAsync marks the orchestrator busy before returning, then reloads
// candidates from the source (when reload is set) and completes the refresh
// in the background. The returned channel receives the outcome.
func (o *Orchestrator) RefreshAsync(ctx context.Context, reload bool) <-chan error {
	gen := o.beginRefresh()
	done := make(chan error, 1)
	go func() {
		done <- o.finishRefresh(ctx, gen, reload)
	}()
	return done
}

func (o *Orchestrator) beginRefresh() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refreshGen++
	o.busy = true
	return o.refreshGen
}

func (o *Orchestrator) finishRefresh(ctx context.Context, gen uint64, reload bool) error {
	if reload {
		// a failed reload keeps the current set
		if err := o.LoadCandidates(ctx); err != nil && ctx.Err() == nil {
			o.logger.Warn().Err(err).Msg("reload candidates")
		}
	}

	timer := time.NewTimer(o.cfg.RefreshDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		o.mu.Lock()
		if gen == o.refreshGen {
			o.busy = false
		}
		o.mu.Unlock()
		metrics.Refreshes.WithLabelValues("cancelled").Inc()
		return ctx.Err()
	case <-timer.C:
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.refreshGen {
		metrics.Refreshes.WithLabelValues("superseded").Inc()
		return nil
	}
	o.trigger++
	o.busy = false
	metrics.Refreshes.WithLabelValues("applied").Inc()
	return nil
}

// RecordInteraction resolves candidateID in the current set and feeds the
// interaction to the taste profile.
func (o *Orchestrator) RecordInteraction(candidateID, kind string) error {
	k, err := domain.ParseInteractionKind(kind)
	if err != nil {
		return err
	}
	c, ok := o.Candidate(candidateID)
	if !ok {
		return fmt.Errorf("candidate %s: %w", candidateID, domain.ErrCandidateNotFound)
	}
	return o.profile.RecordInteraction(c, k)
}

// RecordVisit resolves candidateID and adds it to the behavior history.
func (o *Orchestrator) RecordVisit(candidateID string) error {
	c, ok := o.Candidate(candidateID)
	if !ok {
		return fmt.Errorf("candidate %s: %w", candidateID, domain.ErrCandidateNotFound)
	}
	o.behavior.RecordVisit(domain.VisitSummary{ID: c.ID, Name: c.Name, Cuisine: c.Cuisine})
	return nil
}
