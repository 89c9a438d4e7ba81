// Package store persists the per-session records (taste profile, behavior
// log, location preferences) as flat JSON blobs behind a key/value Backend.
//
// Reads never fail: a missing key or an unreadable blob yields the record's
// default value.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/logging"
	"github.com/actuallystonmai/venue-recommender/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by a Backend when the key does not exist.
var ErrNotFound = errors.New("record not found")

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// sessionDeleter is implemented by backends that can drop every record of a
// session in one pass.
type sessionDeleter interface {
	DeleteSessions(ctx context.Context, pattern string) (int, error)
}

const (
	RecordProfile  = "profile"
	RecordBehavior = "behavior"
	RecordLocation = "location"
)

func buildKey(sessionID, record string) string {
	return fmt.Sprintf("taste:session:%s:%s", sessionID, record)
}

// Records reads and writes the three records of one session.
type Records struct {
	backend   Backend
	sessionID string
	logger    zerolog.Logger
}

func NewRecords(backend Backend, sessionID string) *Records {
	return &Records{
		backend:   backend,
		sessionID: sessionID,
		logger: logging.With().
			Str("component", "store").
			Str("session_id", sessionID).
			Logger(),
	}
}

// LoadProfile returns nil when no profile has been created yet.
func (r *Records) LoadProfile(ctx context.Context) *domain.TasteProfile {
	return load[*domain.TasteProfile](ctx, r, RecordProfile, nil)
}

// SaveProfile writes p, or removes the record when p is nil.
func (r *Records) SaveProfile(ctx context.Context, p *domain.TasteProfile) error {
	if p == nil {
		return r.remove(ctx, RecordProfile)
	}
	return r.save(ctx, RecordProfile, p)
}

func (r *Records) LoadBehavior(ctx context.Context) *domain.BehaviorLog {
	b := load[*domain.BehaviorLog](ctx, r, RecordBehavior, nil)
	if b == nil {
		return domain.NewBehaviorLog()
	}
	return b
}

func (r *Records) SaveBehavior(ctx context.Context, b *domain.BehaviorLog) error {
	if b == nil {
		return r.remove(ctx, RecordBehavior)
	}
	return r.save(ctx, RecordBehavior, b)
}

func (r *Records) LoadLocation(ctx context.Context) domain.LocationPreferences {
	prefs := load(ctx, r, RecordLocation, domain.LocationPreferences{})
	if prefs.ManualLocation != nil && !prefs.ManualLocation.Valid() {
		prefs.ManualLocation = nil
	}
	if prefs.DeviceLocation != nil && !prefs.DeviceLocation.Valid() {
		prefs.DeviceLocation = nil
	}
	return prefs
}

func (r *Records) SaveLocation(ctx context.Context, prefs domain.LocationPreferences) error {
	return r.save(ctx, RecordLocation, prefs)
}

// Clear removes every record of the session.
func (r *Records) Clear(ctx context.Context) error {
	if d, ok := r.backend.(sessionDeleter); ok {
		n, err := d.DeleteSessions(ctx, r.sessionID)
		if err != nil {
			metrics.PersistenceFailures.WithLabelValues("session", "delete").Inc()
			return fmt.Errorf("delete session records: %w", err)
		}
		r.logger.Debug().Int("keys", n).Msg("session records cleared")
		return nil
	}

	var errs []error
	for _, record := range []string{RecordProfile, RecordBehavior, RecordLocation} {
		if err := r.remove(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func load[T any](ctx context.Context, r *Records, record string, def T) T {
	raw, err := r.backend.Get(ctx, buildKey(r.sessionID, record))
	if errors.Is(err, ErrNotFound) {
		return def
	}
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues(record, "read").Inc()
		r.logger.Warn().Err(err).Str("record", record).Msg("load record, using default")
		return def
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		metrics.PersistenceFailures.WithLabelValues(record, "decode").Inc()
		r.logger.Warn().Err(err).Str("record", record).Msg("corrupt record, using default")
		return def
	}
	return out
}

func (r *Records) save(ctx context.Context, record string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", record, err)
	}
	if err := r.backend.Set(ctx, buildKey(r.sessionID, record), raw); err != nil {
		metrics.PersistenceFailures.WithLabelValues(record, "write").Inc()
		return fmt.Errorf("save %s record: %w", record, err)
	}
	return nil
}

func (r *Records) remove(ctx context.Context, record string) error {
	if err := r.backend.Delete(ctx, buildKey(r.sessionID, record)); err != nil {
		metrics.PersistenceFailures.WithLabelValues(record, "delete").Inc()
		return fmt.Errorf("delete %s record: %w", record, err)
	}
	return nil
}

// Exists reports whether any record of the session is stored.
func (r *Records) Exists(ctx context.Context) bool {
	for _, record := range []string{RecordProfile, RecordBehavior, RecordLocation} {
		if _, err := r.backend.Get(ctx, buildKey(r.sessionID, record)); err == nil {
			return true
		}
	}
	return false
}
