package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	entryID cron.EntryID
	cancel  context.CancelFunc
}

func newScheduler() *scheduler {
	return &scheduler{cron: cron.New()}
}

func (s *scheduler) every(interval time.Duration, fn func(ctx context.Context)) error {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	if s.cancel != nil {
		s.cancel()
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() { fn(ctx) })
	if err != nil {
		cancel()
		return fmt.Errorf("add cron job: %w", err)
	}
	s.entryID = entryID
	s.cancel = cancel
	s.cron.Start()
	return nil
}

func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	<-s.cron.Stop().Done()
}

// StartAutoRefresh calls Refresh every interval until Stop. Calling it again
// replaces the previous schedule.
func (o *Orchestrator) StartAutoRefresh(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("auto refresh interval must be positive, got %s", interval)
	}

	o.schedMu.Lock()
	defer o.schedMu.Unlock()
	if o.scheduler == nil {
		o.scheduler = newScheduler()
	}
	return o.scheduler.every(interval, func(ctx context.Context) {
		if err := o.Refresh(ctx); err != nil && ctx.Err() == nil {
			o.logger.Warn().Err(err).Msg("auto refresh")
		}
	})
}

// Stop cancels auto refresh and waits for a running tick to finish.
func (o *Orchestrator) Stop() {
	o.schedMu.Lock()
	s := o.scheduler
	o.scheduler = nil
	o.schedMu.Unlock()

	if s != nil {
		s.stop()
	}
}
