package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/raidboard/raidboard-server/internal/clock"
	"github.com/raidboard/raidboard-server/internal/domain"
)

// DefaultSweepInterval is how often expired and invalid raids are evicted.
const DefaultSweepInterval = 60 * time.Second

// Sweeper evicts raids on a fixed interval, independent of command handling.
type Sweeper struct {
	raids    *RaidService
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a stopped sweeper. A non-positive interval uses DefaultSweepInterval.
func NewSweeper(raids *RaidService, clk clock.Clock, interval time.Duration, logger *slog.Logger) *Sweeper {
	if clk == nil {
		clk = clock.System{}
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		raids:    raids,
		clock:    clk,
		interval: interval,
		logger:   logger,
	}
}

// Interval returns the sweep period.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// Start runs the sweep loop in the background until Stop or ctx is done.
// Calling Start on a running sweeper does nothing.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger.Info("raid sweeper started", "interval", s.interval)
}

// Stop stops the ticker and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()

	s.logger.Info("raid sweeper stopped")
}

// Sweep runs one eviction pass at the clock's current time.
func (s *Sweeper) Sweep(ctx context.Context) map[domain.EvictionReason]int {
	counts := s.raids.Evict(ctx, s.clock.Now())

	expired, invalid := counts[domain.EvictionExpired], counts[domain.EvictionInvalid]
	if expired+invalid > 0 {
		s.logger.Info("raids evicted",
			"expired", expired,
			"invalid", invalid,
			"remaining", s.raids.Len())
	}
	return counts
}
