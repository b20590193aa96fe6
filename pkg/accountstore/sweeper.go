package accountstore

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/accountstore/internal/ports"
)

// SweeperConfig holds configuration for the periodic stale-account check.
// When enabled, the store periodically evaluates whether the account has
// stayed unconfirmed past the cleanup window or outlived its deletion grace
// period.
type SweeperConfig struct {
	// Enabled controls whether the sweeper runs. Default: false
	Enabled bool

	// Interval is how often the account is checked.
	// Default: 1 hour
	Interval time.Duration

	// PurgeStale logs the account out when it is eligible for cleanup,
	// dropping the local state.
	PurgeStale bool
}

// DefaultSweeperConfig returns a SweeperConfig with sensible defaults.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Enabled:  true,
		Interval: time.Hour,
	}
}

// WithSweeper enables the periodic stale-account check.
//
// Usage:
//
//	s, err := accountstore.New(cfg,
//	    accountstore.WithSweeper(accountstore.SweeperConfig{
//	        Enabled:    true,
//	        Interval:   10 * time.Minute,
//	        PurgeStale: true,
//	    }),
//	)
func WithSweeper(cfg SweeperConfig) Option {
	if !cfg.Enabled {
		return func(o *options) {} // No-op if not enabled
	}

	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}

	return func(o *options) {
		o.sweeperConfig = &cfg
	}
}

// SweepResult reports what a sweep found.
type SweepResult struct {
	Status Status `json:"status"`

	// EligibleForCleanup is true when the account stayed NewAccount past
	// the cleanup window.
	EligibleForCleanup bool `json:"eligible_for_cleanup"`

	// GraceElapsed is true when a deletion request is older than the
	// grace period.
	GraceElapsed bool `json:"grace_elapsed"`

	// Purged is true when the sweep logged the account out.
	Purged bool `json:"purged"`
}

// sweeper manages the periodic check goroutine.
type sweeper struct {
	interval   time.Duration
	purgeStale bool

	store  *AccountStore
	logger ports.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSweeper(cfg SweeperConfig, store *AccountStore, logger ports.Logger) *sweeper {
	return &sweeper{
		interval:   cfg.Interval,
		purgeStale: cfg.PurgeStale,
		store:      store,
		logger:     logger,
	}
}

func (s *sweeper) start(ctx context.Context) {
	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.logger.Info("account sweeper enabled", ports.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.loop(sweepCtx)
}

func (s *sweeper) stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *sweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	// Run immediately on startup
	s.once(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.once(ctx)
		}
	}
}

func (s *sweeper) once(ctx context.Context) {
	if _, err := s.store.sweep(ctx, s.purgeStale); err != nil {
		s.logger.Error("account sweep failed", ports.Err(err))
	}
}

// sweep evaluates the derived queries once and purges if asked to.
func (a *AccountStore) sweep(ctx context.Context, purge bool) (SweepResult, error) {
	lc := a.store.Lifecycle()
	res := SweepResult{
		Status:             lc.Status(),
		EligibleForCleanup: lc.IsEligibleForCleanup(),
	}
	res.GraceElapsed = res.Status == StatusPendingDeletion && !lc.IsInGracePeriod()

	if res.GraceElapsed {
		a.logger.Info("deletion grace period elapsed")
	}
	if !res.EligibleForCleanup {
		return res, nil
	}

	a.logger.Info("account eligible for cleanup", ports.Bool("purge", purge))
	if !purge {
		return res, nil
	}
	if err := a.Logout(ctx); err != nil {
		return res, err
	}
	res.Purged = true
	return res, nil
}
