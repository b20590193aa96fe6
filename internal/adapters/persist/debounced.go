// Package persist provides a write-coalescing ports.SlotStore decorator.
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/accountstore/internal/domain"
	"github.com/bft-labs/accountstore/internal/ports"
	"github.com/bft-labs/accountstore/pkg/log"
)

// ErrorHandler is called when a deferred write fails after all retries.
type ErrorHandler func(key string, err error)

// Config holds configuration for a Debounced store.
type Config struct {
	// Delay is how long a slot must stay unchanged before it is written.
	// Default: 100 milliseconds
	Delay time.Duration

	// Retries is the number of extra attempts for a failed write.
	// Default: 3
	Retries int

	// BackoffInitial is the wait before the first retry.
	// Default: 50 milliseconds
	BackoffInitial time.Duration

	// BackoffMax caps the wait between retries.
	// Default: 2 seconds
	BackoffMax time.Duration

	// OnError receives writes that failed permanently.
	OnError ErrorHandler

	Logger ports.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Delay:          100 * time.Millisecond,
		Retries:        3,
		BackoffInitial: DefaultBackoffInitial,
		BackoffMax:     DefaultBackoffMax,
	}
}

// Debounced wraps a SlotStore so that bursts of Set calls on the same slot
// produce a single write. Reads see pending values.
type Debounced struct {
	mu      sync.Mutex
	writeMu sync.Mutex

	inner   ports.SlotStore
	cfg     Config
	logger  ports.Logger
	pending map[string][]byte
	timers  map[string]*time.Timer
	closed  bool
}

// NewDebounced wraps inner.
func NewDebounced(inner ports.SlotStore, cfg Config) *Debounced {
	d := DefaultConfig()
	if cfg.Delay <= 0 {
		cfg.Delay = d.Delay
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = d.BackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = d.BackoffMax
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard
	}
	return &Debounced{
		inner:   inner,
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string][]byte),
		timers:  make(map[string]*time.Timer),
	}
}

// Get returns the pending value for key if there is one, otherwise the
// stored value.
func (d *Debounced) Get(ctx context.Context, key string) ([]byte, error) {
	d.mu.Lock()
	if v, ok := d.pending[key]; ok {
		d.mu.Unlock()
		return append([]byte(nil), v...), nil
	}
	d.mu.Unlock()
	return d.inner.Get(ctx, key)
}

// Set schedules a write of value, replacing any pending write for key.
func (d *Debounced) Set(ctx context.Context, key string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("%w: store closed", domain.ErrStorageUnavailable)
	}

	d.pending[key] = append([]byte(nil), value...)
	if t := d.timers[key]; t != nil {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.cfg.Delay, func() {
		d.flushKey(context.Background(), key)
	})
	return nil
}

// Delete drops any pending write for key and removes the slot immediately.
func (d *Debounced) Delete(ctx context.Context, key string) error {
	d.mu.Lock()
	if t := d.timers[key]; t != nil {
		t.Stop()
		delete(d.timers, key)
	}
	delete(d.pending, key)
	d.mu.Unlock()

	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	return d.inner.Delete(ctx, key)
}

// Flush writes every pending slot now.
func (d *Debounced) Flush(ctx context.Context) error {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for key := range d.pending {
		keys = append(keys, key)
	}
	d.mu.Unlock()

	var errs []error
	for _, key := range keys {
		if err := d.flushKey(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending returns the number of slots waiting to be written.
func (d *Debounced) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close flushes pending writes and closes the wrapped store.
func (d *Debounced) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	flushErr := d.Flush(context.Background())
	return errors.Join(flushErr, d.inner.Close())
}

func (d *Debounced) flushKey(ctx context.Context, key string) error {
	d.mu.Lock()
	value, ok := d.pending[key]
	if t := d.timers[key]; t != nil {
		t.Stop()
		delete(d.timers, key)
	}
	delete(d.pending, key)
	d.mu.Unlock()

	if !ok {
		return nil
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	retry := newRetryPolicy(d.cfg.Retries, d.cfg.BackoffInitial, d.cfg.BackoffMax)
	err := retry.do(ctx, func(n int, wait time.Duration) {
		d.logger.Debug("retrying slot write",
			log.String("key", key),
			log.Int("attempt", n),
			log.Duration("backoff", wait),
		)
	}, func() error {
		return d.inner.Set(ctx, key, value)
	})
	if err == nil {
		return nil
	}

	d.logger.Error("slot write failed", log.String("key", key), log.Err(err))
	if d.cfg.OnError != nil {
		d.cfg.OnError(key, err)
	}
	return fmt.Errorf("write %s: %w", key, err)
}
