package persist

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Default retry delays for failed slot writes.
const (
	DefaultBackoffInitial = 50 * time.Millisecond
	DefaultBackoffMax     = 2 * time.Second
)

// retryPolicy retries a write with capped exponential delays.
type retryPolicy struct {
	retries int
	initial time.Duration
	max     time.Duration
	jitter  func(time.Duration) time.Duration
}

func newRetryPolicy(retries int, initial, max time.Duration) retryPolicy {
	return retryPolicy{retries: retries, initial: initial, max: max, jitter: jitter20}
}

// delay returns the wait before retry n (1-based), without jitter.
func (p retryPolicy) delay(n int) time.Duration {
	d := p.initial
	for i := 1; i < n && d < p.max; i++ {
		d *= 2
	}
	if d > p.max {
		d = p.max
	}
	return d
}

// do runs fn until it succeeds or the retries are spent. onRetry is called
// before each wait. A cancelled ctx stops the loop and its error is joined
// to the last write error.
func (p retryPolicy) do(ctx context.Context, onRetry func(n int, wait time.Duration), fn func() error) error {
	err := fn()
	for n := 1; err != nil && n <= p.retries; n++ {
		wait := p.jitter(p.delay(n))
		if onRetry != nil {
			onRetry(n, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(err, ctx.Err())
		case <-t.C:
		}
		err = fn()
	}
	return err
}

// jitter20 spreads d by ±20%.
func jitter20(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.8 + 0.4*rand.Float64()))
}
