package ringcentral

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rc-tools/rccalllog/internal/clock"
)

// RetryPolicy bounds how a single call is repeated after HTTP 429 or a
// transient failure (5xx, network error).
type RetryPolicy struct {
	MaxRetries int
	// RetryAfterDefault is used for 429 responses without a Retry-After header.
	RetryAfterDefault time.Duration
	// InitialBackoff and MaxBackoff shape the exponential wait for transient
	// failures.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy waits 60s after a bare 429 and 2s, 4s, 8s... capped at
// 30s after transient failures, for at most 3 retries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		RetryAfterDefault: 60 * time.Second,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        30 * time.Second,
	}
}

// retryBackOff picks the next wait from the last observed error: a rate
// limit uses the provider's Retry-After hint, anything else falls back to
// exponential backoff.
type retryBackOff struct {
	exp               *backoff.ExponentialBackOff
	retryAfterDefault time.Duration
	minRateLimitWait  time.Duration
	pending           time.Duration
}

func newRetryBackOff(p RetryPolicy, throttleInterval time.Duration) *retryBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialBackoff
	exp.MaxInterval = p.MaxBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()

	return &retryBackOff{
		exp:               exp,
		retryAfterDefault: p.RetryAfterDefault,
		// a rate-limit pause is always longer than the courtesy interval
		minRateLimitWait: 2 * throttleInterval,
	}
}

func (b *retryBackOff) observe(err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind() != KindRateLimited {
		return
	}
	wait := apiErr.RetryAfter
	if wait <= 0 {
		wait = b.retryAfterDefault
	}
	if wait < b.minRateLimitWait {
		wait = b.minRateLimitWait
	}
	b.pending = wait
}

func (b *retryBackOff) NextBackOff() time.Duration {
	if b.pending > 0 {
		wait := b.pending
		b.pending = 0
		return wait
	}
	return b.exp.NextBackOff()
}

func (b *retryBackOff) Reset() {
	b.exp.Reset()
	b.pending = 0
}

// clockTimer drives backoff waits through a clock.Clock so tests never sleep.
type clockTimer struct {
	ctx   context.Context
	clock clock.Clock
	c     chan time.Time
}

func newClockTimer(ctx context.Context, clk clock.Clock) *clockTimer {
	return &clockTimer{ctx: ctx, clock: clk, c: make(chan time.Time, 1)}
}

func (t *clockTimer) Start(d time.Duration) {
	if err := t.clock.Sleep(t.ctx, d); err != nil {
		return
	}
	select {
	case t.c <- t.clock.Now():
	default:
	}
}

func (t *clockTimer) Stop() {}

func (t *clockTimer) C() <-chan time.Time { return t.c }

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
