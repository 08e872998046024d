package ringcentral

import (
	"context"
	"sync"
	"time"

	"github.com/rc-tools/rccalllog/internal/clock"
)

// Throttle enforces a constant minimum gap between consecutive outbound
// calls. It never adapts to provider feedback; rate-limit responses are
// handled by the retry policy instead.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	clock    clock.Clock
	last     time.Time
}

// NewThrottle returns a throttle spacing calls at least interval apart.
func NewThrottle(interval time.Duration, clk clock.Clock) *Throttle {
	if clk == nil {
		clk = clock.System{}
	}
	return &Throttle{interval: interval, clock: clk}
}

// Wait blocks until interval has passed since the previous call, then marks
// the current time as the start of a new call.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && t.interval > 0 {
		if wait := t.interval - t.clock.Now().Sub(t.last); wait > 0 {
			if err := t.clock.Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	t.last = t.clock.Now()
	return ctx.Err()
}

// Interval returns the configured gap.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}
