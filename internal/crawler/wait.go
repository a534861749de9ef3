package crawler

import (
	"context"
	"math/rand/v2"
	"time"
)

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// jitter returns a duration drawn uniformly from [lo, hi].
func jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

// Throttle pauses for a random duration in [lo, hi] or until ctx is done.
// It is the politeness delay between location visits.
func Throttle(ctx context.Context, lo, hi time.Duration) error {
	return sleep(ctx, jitter(lo, hi))
}
