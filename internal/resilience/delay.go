package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RandomDelay sleeps for a uniformly random duration in [min, max].
// It returns early with ctx.Err() if the context is cancelled. Batch
// processing uses this to pace requests so consecutive page loads do
// not arrive at a fixed interval.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	if max < min {
		max = min
	}
	d := min
	if span := max - min; span > 0 {
		d += time.Duration(rand.Int63n(int64(span) + 1))
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
