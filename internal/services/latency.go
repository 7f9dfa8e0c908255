package services

import (
	"context"
	"math/rand/v2"
	"time"
)

// Latency simulates the network round trip of a backend call: every facade
// operation waits a uniformly random duration in [Min, Max] before touching
// the store. The zero value disables the delay.
//
// Because each call draws its own delay, two calls issued back to back may
// apply in either order.
type Latency struct {
	Min time.Duration
	Max time.Duration
}

// DefaultLatency matches the 100–800ms spread of the mock backend.
var DefaultLatency = Latency{Min: 100 * time.Millisecond, Max: 800 * time.Millisecond}

// Draw returns the delay for one call.
func (l Latency) Draw() time.Duration {
	if l.Max <= 0 {
		return 0
	}
	lo, hi := l.Min, l.Max
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

// Wait sleeps for one drawn delay. A context cancelled during the wait aborts
// the call before it has any effect; after the wait the mutation applies
// unconditionally.
func (l Latency) Wait(ctx context.Context) error {
	d := l.Draw()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
