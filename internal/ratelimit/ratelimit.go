package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter bounds the rate of outbound exchange calls using a sliding
// window: at most `calls` acquisitions complete within any trailing
// `period`. It is safe for concurrent use.
type Limiter struct {
	calls  int
	period time.Duration

	mu     sync.Mutex
	stamps []time.Time

	now func() time.Time // overridable in tests
}

// New creates a Limiter admitting at most calls acquisitions per period.
func New(calls int, period time.Duration) (*Limiter, error) {
	if calls <= 0 {
		return nil, fmt.Errorf("invalid rate limit configuration: calls must be > 0, got %d", calls)
	}
	if period <= 0 {
		return nil, fmt.Errorf("invalid rate limit configuration: period must be > 0, got %v", period)
	}
	return &Limiter{
		calls:  calls,
		period: period,
		now:    time.Now,
	}, nil
}

// Acquire blocks until a call slot is available and reserves it.
// It returns early with the context's error if ctx is cancelled while
// waiting. An explicit retry loop is used; under sustained contention
// the stack does not grow.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil || l.calls <= 0 {
		return fmt.Errorf("invalid rate limit configuration: calls must be > 0")
	}

	for {
		l.mu.Lock()
		now := l.now()

		// Drop timestamps that have left the window.
		cutoff := now.Add(-l.period)
		kept := l.stamps[:0]
		for _, t := range l.stamps {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		l.stamps = kept

		if len(l.stamps) < l.calls {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}

		// Window is full: wait until the oldest entry expires, then
		// re-evaluate from scratch.
		wait := l.period - now.Sub(l.stamps[0])
		l.mu.Unlock()

		if wait <= 0 {
			// The window cleared while we were deciding; retry immediately.
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
