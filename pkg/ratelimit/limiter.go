package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter paces outbound calls to an external provider. It combines a
// sliding-window request budget with a minimum spacing between consecutive
// requests, so a burst never exceeds the provider's throughput limit even
// when the window still has headroom.
type Limiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	spacing  time.Duration
	requests []time.Time
	last     time.Time
}

// New creates a Limiter allowing limit requests per window. The minimum
// spacing between requests is derived as window/limit.
func New(limit int, window time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		limit:   limit,
		window:  window,
		spacing: window / time.Duration(limit),
	}
}

// Spacing returns the minimum delay between consecutive requests.
func (l *Limiter) Spacing() time.Duration {
	return l.spacing
}

// Allow reports whether a request may proceed right now, consuming budget
// when it may.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.reserve(now) {
		return true
	}
	return false
}

// Wait blocks until the limiter grants a slot or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		if l.reserve(now) {
			l.mu.Unlock()
			return nil
		}
		delay := l.nextDelay(now)
		l.mu.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve consumes a slot when both the window budget and the spacing
// constraint permit. Caller must hold l.mu.
func (l *Limiter) reserve(now time.Time) bool {
	l.prune(now)

	if len(l.requests) >= l.limit {
		return false
	}
	if !l.last.IsZero() && now.Sub(l.last) < l.spacing {
		return false
	}

	l.requests = append(l.requests, now)
	l.last = now
	return true
}

// nextDelay returns how long to sleep before the next reserve attempt.
// Caller must hold l.mu.
func (l *Limiter) nextDelay(now time.Time) time.Duration {
	delay := time.Millisecond

	if !l.last.IsZero() {
		if d := l.spacing - now.Sub(l.last); d > delay {
			delay = d
		}
	}
	if len(l.requests) >= l.limit {
		if d := l.requests[0].Add(l.window).Sub(now); d > delay {
			delay = d
		}
	}
	return delay
}

// prune drops requests that fell out of the window. Caller must hold l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	valid := l.requests[:0]
	for _, t := range l.requests {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	l.requests = valid
}
