package auth

import (
	"sync"
	"time"
)

// KeyedLimiter enforces a sliding-window request budget per key, where the
// key is a client IP or an authenticated user ID. Hits for idle keys are
// swept once per window so the map does not grow with every client ever
// seen.
type KeyedLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	hits      map[string][]time.Time
	lastSweep time.Time
}

func newKeyedLimiter(limit int, window time.Duration) *KeyedLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &KeyedLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
	}
}

// NewIPRateLimiter limits requests per client IP per minute.
func NewIPRateLimiter(requestsPerMinute int) *KeyedLimiter {
	return newKeyedLimiter(requestsPerMinute, time.Minute)
}

// NewUserRateLimiter limits requests per authenticated user per minute.
func NewUserRateLimiter(requestsPerMinute int) *KeyedLimiter {
	return newKeyedLimiter(requestsPerMinute, time.Minute)
}

// Allow records a request for key and reports whether it fits the budget.
// Denied requests do not consume budget.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	if now.Sub(l.lastSweep) >= l.window {
		for k, hits := range l.hits {
			if kept := pruneHits(hits, cutoff); len(kept) == 0 {
				delete(l.hits, k)
			} else {
				l.hits[k] = kept
			}
		}
		l.lastSweep = now
	}

	recent := pruneHits(l.hits[key], cutoff)
	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false
	}
	l.hits[key] = append(recent, now)
	return true
}

// Reset clears the recorded hits for a key.
func (l *KeyedLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}

// pruneHits drops hits at or before the cutoff. Hits are appended in time
// order, so the survivors are a suffix.
func pruneHits(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
