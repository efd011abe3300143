package session

import (
	"sync"
	"time"
)

// RateLimiter enforces a per-node sliding-window cap (§4.5: "per-node
// sliding window (default 10 messages/minute)"). The caller,
// Session.HandleLine, drops excess messages with no reply and sends no
// notice; this type only answers "is this one allowed right now."
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[uint32][]time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window, hits: make(map[uint32][]time.Time)}
}

// Allow records one hit for node at now and reports whether it falls
// within the limit. now is passed in (not time.Now()) so callers in a
// test can drive the window deterministically.
func (r *RateLimiter) Allow(node uint32, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.window)
	hits := r.hits[node]
	kept := hits[:0]
	for _, h := range hits {
		if h.After(cutoff) {
			kept = append(kept, h)
		}
	}
	if len(kept) >= r.limit {
		r.hits[node] = kept
		return false
	}
	r.hits[node] = append(kept, now)
	return true
}
