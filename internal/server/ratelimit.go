package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter throttles scan requests per client: a sliding per-minute
// request cap and a daily upload data quota.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	maxDataPerDay     int64

	clients map[string]*clientUsage
}

// clientUsage tracks one client's recent activity.
type clientUsage struct {
	minuteStart    time.Time
	requestsMinute int

	dayStart time.Time
	dataDay  int64
}

// NewRateLimiter creates a rate limiter. A zero limit disables the
// corresponding check.
func NewRateLimiter(requestsPerMinute int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		maxDataPerDay:     maxDataPerDay,
		clients:           make(map[string]*clientUsage),
	}
}

// Allow checks whether a request of dataSize bytes from the given client
// may proceed, and records it when allowed.
func (rl *RateLimiter) Allow(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	usage, ok := rl.clients[clientID]
	if !ok {
		usage = &clientUsage{minuteStart: now, dayStart: now}
		rl.clients[clientID] = usage
	}

	if now.Sub(usage.minuteStart) >= time.Minute {
		usage.minuteStart = now
		usage.requestsMinute = 0
	}
	if now.Sub(usage.dayStart) >= 24*time.Hour {
		usage.dayStart = now
		usage.dataDay = 0
	}

	if rl.requestsPerMinute > 0 && usage.requestsMinute >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      int64(rl.requestsPerMinute),
			RetryAfter: time.Minute - now.Sub(usage.minuteStart),
		}
	}
	if rl.maxDataPerDay > 0 && usage.dataDay+dataSize > rl.maxDataPerDay {
		return &RateLimitError{
			Type:       "data",
			Limit:      rl.maxDataPerDay,
			RetryAfter: 24*time.Hour - now.Sub(usage.dayStart),
		}
	}

	usage.requestsMinute++
	usage.dataDay += dataSize
	return nil
}

// Usage returns a copy of a client's current counters.
func (rl *RateLimiter) Usage(clientID string) (requestsThisMinute int, dataToday int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if usage, ok := rl.clients[clientID]; ok {
		return usage.requestsMinute, usage.dataDay
	}
	return 0, 0
}

// RateLimitError reports a throttled request.
type RateLimitError struct {
	Type       string // "minute" or "data"
	Limit      int64
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}
