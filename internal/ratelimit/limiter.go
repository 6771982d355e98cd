// Package ratelimit provides per-key token bucket rate limiting for MCP tools.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key, all sharing a rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
	nowFunc func() time.Time // injectable clock for testing
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow reports whether a request for key may proceed, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets[key] = b
	}
	now := l.nowFunc()
	l.mu.Unlock()

	return b.AllowN(now, 1)
}

// Burst returns the bucket size.
func (l *Limiter) Burst() int { return l.burst }

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
// Buckets are keyed per garden, so one busy garden cannot starve another.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"garden_status":    NewLimiter(1.0, 10),      // 60/minute, burst 10
		"garden_memories":  NewLimiter(1.0, 10),      // 60/minute, burst 10
		"garden_census":    NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"garden_plant":     NewLimiter(30.0/60.0, 5),
		"garden_water":     NewLimiter(1.0, 10),
		"garden_fertilize": NewLimiter(30.0/60.0, 5),
		"garden_cross":     NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		"garden_harvest":   NewLimiter(10.0/60.0, 3),
	}
}

// CheckLimit checks the rate limit for toolName on gardenID.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName, gardenID string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow(toolName + "/" + gardenID) {
		return fmt.Errorf("rate limit exceeded for %s on garden %s, please try again shortly", toolName, gardenID)
	}
	return nil
}
