package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fixedLimiter returns a limiter whose clock only moves when the test advances it.
func fixedLimiter(perSecond float64, burst int) (*Limiter, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(perSecond, burst)
	l.nowFunc = func() time.Time { return now }
	return l, &now
}

func TestAllow_Burst(t *testing.T) {
	l, _ := fixedLimiter(1.0, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("key1") {
			t.Errorf("request %d should be allowed (within burst)", i+1)
		}
	}
	if l.Allow("key1") {
		t.Error("request after burst exhaustion should be rejected")
	}
}

func TestAllow_Refill(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		burst   int
		used    int
		advance time.Duration
		allowed int
	}{
		{"full refill", 10.0, 2, 2, 200 * time.Millisecond, 2},
		{"capped at burst", 100.0, 3, 3, 10 * time.Second, 3},
		{"partial refill", 2.0, 5, 3, 250 * time.Millisecond, 2},
		{"zero rate never refills", 0, 2, 2, time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, now := fixedLimiter(tt.rate, tt.burst)
			for i := 0; i < tt.used; i++ {
				if !l.Allow("k") {
					t.Fatalf("request %d within burst rejected", i+1)
				}
			}
			*now = now.Add(tt.advance)

			got := 0
			for l.Allow("k") {
				got++
				if got > tt.burst {
					t.Fatal("allowed more than burst")
				}
			}
			if got != tt.allowed {
				t.Errorf("allowed %d after refill, want %d", got, tt.allowed)
			}
		})
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	l, _ := fixedLimiter(1.0, 1)

	l.Allow("key1")
	if l.Allow("key1") {
		t.Error("key1 should be exhausted")
	}
	if !l.Allow("key2") {
		t.Error("key2 should be allowed (independent bucket)")
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	l, _ := fixedLimiter(1000.0, 100)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("concurrent-key")
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for a := range allowed {
		if a {
			count++
		}
	}
	if count != 100 {
		t.Errorf("allowed %d requests, want exactly the burst of 100", count)
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()

	tests := []struct {
		tool  string
		burst int
	}{
		{"garden_status", 10},
		{"garden_memories", 10},
		{"garden_census", 5},
		{"garden_plant", 5},
		{"garden_water", 10},
		{"garden_fertilize", 5},
		{"garden_cross", 3},
		{"garden_harvest", 3},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			limiter, ok := limiters[tt.tool]
			if !ok {
				t.Fatalf("missing rate limiter for tool: %s", tt.tool)
			}
			if limiter.Burst() != tt.burst {
				t.Errorf("burst = %d, want %d", limiter.Burst(), tt.burst)
			}
		})
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := ToolLimiters{"garden_cross": NewLimiter(0, 1)}

	if err := CheckLimit(limiters, "unknown_tool", "g"); err != nil {
		t.Errorf("unexpected error for unknown tool: %v", err)
	}
	if err := CheckLimit(limiters, "garden_cross", "north"); err != nil {
		t.Errorf("first call should pass: %v", err)
	}
	if err := CheckLimit(limiters, "garden_cross", "north"); err == nil {
		t.Error("expected rate limit error after burst exhaustion")
	}
	if err := CheckLimit(limiters, "garden_cross", "south"); err != nil {
		t.Errorf("other garden should have its own bucket: %v", err)
	}
}
