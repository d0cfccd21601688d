package ratelimit

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			calls:    5,
			wantPass: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for range tt.calls {
				if rl.Allow("tv") {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_WaitContextCancelled(t *testing.T) {
	rl := New(0.1, 1) // One request per 10 seconds
	defer rl.Stop()

	rl.Allow("movie")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx, "movie"); err == nil {
		t.Error("Wait() should fail when context canceled")
	}
}

func TestKeyedRateLimiter_WaitImmediateWithinBurst(t *testing.T) {
	rl := New(1, 2)
	defer rl.Stop()

	start := time.Now()
	for range 2 {
		if err := rl.Wait(context.Background(), "tv"); err != nil {
			t.Fatalf("Wait() failed: %v", err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Wait() within burst should not block")
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("tv")
	if rl.Allow("tv") {
		t.Error("tv should be exhausted")
	}

	if !rl.Allow("movie") {
		t.Error("movie should be independent and allowed")
	}
}

func TestKeyedRateLimiter_EvictsIdleKeys(t *testing.T) {
	rl := NewWithIdleTTL(1, 1, time.Hour)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("tv")
	rl.Allow("movie")
	if rl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rl.Len())
	}

	now = now.Add(45 * time.Minute)
	rl.Allow("movie")

	now = now.Add(30 * time.Minute)
	rl.evictIdle()

	if rl.Len() != 1 {
		t.Errorf("Len() after eviction = %d, want 1", rl.Len())
	}
}

func TestKeyedRateLimiter_StopNoLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := NewWithIdleTTL(5, 1, time.Millisecond)
	rl.Allow("tv")
	time.Sleep(5 * time.Millisecond)
	rl.Stop()
	rl.Stop() // idempotent
}
