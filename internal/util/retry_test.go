// ABOUTME: Tests for the provider retry delay schedule
// ABOUTME: Checks doubling, the cap, jitter bounds and degenerate inputs
package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_DelayWithoutJitter(t *testing.T) {
	tests := []struct {
		name    string
		backoff Backoff
		n       int
		want    time.Duration
	}{
		{"no retry yet", Backoff{Base: time.Second}, 0, 0},
		{"negative retry", Backoff{Base: time.Second}, -5, 0},
		{"zero base", Backoff{}, 3, 0},
		{"negative base", Backoff{Base: -time.Second}, 2, 0},
		{"first retry doubles", Backoff{Base: 100 * time.Millisecond}, 1, 200 * time.Millisecond},
		{"third retry", Backoff{Base: 100 * time.Millisecond}, 3, 800 * time.Millisecond},
		{"default cap", Backoff{Base: time.Second}, 10, DefaultMaxDelay},
		{"huge retry count", Backoff{Base: time.Nanosecond}, 1000, DefaultMaxDelay},
		{"custom cap", Backoff{Base: time.Second, Max: 5 * time.Second}, 4, 5 * time.Second},
		{"base above cap", Backoff{Base: time.Minute, Max: 5 * time.Second}, 1, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.backoff.Delay(tt.n))
		})
	}
}

func TestBackoff_JitterBounds(t *testing.T) {
	b := NewBackoff(time.Second)

	// Extremes of the random draw land exactly on ±25%
	b.randN = func(int64) int64 { return 0 }
	assert.Equal(t, 3*time.Second, b.Delay(2))
	b.randN = func(n int64) int64 { return n - 1 }
	assert.Equal(t, 5*time.Second, b.Delay(2))

	b.randN = nil
	seen := map[time.Duration]bool{}
	for i := 0; i < 50; i++ {
		d := b.Delay(2)
		assert.GreaterOrEqual(t, d, 3*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
		seen[d] = true
	}
	assert.Greater(t, len(seen), 1, "jitter should vary the delay")
}

func TestBackoff_TooSmallToJitter(t *testing.T) {
	assert.Equal(t, 2*time.Nanosecond, NewBackoff(time.Nanosecond).Delay(1))
}
