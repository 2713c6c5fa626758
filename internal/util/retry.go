// ABOUTME: Retry delay schedule for provider calls: exponential, capped, jittered
// ABOUTME: Used by the LLM call policy between failed attempts
package util

import (
	"math/rand/v2"
	"time"
)

const (
	// DefaultMaxDelay caps a single retry delay
	DefaultMaxDelay = 30 * time.Second
	// DefaultJitter spreads each delay by up to ±25%
	DefaultJitter = 0.25
)

// Backoff computes the wait before the nth retry: Base doubled per retry,
// capped at Max, then spread by ±Jitter of itself.
type Backoff struct {
	Base time.Duration
	// Max of 0 uses DefaultMaxDelay
	Max time.Duration
	// Jitter is a fraction in [0, 1); 0 disables it
	Jitter float64

	randN func(n int64) int64
}

// NewBackoff returns the schedule used for provider retries
func NewBackoff(base time.Duration) Backoff {
	return Backoff{Base: base, Max: DefaultMaxDelay, Jitter: DefaultJitter}
}

// Delay returns the wait before retry number n (1-based). Zero for n < 1 or a
// non-positive Base, so an unset delay retries immediately.
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 || b.Base <= 0 {
		return 0
	}
	limit := b.Max
	if limit <= 0 {
		limit = DefaultMaxDelay
	}

	d := b.Base
	for i := 0; i < n && d < limit; i++ {
		d *= 2
	}
	if d > limit || d <= 0 {
		d = limit
	}

	span := int64(float64(d) * b.Jitter)
	if span <= 0 {
		return d
	}
	randN := b.randN
	if randN == nil {
		randN = rand.Int64N
	}
	return d + time.Duration(randN(2*span+1)-span)
}
