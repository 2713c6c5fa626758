// ABOUTME: Call policy shared by provider adapters: timeout, rate limit, circuit breaker, retry
// ABOUTME: Every remote call records request metrics by provider and operation
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harper/ragmem/internal/metrics"
	"github.com/harper/ragmem/internal/util"
)

// Policy controls how provider calls are attempted
type Policy struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// RateLimit is requests per second; 0 disables limiting
	RateLimit float64
	// BreakerFailures opens the breaker after this many consecutive failures; 0 disables it
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open before probing
	BreakerCooldown time.Duration
}

// DefaultPolicy returns the policy used when none is configured
func DefaultPolicy() Policy {
	return Policy{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryDelay:      2 * time.Second,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// caller executes remote calls under a Policy
type caller struct {
	provider string
	policy   Policy
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *zap.Logger
}

func newCaller(provider string, policy Policy, logger *zap.Logger) *caller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &caller{
		provider: provider,
		policy:   policy,
		sleep:    sleepContext,
		logger:   logger,
	}
	if policy.RateLimit > 0 {
		burst := int(policy.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(policy.RateLimit), burst)
	}
	if policy.BreakerFailures > 0 {
		cooldown := policy.BreakerCooldown
		if cooldown <= 0 {
			cooldown = 30 * time.Second
		}
		threshold := policy.BreakerFailures
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        provider,
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("provider", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
			IsSuccessful: func(err error) bool {
				// Cancellation by the caller says nothing about provider health
				return err == nil || errors.Is(err, context.Canceled)
			},
		})
	}
	return c
}

// do runs fn with retries. Each attempt gets its own timeout, waits for the
// rate limiter, and passes through the breaker. An open breaker is not retried.
func (c *caller) do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, util.NewBackoff(c.policy.RetryDelay).Delay(attempt)); err != nil {
				return err
			}
		}

		err := c.attempt(ctx, operation, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%s %s: %w", c.provider, operation, err)
		}

		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		c.logger.Debug("Provider call failed",
			zap.String("provider", c.provider),
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return fmt.Errorf("%s %s failed after %d attempts: %w", c.provider, operation, c.policy.MaxRetries+1, lastErr)
}

func (c *caller) attempt(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	call := func() error {
		callCtx := ctx
		if c.policy.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.policy.Timeout)
			defer cancel()
		}
		start := time.Now()
		err := fn(callCtx)
		metrics.ObserveLLM(c.provider, operation, start, err)
		return err
	}

	if c.breaker == nil {
		return call()
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, call()
	})
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
