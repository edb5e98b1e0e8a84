package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is calls per second. Default: 100
	Rate float64

	// Burst is the bucket size. Default: 10
	Burst int

	// WaitOnLimit waits for a token instead of failing fast.
	WaitOnLimit bool

	// MaxWait bounds the wait when WaitOnLimit is set. Default: 1s
	MaxWait time.Duration
}

// RateLimiter caps the call rate into a data source.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter
}

// NewRateLimiter creates a token-bucket rate limiter starting full.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}
	return &RateLimiter{config: config, limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst)}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool { return rl.limiter.Allow() }

// Wait blocks for a token, up to MaxWait.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, rl.config.MaxWait)
	defer cancel()
	if err := rl.limiter.Wait(wctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRateLimitExceeded
	}
	return nil
}

// Execute runs op once a token is available.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.WaitOnLimit {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return ErrRateLimitExceeded
	}
	return op(ctx)
}

// Tokens returns the currently available tokens.
func (rl *RateLimiter) Tokens() float64 { return rl.limiter.Tokens() }
