package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// BackoffStrategy defines how delays grow between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear adds InitialDelay each attempt.
	BackoffLinear
	// BackoffConstant waits InitialDelay between every attempt.
	BackoffConstant
)

// jitterFactor randomizes exponential delays by up to 25% either way.
const jitterFactor = 0.25

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts counts the initial call. Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry. Default: 50ms
	InitialDelay time.Duration

	// MaxDelay caps any single delay. Default: 5s
	MaxDelay time.Duration

	// Multiplier grows exponential delays. Default: 2.0
	Multiplier float64

	Strategy BackoffStrategy

	// Jitter randomizes exponential delays.
	Jitter bool

	// RetryIf decides whether err is transient. Default: any error except
	// context cancellation, an open circuit, and Permanent errors.
	RetryIf func(err error) bool

	// OnRetry is called before each retry with the attempt that failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry retries an operation with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry handler.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 50 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = transient
	}
	return &Retry{config: config}
}

func transient(err error) bool {
	return err != nil &&
		!IsPermanent(err) &&
		!errors.Is(err, ErrCircuitOpen) &&
		!errors.Is(err, context.Canceled)
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig { return r.config }

// Execute runs op until it succeeds, returns a non-transient error, or
// MaxAttempts is reached. Exhaustion wraps the last error in
// ErrMaxRetriesExceeded.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var (
		attempt int
		stopped bool
	)
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op(ctx)
		if err != nil && !r.config.RetryIf(err) {
			stopped = true
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(r.schedule()),
		backoff.WithMaxTries(uint(r.config.MaxAttempts)),
		backoff.WithNotify(func(err error, d time.Duration) {
			if r.config.OnRetry != nil {
				r.config.OnRetry(attempt, err, d)
			}
		}),
	)
	if err == nil || stopped || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, attempt, err)
}

// schedule returns a fresh backoff for one Execute call.
func (r *Retry) schedule() backoff.BackOff {
	switch r.config.Strategy {
	case BackoffConstant:
		return backoff.NewConstantBackOff(min(r.config.InitialDelay, r.config.MaxDelay))
	case BackoffLinear:
		return &linearBackOff{step: r.config.InitialDelay, max: r.config.MaxDelay}
	default:
		b := &backoff.ExponentialBackOff{
			InitialInterval: r.config.InitialDelay,
			Multiplier:      r.config.Multiplier,
			MaxInterval:     r.config.MaxDelay,
		}
		if r.config.Jitter {
			b.RandomizationFactor = jitterFactor
		}
		b.Reset()
		return b
	}
}

type linearBackOff struct {
	step, max time.Duration
	n         int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.n++
	return min(l.step*time.Duration(l.n), l.max)
}

func (l *linearBackOff) Reset() { l.n = 0 }
