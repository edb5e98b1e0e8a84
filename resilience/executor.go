package resilience

import (
	"context"
	"sync"
	"time"
)

// stage is one layer of an Executor.
type stage interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// Executor composes resilience patterns. Layers run outermost first:
// rate limiter, bulkhead, circuit breaker, retry, timeout. Each retry
// attempt gets its own timeout, and the breaker sees one outcome per call.
type Executor struct {
	limiter  *RateLimiter
	bulkhead *Bulkhead
	breaker  *CircuitBreaker
	retry    *Retry
	timeout  *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor. With no options it calls op directly.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.limiter = rl }
}

func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.breaker = cb }
}

func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(d) }
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker { return e.breaker }

// Execute runs op through every configured layer.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	run := op
	for _, s := range e.stages() {
		inner := run
		run = func(ctx context.Context) error { return s.Execute(ctx, inner) }
	}
	return run(ctx)
}

// stages lists configured layers innermost first.
func (e *Executor) stages() []stage {
	var out []stage
	if e.timeout != nil {
		out = append(out, e.timeout)
	}
	if e.retry != nil {
		out = append(out, e.retry)
	}
	if e.breaker != nil {
		out = append(out, e.breaker)
	}
	if e.bulkhead != nil {
		out = append(out, e.bulkhead)
	}
	if e.limiter != nil {
		out = append(out, e.limiter)
	}
	return out
}

// Do runs fn through e and returns its value. The value of a failed or
// abandoned attempt is discarded.
func Do[T any](ctx context.Context, e *Executor, fn func(context.Context) (T, error)) (T, error) {
	var (
		mu   sync.Mutex
		out  T
		done bool
	)
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		if !done {
			out = v
		}
		mu.Unlock()
		return nil
	})

	mu.Lock()
	defer mu.Unlock()
	done = true
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
