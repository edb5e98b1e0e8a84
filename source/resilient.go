package source

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/cachefu/cache"
	"github.com/jonwraymond/cachefu/observe"
	"github.com/jonwraymond/cachefu/resilience"
)

// ResilientConfig selects the layers wrapped around a data source. Nil or
// zero fields leave a layer out.
type ResilientConfig struct {
	// Scope labels log lines, e.g. "Story".
	Scope string

	Retry   *resilience.RetryConfig
	Breaker *resilience.CircuitBreakerConfig

	// Timeout bounds each attempt.
	Timeout time.Duration

	// MaxConcurrent bounds in-flight fetches. MaxWait bounds the time a
	// fetch queues for a slot; zero fails at once when every slot is busy.
	MaxConcurrent int
	MaxWait       time.Duration

	// Rate limits fetches per second, with Burst as the bucket size.
	Rate  float64
	Burst int

	Logger observe.Logger
}

// Resilient decorates a data source with resilience layers.
//
// Errors marked with resilience.Permanent are returned without retrying and
// do not trip the breaker. A FetchOne miss is not an error and is never
// retried.
type Resilient[T cache.Record] struct {
	src  cache.DataSource[T]
	exec *resilience.Executor
}

// NewResilient wraps src.
func NewResilient[T cache.Record](src cache.DataSource[T], cfg ResilientConfig) *Resilient[T] {
	log := cfg.Logger
	if log == nil {
		log = observe.NopLogger()
	}
	log = log.WithOp(observe.OpMeta{Scope: cfg.Scope, Operation: "fetch"})

	var opts []resilience.ExecutorOption
	if cfg.Rate > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        cfg.Rate,
			Burst:       cfg.Burst,
			WaitOnLimit: true,
		})))
	}
	if cfg.MaxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.MaxWait,
		})))
	}
	if cfg.Breaker != nil {
		bc := *cfg.Breaker
		notify := bc.OnStateChange
		bc.OnStateChange = func(from, to resilience.State) {
			log.Warn(context.Background(), "data source circuit changed",
				observe.F("from", from.String()),
				observe.F("to", to.String()),
			)
			if notify != nil {
				notify(from, to)
			}
		}
		opts = append(opts, resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(bc)))
	}
	if cfg.Retry != nil {
		rc := *cfg.Retry
		notify := rc.OnRetry
		rc.OnRetry = func(attempt int, err error, delay time.Duration) {
			log.Warn(context.Background(), "data source retry",
				observe.F("attempt", attempt),
				observe.F("delay", delay.String()),
				observe.F("error", err),
			)
			if notify != nil {
				notify(attempt, err, delay)
			}
		}
		opts = append(opts, resilience.WithRetry(resilience.NewRetry(rc)))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, resilience.WithTimeout(cfg.Timeout))
	}

	return &Resilient[T]{src: src, exec: resilience.NewExecutor(opts...)}
}

// Executor returns the composed executor.
func (r *Resilient[T]) Executor() *resilience.Executor { return r.exec }

type fetched[T any] struct {
	rec   T
	found bool
}

func (r *Resilient[T]) FetchOne(ctx context.Context, id string, opts cache.Options) (T, bool, error) {
	out, err := resilience.Do(ctx, r.exec, func(ctx context.Context) (fetched[T], error) {
		rec, found, err := r.src.FetchOne(ctx, id, opts)
		return fetched[T]{rec: rec, found: found}, classify(err)
	})
	return out.rec, out.found, err
}

func (r *Resilient[T]) FetchMany(ctx context.Context, ids []string, opts cache.Options) ([]T, error) {
	return resilience.Do(ctx, r.exec, func(ctx context.Context) ([]T, error) {
		recs, err := r.src.FetchMany(ctx, ids, opts)
		return recs, classify(err)
	})
}

// classify marks errors that no retry can fix.
func classify(err error) error {
	if errors.Is(err, ErrUnknownFinder) || errors.Is(err, ErrUnsupported) || errors.Is(err, ErrInvalidQuery) {
		return resilience.Permanent(err)
	}
	return err
}
