// Package resilience protects data sources behind the cache from overload
// and transient failure.
//
// The patterns compose through an Executor:
//
//   - RateLimiter caps the rate of source calls (golang.org/x/time/rate).
//   - Bulkhead caps concurrent source calls (golang.org/x/sync/semaphore).
//   - CircuitBreaker stops calling a failing source for a cooling-off period.
//   - Retry retries transient failures with backoff (cenkalti/backoff).
//   - Timeout bounds each attempt.
//
// For example:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        MaxFailures:  5,
//	        ResetTimeout: 30 * time.Second,
//	    })),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(2*time.Second),
//	)
//	rows, err := resilience.Do(ctx, exec, func(ctx context.Context) ([]Row, error) {
//	    return db.Query(ctx, ids)
//	})
package resilience
