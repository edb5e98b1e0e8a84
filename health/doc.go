// Package health reports the health of cache backends.
//
// A Checker reports a Status: Healthy, Degraded, or Unhealthy. PingChecker
// probes a store connection and degrades when the round trip is slow;
// CapacityChecker watches the entry count of an in-process store. An
// Aggregator runs several checkers concurrently under one deadline and folds
// their results into an overall status.
//
//	agg := health.NewAggregator()
//	agg.Register("redis", health.NewPingChecker("redis", store, health.PingConfig{
//	    DegradedLatency: 50 * time.Millisecond,
//	}))
//	results := agg.CheckAll(ctx)
//	if health.Overall(results) == health.StatusUnhealthy {
//	    // stop serving reads
//	}
package health
