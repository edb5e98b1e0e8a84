// Package source provides building blocks for cache data sources.
//
// Funcs adapts plain functions to cache.DataSource. Finders dispatches on
// Options.Finder to named sources. Resilient wraps any source with the
// retry, circuit breaker, timeout, bulkhead and rate limit layers from
// package resilience, logging retries and breaker transitions.
//
// A typical stack:
//
//	base := source.Funcs[*Story]{One: loadStory, Many: loadStories}
//	finders := source.NewFinders[*Story](base)
//	_ = finders.Register("find_by_slug", bySlug)
//	src := source.NewResilient[*Story](finders, source.ResilientConfig{
//		Scope:   "Story",
//		Retry:   &resilience.RetryConfig{MaxAttempts: 3},
//		Timeout: 2 * time.Second,
//	})
//	client, err := cache.New[*Story](cfg, store, src)
package source
