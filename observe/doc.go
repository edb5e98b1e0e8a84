// Package observe provides observability primitives for cache operations.
//
// It wires OpenTelemetry tracing and metrics together with a small JSON
// structured logger. The cache client reports every operation (get, set,
// expire, batch read-through, reset) through a Middleware, which starts a
// span, records hit/miss/fetch counters and a duration histogram, and logs
// the outcome. Nothing here talks to a cache store or data source.
package observe
