package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricOps      = "cache.ops.total"
	MetricErrors   = "cache.ops.errors"
	MetricDuration = "cache.ops.duration_ms"
	MetricHits     = "cache.lookups.hits"
	MetricMisses   = "cache.lookups.misses"
	MetricFetched  = "cache.source.fetched"
)

// Metrics records cache operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOperation counts an operation and its duration.
	RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordLookup counts store hits and misses for one read.
	RecordLookup(ctx context.Context, meta OpMeta, hits, misses int)

	// RecordFetch counts identifiers requested from the data source.
	RecordFetch(ctx context.Context, meta OpMeta, ids int)
}

type otelMetrics struct {
	ops      metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
	hits     metric.Int64Counter
	misses   metric.Int64Counter
	fetched  metric.Int64Counter
}

// NewMetrics creates the cache instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	var (
		m   otelMetrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.ops, MetricOps, "Total number of cache operations", "{op}"},
		{&m.errors, MetricErrors, "Cache operations that returned an error", "{error}"},
		{&m.hits, MetricHits, "Keys found in the cache store", "{key}"},
		{&m.misses, MetricMisses, "Keys missing from the cache store", "{key}"},
		{&m.fetched, MetricFetched, "Identifiers requested from the data source", "{id}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
	}

	m.duration, err = meter.Float64Histogram(
		MetricDuration,
		metric.WithDescription("Cache operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *otelMetrics) RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)
	m.ops.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *otelMetrics) RecordLookup(ctx context.Context, meta OpMeta, hits, misses int) {
	opt := metric.WithAttributes(attribute.String("cache.scope", meta.Scope))
	if hits > 0 {
		m.hits.Add(ctx, int64(hits), opt)
	}
	if misses > 0 {
		m.misses.Add(ctx, int64(misses), opt)
	}
}

func (m *otelMetrics) RecordFetch(ctx context.Context, meta OpMeta, ids int) {
	m.fetched.Add(ctx, int64(ids), metric.WithAttributes(attribute.String("cache.scope", meta.Scope)))
}

type nopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) RecordOperation(context.Context, OpMeta, time.Duration, error) {}
func (nopMetrics) RecordLookup(context.Context, OpMeta, int, int)                {}
func (nopMetrics) RecordFetch(context.Context, OpMeta, int)                      {}
