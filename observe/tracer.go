package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// OpMeta describes one cache operation for telemetry purposes.
type OpMeta struct {
	Scope     string // cache scope, e.g. "Story"
	Operation string // get, set, expire, get_batch, ...
	Namespace string // per-call key namespace (may be empty)
	Keys      int    // number of keys touched, 0 when unknown
}

// SpanName returns the span name: cache.<operation>.
func (m OpMeta) SpanName() string {
	return "cache." + m.Operation
}

func (m OpMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("cache.op", m.Operation),
	}
	if m.Scope != "" {
		attrs = append(attrs, attribute.String("cache.scope", m.Scope))
	}
	if m.Namespace != "" {
		attrs = append(attrs, attribute.String("cache.namespace", m.Namespace))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing for cache operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan is best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &otelTracer{tracer: t}
}

func (t *otelTracer) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	attrs := meta.attributes()
	if meta.Keys > 0 {
		attrs = append(attrs, attribute.Int("cache.keys", meta.Keys))
	}
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *otelTracer) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a Tracer backed by the OpenTelemetry no-op provider.
func NopTracer() Tracer {
	return &otelTracer{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
