package observe

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/strand-ui/strand/pkg/client"
)

// Default tracer name for strand clients.
const defaultTracerName = "strand"

// TracingConfig configures the OpenTelemetry batch tracing.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "strand").
	TracerName string

	// Filter determines which batches to trace. Return true to trace the
	// batch, false to skip. If nil, all batches are traced.
	Filter func(info client.BatchInfo) bool

	// AttributeExtractor extracts custom attributes per batch.
	AttributeExtractor func(info client.BatchInfo) []attribute.KeyValue

	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry batch tracing.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithBatchFilter sets a filter function for batches.
func WithBatchFilter(filter func(info client.BatchInfo) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(info client.BatchInfo) []attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracing is a client.BatchHook that records one span per reconciliation
// batch. The span covers the already-elapsed batch duration; its start
// time is backdated so waterfall views line up with wall time.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in main() before dialing:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
type Tracing struct {
	config TracingConfig
}

// NewTracing creates the batch tracing hook.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracing{config: config}
}

// BatchApplied implements client.BatchHook.
func (t *Tracing) BatchApplied(ctx context.Context, info client.BatchInfo) {
	if t.config.Filter != nil && !t.config.Filter(info) {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Int64("strand.batch_seq", int64(info.Seq)),
		attribute.Int("strand.delta_count", info.DeltaCount),
		attribute.Int("strand.components_created", info.Stats.Created),
		attribute.Int("strand.slots_inserted", info.Stats.Inserts),
		attribute.Int("strand.slots_removed", info.Stats.Removes),
		attribute.Int("strand.components_reaped", info.Stats.Reaped),
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(info)...)
	}

	start := time.Now().Add(-info.Duration)
	_, span := t.config.tracer.Start(
		ctx,
		fmt.Sprintf("strand.batch %d", info.Seq),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(start),
	)

	if info.Err != nil {
		span.RecordError(info.Err)
		span.SetStatus(codes.Error, info.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
