package serve

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// LogSpanExporter implements the OpenTelemetry SpanExporter interface and
// writes completed spans to the structured logger. Scan and validation
// runs are short-lived request-scoped traces; logging them is the whole
// observability surface, nothing is shipped off the box.
//
// Errors are logged but never returned, so a logging failure cannot break
// the trace pipeline.
type LogSpanExporter struct {
	logger *slog.Logger
}

// NewLogSpanExporter creates a span exporter backed by the given logger.
func NewLogSpanExporter(logger *slog.Logger) *LogSpanExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSpanExporter{logger: logger}
}

// ExportSpans logs a batch of completed spans.
func (e *LogSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		attrs := []any{
			"trace_id", span.SpanContext().TraceID().String(),
			"span_id", span.SpanContext().SpanID().String(),
			"duration", span.EndTime().Sub(span.StartTime()).Round(time.Microsecond),
		}
		for _, attr := range span.Attributes() {
			attrs = append(attrs, string(attr.Key), attr.Value.Emit())
		}
		e.logger.LogAttrs(ctx, slog.LevelDebug, "span "+span.Name(), slog.Group("span", attrs...))
	}
	return nil
}

// Shutdown implements SpanExporter. There is nothing to flush.
func (e *LogSpanExporter) Shutdown(context.Context) error {
	return nil
}

// NewTracerProvider creates a TracerProvider that exports spans through
// the structured logger.
//
// A SimpleSpanProcessor is used for immediate export without batching:
// every request is its own short trace and there is no volume to batch.
func NewTracerProvider(logger *slog.Logger) *sdktrace.TracerProvider {
	exporter := NewLogSpanExporter(logger)
	processor := sdktrace.NewSimpleSpanProcessor(exporter)

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("agentlens"),
		),
	)
	if err != nil {
		logger.Warn("failed to create resource, using default", "error", err)
		res = resource.Default()
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
	)
}
