package implementation

import (
	"context"
	"fmt"
	"time"

	"github.com/jt828/runner/pkg/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

type otelTracer struct {
	tracer trace.Tracer
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End(opts ...observability.SpanOption) {
	cfg := observability.ApplySpanOptions(opts...)
	if cfg.Timestamp.IsZero() {
		s.span.End()
		return
	}
	s.span.End(trace.WithTimestamp(cfg.Timestamp))
}

func (s otelSpan) RecordError(err error) { s.span.RecordError(err) }

func (s otelSpan) SetAttributes(fields ...observability.Field) {
	s.span.SetAttributes(toAttributes(fields)...)
}

func (t otelTracer) Start(
	ctx context.Context,
	name string,
	opts ...observability.SpanOption,
) (context.Context, observability.Span) {
	cfg := observability.ApplySpanOptions(opts...)

	var startOpts []trace.SpanStartOption
	if !cfg.Timestamp.IsZero() {
		startOpts = append(startOpts, trace.WithTimestamp(cfg.Timestamp))
	}

	ctx, span := t.tracer.Start(ctx, name, startOpts...)
	return ctx, otelSpan{span}
}

// TracerConfig describes where spans go and how the emitting service is
// identified.
type TracerConfig struct {
	ServiceName string
	Version     string
	Endpoint    string
	Attributes  []observability.Field
}

// NewOtelTracer exports spans over OTLP/gRPC to cfg.Endpoint. The returned
// shutdown func flushes pending spans.
func NewOtelTracer(
	ctx context.Context,
	cfg TracerConfig,
) (observability.Tracer, func(ctx context.Context) error, error) {
	exp, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("otlp exporter: %w", err)
	}

	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
	}, toAttributes(cfg.Attributes)...)

	res, err := resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return NewOtelTracerFromProvider(tp, cfg.ServiceName),
		func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return tp.Shutdown(ctx)
		},
		nil
}

// NewOtelTracerFromProvider wraps an already configured provider, e.g. one
// backed by tracetest.InMemoryExporter.
func NewOtelTracerFromProvider(tp trace.TracerProvider, name string) observability.Tracer {
	return otelTracer{tracer: tp.Tracer(name)}
}

func toAttributes(fields []observability.Field) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			attrs = append(attrs, attribute.String(f.Key, v))
		case []string:
			attrs = append(attrs, attribute.StringSlice(f.Key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(f.Key, v))
		case int:
			attrs = append(attrs, attribute.Int(f.Key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(f.Key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(f.Key, v))
		case time.Duration:
			attrs = append(attrs, attribute.Int64(f.Key, v.Nanoseconds()))
		case error:
			attrs = append(attrs, attribute.String(f.Key, v.Error()))
		case nil:
		default:
			attrs = append(attrs, attribute.String(f.Key, fmt.Sprint(v)))
		}
	}
	return attrs
}
