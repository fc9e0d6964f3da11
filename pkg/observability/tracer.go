package observability

import (
	"context"
	"time"
)

type Tracer interface {
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
}

type Span interface {
	End(opts ...SpanOption)
	RecordError(err error)
	SetAttributes(fields ...Field)
}

type SpanConfig struct {
	Timestamp time.Time
}

type SpanOption func(*SpanConfig)

// WithTimestamp pins the start or end time of a span instead of using the
// current time. Used when replaying spans whose timing was observed earlier.
func WithTimestamp(t time.Time) SpanOption {
	return func(c *SpanConfig) {
		c.Timestamp = t
	}
}

func ApplySpanOptions(opts ...SpanOption) SpanConfig {
	var c SpanConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
