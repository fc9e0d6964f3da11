package observability

import (
	"context"
	"time"
)

// Nop returns an Observability whose logger, meter and tracer discard
// everything. Handy as a default and in tests.
func Nop() Observability { return nop{} }

type nop struct{}

func (nop) Close(context.Context) error { return nil }
func (nop) Logger() Logger              { return NopLogger() }
func (nop) Meter() Meter                { return NopMeter() }
func (nop) Start(context.Context) error { return nil }
func (nop) Tracer() Tracer              { return NopTracer() }

func NopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}
func (l nopLogger) With(...Field) Logger { return l }
func (nopLogger) Sync() error            { return nil }

func NopMeter() Meter { return nopMeter{} }

type nopMeter struct{}

func (nopMeter) Counter(string, ...MetricOpt) Counter     { return nopInstrument{} }
func (nopMeter) Histogram(string, ...MetricOpt) Histogram { return nopInstrument{} }
func (nopMeter) Gauge(string, ...MetricOpt) Gauge         { return nopInstrument{} }
func (nopMeter) Timer(string, ...MetricOpt) Timer         { return nopInstrument{} }

type nopInstrument struct{}

func (nopInstrument) Inc(float64, ...Label)     {}
func (nopInstrument) Observe(float64, ...Label) {}
func (nopInstrument) Set(float64, ...Label)     {}
func (nopInstrument) Add(float64, ...Label)     {}
func (nopInstrument) Start(...Label) func() time.Duration {
	start := time.Now()
	return func() time.Duration { return time.Since(start) }
}

func NopTracer() Tracer { return nopTracer{} }

type nopTracer struct{}

func (nopTracer) Start(ctx context.Context, _ string, _ ...SpanOption) (context.Context, Span) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) End(...SpanOption)      {}
func (nopSpan) RecordError(error)      {}
func (nopSpan) SetAttributes(...Field) {}
