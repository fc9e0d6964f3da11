// Package pipeline decides, per line of child output, what record (if any)
// runner emits. Span start/end events are correlated through a shared
// span.Table; everything else is normalised.
package pipeline

import (
	"context"
	"time"

	"github.com/jt828/runner/internal/record"
	"github.com/jt828/runner/internal/span"
	"github.com/jt828/runner/pkg/observability"
)

const DefaultServiceName = "test-service"

const (
	eventStart = "start"
	eventEnd   = "end"
)

type Option func(*Processor)

func WithClock(c span.Clock) Option {
	return func(p *Processor) { p.clock = c }
}

func WithServiceName(name string) Option {
	return func(p *Processor) { p.serviceName = name }
}

// WithTracer re-emits every correlated span through t.
func WithTracer(t observability.Tracer) Option {
	return func(p *Processor) { p.tracer = t }
}

func WithMeter(m observability.Meter) Option {
	return func(p *Processor) { p.meter = m }
}

func WithLogger(l observability.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// Processor is safe for concurrent use by several stream readers.
type Processor struct {
	spans       *span.Table
	clock       span.Clock
	serviceName string
	tracer      observability.Tracer
	meter       observability.Meter
	log         observability.Logger
	metrics     *metrics
}

func NewProcessor(spans *span.Table, opts ...Option) *Processor {
	p := &Processor{
		spans:       spans,
		clock:       span.SystemClock{},
		serviceName: DefaultServiceName,
		tracer:      observability.NopTracer(),
		meter:       observability.NopMeter(),
		log:         observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.metrics = newMetrics(p.meter)
	return p
}

// Process handles one line read from stream. It returns the record to emit,
// or false when the line produces no output: a span start, or a span end
// with no matching start.
func (p *Processor) Process(ctx context.Context, line string, stream record.Stream) (record.Record, bool) {
	p.metrics.lines.Inc(1, observability.L("stream", string(stream)))

	if ev, ok := parseSpanEvent(line); ok {
		switch ev.kind {
		case eventStart:
			p.start(ev)
			return nil, false
		case eventEnd:
			return p.end(ctx, ev)
		}
	}

	rec, kind := record.Normalize(line, stream, p.clock.Now())
	p.metrics.records.Inc(1, observability.L("kind", string(kind)))
	return rec, true
}

func (p *Processor) start(ev spanEvent) {
	if replaced := p.spans.Start(ev.id, p.clock.Now()); !replaced {
		p.metrics.open.Add(1)
	}
}

func (p *Processor) end(ctx context.Context, ev spanEvent) (record.Record, bool) {
	start, ok := p.spans.End(ev.id)
	if !ok {
		p.metrics.unmatched.Inc(1)
		p.log.Debug("span end without start", observability.String("span_id", ev.id))
		return nil, false
	}

	end := p.clock.Now()
	duration := max(end.Sub(start), 0)

	p.metrics.open.Add(-1)
	p.metrics.duration.Observe(duration.Seconds())
	p.metrics.records.Inc(1, observability.L("kind", string(record.KindSpan)))

	p.export(ctx, ev, start, start.Add(duration))
	return record.Span(ev.span, start, duration, p.serviceName), true
}

// EvictStale forgets spans that have been open longer than ttl and returns
// how many were dropped.
func (p *Processor) EvictStale(ttl time.Duration) int {
	evicted := p.spans.Evict(p.clock.Now().Add(-ttl))
	if len(evicted) == 0 {
		return 0
	}

	p.metrics.open.Add(-float64(len(evicted)))
	p.metrics.evicted.Inc(float64(len(evicted)))
	p.log.Debug("evicted stale spans",
		observability.Int("count", len(evicted)),
		observability.Strings("span_ids", evicted),
	)
	return len(evicted)
}

// RunJanitor calls EvictStale every ttl/2 until ctx is done.
func (p *Processor) RunJanitor(ctx context.Context, ttl time.Duration) {
	interval := max(ttl/2, 10*time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.EvictStale(ttl)
		}
	}
}

func (p *Processor) export(ctx context.Context, ev spanEvent, start, end time.Time) {
	name := ev.span.Get("spanName").String()
	if name == "" {
		name = "span"
	}

	_, s := p.tracer.Start(ctx, name, observability.WithTimestamp(start))
	s.SetAttributes(spanFields(ev.span)...)
	s.SetAttributes(observability.String("service.name", p.serviceName))
	s.End(observability.WithTimestamp(end))
}
