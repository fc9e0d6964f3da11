package pipeline

import "github.com/jt828/runner/pkg/observability"

type metrics struct {
	lines     observability.Counter
	records   observability.Counter
	open      observability.Gauge
	duration  observability.Histogram
	unmatched observability.Counter
	evicted   observability.Counter
}

func newMetrics(m observability.Meter) *metrics {
	return &metrics{
		lines: m.Counter("lines_total", observability.MetricOpt{
			Help:      "Lines read from the child, by stream",
			LabelKeys: []string{"stream"},
		}),
		records: m.Counter("records_total", observability.MetricOpt{
			Help:      "Records emitted, by kind (passthrough, fallback, span)",
			LabelKeys: []string{"kind"},
		}),
		open: m.Gauge("spans_open", observability.MetricOpt{
			Help: "Spans started and not yet ended",
		}),
		duration: m.Histogram("span_duration_seconds", observability.MetricOpt{
			Help:    "Duration of correlated spans",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		unmatched: m.Counter("span_unmatched_total", observability.MetricOpt{
			Help: "Span end events with no open start",
		}),
		evicted: m.Counter("spans_evicted_total", observability.MetricOpt{
			Help: "Open spans dropped by the stale span janitor",
		}),
	}
}
