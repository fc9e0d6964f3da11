package stream

import "github.com/jt828/runner/pkg/observability"

type Metrics struct {
	readErrors observability.Counter
	sinkErrors observability.Counter
}

func NewMetrics(m observability.Meter) *Metrics {
	return &Metrics{
		readErrors: m.Counter("reader_errors_total", observability.MetricOpt{
			Help:      "Stream readers stopped by a read or decode failure",
			LabelKeys: []string{"stream"},
		}),
		sinkErrors: m.Counter("sink_errors_total", observability.MetricOpt{
			Help: "Records the sink failed to write",
		}),
	}
}
