package implementation

import (
	"time"

	"github.com/jt828/runner/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type prometheusMeter struct {
	registry  *prometheus.Registry
	namespace string
}

// NewPrometheusMeter returns a Meter backed by its own registry. Every
// metric name is prefixed with namespace. The registry also carries the Go
// runtime and process collectors.
func NewPrometheusMeter(namespace string) observability.Meter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &prometheusMeter{
		registry:  reg,
		namespace: namespace,
	}
}

func (m *prometheusMeter) Registry() *prometheus.Registry {
	return m.registry
}

func PromRegistry(m observability.Meter) *prometheus.Registry {
	if pm, ok := m.(*prometheusMeter); ok {
		return pm.Registry()
	}
	return nil
}

// -------------------- Counter --------------------

type promCounter struct {
	vec *prometheus.CounterVec
}

func (m *prometheusMeter) Counter(name string, opts ...observability.MetricOpt) observability.Counter {
	opt := firstOpt(opts)

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        name,
		Help:        opt.Help,
		ConstLabels: toPromLabels(opt.ConstLabels),
	}, opt.LabelKeys)

	m.registry.MustRegister(vec)
	return &promCounter{vec: vec}
}

func (c *promCounter) Inc(v float64, labels ...observability.Label) {
	c.vec.With(toPromLabels(labels)).Add(v)
}

// -------------------- Histogram --------------------

type promHistogram struct {
	vec *prometheus.HistogramVec
}

func (m *prometheusMeter) Histogram(name string, opts ...observability.MetricOpt) observability.Histogram {
	return &promHistogram{vec: m.histogramVec(name, firstOpt(opts))}
}

func (h *promHistogram) Observe(v float64, labels ...observability.Label) {
	h.vec.With(toPromLabels(labels)).Observe(v)
}

func (m *prometheusMeter) histogramVec(name string, opt observability.MetricOpt) *prometheus.HistogramVec {
	buckets := opt.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        name,
		Help:        opt.Help,
		Buckets:     buckets,
		ConstLabels: toPromLabels(opt.ConstLabels),
	}, opt.LabelKeys)

	m.registry.MustRegister(vec)
	return vec
}

// -------------------- Gauge --------------------

type promGauge struct {
	vec *prometheus.GaugeVec
}

func (m *prometheusMeter) Gauge(name string, opts ...observability.MetricOpt) observability.Gauge {
	opt := firstOpt(opts)

	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        name,
		Help:        opt.Help,
		ConstLabels: toPromLabels(opt.ConstLabels),
	}, opt.LabelKeys)

	m.registry.MustRegister(vec)
	return &promGauge{vec: vec}
}

func (g *promGauge) Set(v float64, labels ...observability.Label) {
	g.vec.With(toPromLabels(labels)).Set(v)
}

func (g *promGauge) Add(v float64, labels ...observability.Label) {
	g.vec.With(toPromLabels(labels)).Add(v)
}

// -------------------- Timer --------------------

// promTimer records elapsed seconds into a histogram.
type promTimer struct {
	vec *prometheus.HistogramVec
}

func (m *prometheusMeter) Timer(name string, opts ...observability.MetricOpt) observability.Timer {
	return &promTimer{vec: m.histogramVec(name, firstOpt(opts))}
}

func (t *promTimer) Start(labels ...observability.Label) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		elapsed := time.Since(start)
		t.vec.With(toPromLabels(labels)).Observe(elapsed.Seconds())
		return elapsed
	}
}

// -------------------- Helpers --------------------

func firstOpt(opts []observability.MetricOpt) observability.MetricOpt {
	if len(opts) == 0 {
		return observability.MetricOpt{}
	}
	return opts[0]
}

func toPromLabels(labels []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		m[l.Key] = l.Value
	}
	return m
}
