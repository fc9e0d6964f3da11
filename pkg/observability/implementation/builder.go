package implementation

import (
	"context"

	"github.com/jt828/runner/pkg/observability"
)

type Config struct {
	ServiceName string
	Version     string
	LogLevel    string
	// MetricsAddr enables the /metrics server when non-empty.
	MetricsAddr string
	// OTLPEndpoint enables span export when non-empty.
	OTLPEndpoint string
	// Fields are attached to every log line and to the trace resource.
	Fields []observability.Field
}

func NewObservability(ctx context.Context, cfg Config) (observability.Observability, error) {
	log, err := NewZapLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log = log.With(cfg.Fields...)

	meter := NewPrometheusMeter("runner")

	o := &observabilityImplementation{
		log:         log,
		meter:       meter,
		tracer:      observability.NopTracer(),
		metricsAddr: cfg.MetricsAddr,
	}

	if cfg.OTLPEndpoint == "" {
		return o, nil
	}

	tracer, shutdown, err := NewOtelTracer(ctx, TracerConfig{
		ServiceName: cfg.ServiceName,
		Version:     cfg.Version,
		Endpoint:    cfg.OTLPEndpoint,
		Attributes:  cfg.Fields,
	})
	if err != nil {
		return nil, err
	}
	o.tracer = tracer
	o.traceClose = shutdown

	return o, nil
}
