package implementation

import (
	"context"
	"errors"
	"net/http"

	"github.com/jt828/runner/pkg/observability"
)

type observabilityImplementation struct {
	log    observability.Logger
	meter  observability.Meter
	tracer observability.Tracer

	metricsAddr   string
	metricsServer *http.Server
	traceClose    func(context.Context) error
}

func (o *observabilityImplementation) Close(ctx context.Context) error {
	var errs []error
	if o.metricsServer != nil {
		errs = append(errs, o.metricsServer.Shutdown(ctx))
	}
	if o.traceClose != nil {
		errs = append(errs, o.traceClose(ctx))
	}
	// stderr commonly rejects fsync, which is not worth reporting
	_ = o.log.Sync()
	return errors.Join(errs...)
}

func (o *observabilityImplementation) Logger() observability.Logger { return o.log }
func (o *observabilityImplementation) Meter() observability.Meter   { return o.meter }

func (o *observabilityImplementation) Start(ctx context.Context) error {
	if o.metricsAddr == "" {
		return nil
	}
	reg := PromRegistry(o.meter)
	if reg == nil {
		return errors.New("metrics server requires a prometheus meter")
	}
	srv, err := StartMetricsServer(o.metricsAddr, reg)
	if err != nil {
		return err
	}
	o.metricsServer = srv
	o.log.Info("metrics server listening", observability.String("addr", srv.Addr))
	return nil
}

func (o *observabilityImplementation) Tracer() observability.Tracer { return o.tracer }
