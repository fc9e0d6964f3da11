package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/jt828/runner/internal/record"
	"github.com/jt828/runner/pkg/circuitbreaker"
	"github.com/jt828/runner/pkg/retry"
)

// Guarded retries transient write failures of the wrapped sink and, once it
// keeps failing, stops calling it until the breaker lets a probe through.
type Guarded struct {
	name  string
	next  Sink
	cb    circuitbreaker.CircuitBreaker
	retry retry.Retry
}

func NewGuarded(name string, next Sink, cb circuitbreaker.CircuitBreaker, r retry.Retry) *Guarded {
	return &Guarded{name: name, next: next, cb: cb, retry: r}
}

func (g *Guarded) Write(ctx context.Context, rec record.Record) error {
	err := g.cb.Execute(func() error {
		return g.retry.Execute(ctx, func() error {
			return g.next.Write(ctx, rec)
		})
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%s: %w", g.name, ErrCircuitOpen)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", g.name, err)
	}
	return nil
}

func (g *Guarded) Close() error {
	return g.next.Close()
}
