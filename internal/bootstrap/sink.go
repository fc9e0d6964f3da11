package bootstrap

import (
	"fmt"
	"time"

	"github.com/jt828/runner/internal/config"
	"github.com/jt828/runner/internal/sink"
	"github.com/jt828/runner/pkg/circuitbreaker"
	cbImpl "github.com/jt828/runner/pkg/circuitbreaker/implementation"
	"github.com/jt828/runner/pkg/observability"
	"github.com/jt828/runner/pkg/retry"
	retryImpl "github.com/jt828/runner/pkg/retry/implementation"
)

const fileSinkName = "file-sink"

type Output struct {
	Sink sink.Sink
	// CircuitBreaker guards the file sink. Nil when no file is configured.
	CircuitBreaker circuitbreaker.CircuitBreaker
}

// InitializeOutput builds the record sink: stdout always, plus a guarded
// NDJSON file when one is configured. A failing file never affects stdout.
func InitializeOutput(cfg config.OutputConfig, log observability.Logger) (*Output, error) {
	stdout := sink.NewStdout()
	if cfg.File == "" {
		return &Output{Sink: stdout}, nil
	}

	file, err := sink.NewFile(cfg.File, sink.WithMaxSize(cfg.FileMaxSize))
	if err != nil {
		return nil, fmt.Errorf("output file: %w", err)
	}

	cb := cbImpl.NewCircuitBreaker(cbImpl.Settings{
		Name:     fileSinkName,
		Cooldown: 10 * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("sink circuit breaker changed state",
				observability.String("sink", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
	})

	r := retryImpl.NewRetry(
		retry.WithInterval(5*time.Millisecond),
		retry.WithMaxInterval(100*time.Millisecond),
		retry.WithMaxRetries(3),
		retry.WithRetryable(sink.Retryable),
	)

	return &Output{
		Sink:           sink.NewMulti(stdout, sink.NewGuarded(fileSinkName, file, cb, r)),
		CircuitBreaker: cb,
	}, nil
}
