// Package supervisor runs the child command and feeds both of its output
// streams through the record pipeline until the child is gone.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/jt828/runner/internal/record"
	"github.com/jt828/runner/internal/sink"
	"github.com/jt828/runner/internal/stream"
	"github.com/jt828/runner/pkg/observability"
	"golang.org/x/sync/errgroup"
)

const DefaultDrainTimeout = 5 * time.Second

// ErrStart means the child could not be launched. No output was read.
var ErrStart = errors.New("start child")

type Option func(*Supervisor)

func WithLogger(l observability.Logger) Option {
	return func(s *Supervisor) { s.log = l }
}

func WithMeter(m observability.Meter) Option {
	return func(s *Supervisor) { s.meter = m }
}

// WithDrainTimeout bounds how long output is still read after the child
// exits, for descendants that keep its pipes open.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Supervisor) { s.drainTimeout = d }
}

// WithSignals forwards the given signals, received by runner, to the child
// while it runs.
func WithSignals(sigs ...os.Signal) Option {
	return func(s *Supervisor) { s.signals = sigs }
}

type Supervisor struct {
	handler      stream.Handler
	sink         sink.Sink
	log          observability.Logger
	meter        observability.Meter
	drainTimeout time.Duration
	signals      []os.Signal

	readerMetrics *stream.Metrics
	runtime       observability.Timer
}

func New(h stream.Handler, out sink.Sink, opts ...Option) *Supervisor {
	s := &Supervisor{
		handler:      h,
		sink:         out,
		log:          observability.NopLogger(),
		meter:        observability.NopMeter(),
		drainTimeout: DefaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.readerMetrics = stream.NewMetrics(s.meter)
	s.runtime = s.meter.Timer("child_runtime_seconds", observability.MetricOpt{
		Help: "Wall time from child start to exit",
	})
	return s
}

// Run starts name with args, reads stdout and stderr concurrently until
// both are exhausted, and returns the child's exit code. A child killed by
// a signal reports 0. The error is non-nil only when the child could not
// be started.
func (s *Supervisor) Run(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.Command(name, args...)
	cmd.WaitDelay = s.drainTimeout
	isolate(cmd)

	// Never written; Wait closes it once the child has exited.
	if _, err := cmd.StdinPipe(); err != nil {
		return 0, fmt.Errorf("%w: %s: stdin: %w", ErrStart, name, err)
	}

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	closeWriters := func() {
		_ = stdoutW.Close()
		_ = stderrW.Close()
	}

	stop := s.runtime.Start()
	if err := cmd.Start(); err != nil {
		closeWriters()
		return 0, fmt.Errorf("%w: %s: %w", ErrStart, name, err)
	}
	proc := newProcess(cmd)
	log := s.log.With(observability.Int("pid", proc.PID()))
	log.Info("child started", observability.String("command", name), observability.Strings("args", args))

	stopForwarding := s.forwardSignals(proc, log)

	var g errgroup.Group
	for _, r := range []*stream.Reader{
		s.reader(record.Stdout, stdoutR, log),
		s.reader(record.Stderr, stderrR, log),
	} {
		g.Go(func() error { return r.Run(ctx) })
	}

	waitErr := cmd.Wait()
	stopForwarding()
	elapsed := stop()

	// The copy into the pipes has finished (or been cut off by WaitDelay),
	// so closing the writers hands each reader a clean EOF.
	closeWriters()
	if err := g.Wait(); err != nil {
		log.Debug("output stream ended early", observability.Err(err))
	}

	code, state := proc.exit(cmd.ProcessState)
	fields := []observability.Field{
		observability.Int("exit_code", code),
		observability.String("state", state.String()),
		observability.Duration("runtime", elapsed),
	}
	switch {
	case errors.Is(waitErr, exec.ErrWaitDelay):
		log.Warn("child exited but its output was still open, stopped reading", fields...)
	case waitErr != nil && !isExitError(waitErr):
		log.Warn("child exited", append(fields, observability.Err(waitErr))...)
	default:
		log.Info("child exited", fields...)
	}
	return code, nil
}

func (s *Supervisor) reader(st record.Stream, src io.Reader, log observability.Logger) *stream.Reader {
	return stream.NewReader(st, src, s.handler, s.sink,
		stream.WithLogger(log),
		stream.WithMetrics(s.readerMetrics),
	)
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
