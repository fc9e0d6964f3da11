package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jt828/runner/internal/bootstrap"
	"github.com/jt828/runner/internal/config"
	"github.com/jt828/runner/internal/pipeline"
	"github.com/jt828/runner/internal/span"
	"github.com/jt828/runner/internal/supervisor"
	"github.com/jt828/runner/pkg/observability"
	"github.com/jt828/runner/pkg/observability/implementation"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const usage = `usage: runner <command> [args...]

Runs command, turns every line it writes to stdout and stderr into a JSON
record on runner's stdout, and exits with the command's exit code.
Settings are read from RUNNER_* environment variables.`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	// With SIGPIPE caught, writes to a closed stdout fail with EPIPE instead
	// of killing runner. Caught, not ignored: the child must not inherit
	// SIG_IGN.
	brokenPipe := make(chan os.Signal, 1)
	signal.Notify(brokenPipe, syscall.SIGPIPE)
	defer signal.Stop(brokenPipe)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "runner:", err)
		return 1
	}

	idGen, err := bootstrap.InitializeSnowflake()
	if err != nil {
		fmt.Fprintln(os.Stderr, "runner: failed to initialize snowflake:", err)
		return 1
	}
	runID := idGen.GenerateString()

	endpoint := ""
	if cfg.TracingEnabled() {
		endpoint = cfg.Telemetry.OTLPEndpoint
	}
	obs, err := implementation.NewObservability(ctx, implementation.Config{
		ServiceName:  cfg.ServiceName,
		Version:      version,
		LogLevel:     cfg.LogLevel,
		MetricsAddr:  cfg.Telemetry.MetricsAddr,
		OTLPEndpoint: endpoint,
		Fields: []observability.Field{
			observability.String("run_id", runID),
			observability.String("service", cfg.ServiceName),
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "runner: failed to initialize observability:", err)
		return 1
	}
	log := obs.Logger()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Process.ShutdownTimeout)
		defer shutdownCancel()
		if err := obs.Close(shutdownCtx); err != nil {
			log.Error("failed to close observability", observability.Err(err))
		}
	}()

	if err := obs.Start(ctx); err != nil {
		log.Error("failed to start observability", observability.Err(err))
	}

	out, err := bootstrap.InitializeOutput(cfg.Output, log)
	if err != nil {
		log.Error("failed to initialize output", observability.Err(err))
		return 1
	}
	defer func() {
		if err := out.Sink.Close(); err != nil {
			log.Error("failed to close output", observability.Err(err))
		}
	}()

	proc := pipeline.NewProcessor(span.NewTable(),
		pipeline.WithServiceName(cfg.ServiceName),
		pipeline.WithTracer(obs.Tracer()),
		pipeline.WithMeter(obs.Meter()),
		pipeline.WithLogger(log),
	)
	if cfg.Spans.TTL > 0 {
		go proc.RunJanitor(ctx, cfg.Spans.TTL)
	}

	sup := supervisor.New(proc, out.Sink,
		supervisor.WithLogger(log),
		supervisor.WithMeter(obs.Meter()),
		supervisor.WithDrainTimeout(cfg.Process.DrainTimeout),
		supervisor.WithSignals(os.Interrupt, syscall.SIGTERM),
	)

	log.Info("runner starting",
		observability.String("version", version),
		observability.String("command", args[0]),
		observability.Strings("args", args[1:]),
	)

	code, err := sup.Run(ctx, args[0], args[1:]...)
	if err != nil {
		log.Error("failed to run child", observability.Err(err))
		return 1
	}
	return code
}
