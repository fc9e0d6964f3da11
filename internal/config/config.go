// Package config loads runner's settings from the environment. runner takes
// no flags of its own so the child's argv passes through untouched.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	ServiceName string
	LogLevel    string
	Telemetry   TelemetryConfig
	Output      OutputConfig
	Spans       SpanConfig
	Process     ProcessConfig
}

type TelemetryConfig struct {
	// MetricsAddr serves Prometheus metrics when set.
	MetricsAddr string
	// OTLPEndpoint exports correlated spans when set.
	OTLPEndpoint string
	// Disabled mirrors OTEL_SDK_DISABLED and wins over OTLPEndpoint.
	Disabled bool
}

type OutputConfig struct {
	// File receives a copy of every record when set.
	File string
	// FileMaxSize rotates File past this many bytes. 0 never rotates.
	FileMaxSize int64
}

type SpanConfig struct {
	// TTL evicts spans left open longer than this. 0 keeps them forever.
	TTL time.Duration
}

type ProcessConfig struct {
	DrainTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables with defaults.
// Malformed values are reported together with any validation failure.
func Load() (Config, error) {
	e := &env{}
	cfg := Config{
		ServiceName: e.str("RUNNER_SERVICE_NAME", "test-service"),
		LogLevel:    e.str("RUNNER_LOG_LEVEL", "info"),
		Telemetry: TelemetryConfig{
			MetricsAddr:  e.str("RUNNER_METRICS_ADDR", ""),
			OTLPEndpoint: e.str("RUNNER_OTLP_ENDPOINT", ""),
			Disabled:     e.boolean("OTEL_SDK_DISABLED", false),
		},
		Output: OutputConfig{
			File:        e.str("RUNNER_OUTPUT_FILE", ""),
			FileMaxSize: e.int64("RUNNER_OUTPUT_FILE_MAX_SIZE", 0),
		},
		Spans: SpanConfig{
			TTL: e.duration("RUNNER_SPAN_TTL", 0),
		},
		Process: ProcessConfig{
			DrainTimeout:    e.duration("RUNNER_DRAIN_TIMEOUT", 5*time.Second),
			ShutdownTimeout: e.duration("RUNNER_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
	}

	if err := errors.Join(append(e.errs, cfg.Validate())...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ServiceName) == "" {
		errs = append(errs, errors.New("RUNNER_SERVICE_NAME must not be empty"))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("RUNNER_LOG_LEVEL: %w", err))
	}
	if c.Output.FileMaxSize < 0 {
		errs = append(errs, errors.New("RUNNER_OUTPUT_FILE_MAX_SIZE must not be negative"))
	}
	if c.Spans.TTL < 0 {
		errs = append(errs, errors.New("RUNNER_SPAN_TTL must not be negative"))
	}
	if c.Process.DrainTimeout < 0 {
		errs = append(errs, errors.New("RUNNER_DRAIN_TIMEOUT must not be negative"))
	}
	if c.Process.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("RUNNER_SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// TracingEnabled reports whether correlated spans should be exported.
func (c Config) TracingEnabled() bool {
	return c.Telemetry.OTLPEndpoint != "" && !c.Telemetry.Disabled
}

// env collects parse failures so they are reported all at once.
type env struct {
	errs []error
}

func (e *env) str(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (e *env) int64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func (e *env) boolean(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}
