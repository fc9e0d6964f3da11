package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jt828/runner/internal/config"
	"github.com/jt828/runner/internal/record"
	"github.com/jt828/runner/pkg/circuitbreaker"
	"github.com/jt828/runner/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeOutput(t *testing.T) {
	t.Run("stdout only when no file is configured", func(t *testing.T) {
		out, err := InitializeOutput(config.OutputConfig{}, observability.NopLogger())
		require.NoError(t, err)

		assert.NotNil(t, out.Sink)
		assert.Nil(t, out.CircuitBreaker)
	})

	t.Run("file receives a copy of every record", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "records.ndjson")
		out, err := InitializeOutput(config.OutputConfig{File: path}, observability.NopLogger())
		require.NoError(t, err)
		require.NotNil(t, out.CircuitBreaker)

		require.NoError(t, out.Sink.Write(context.Background(), record.Record(`{"message":"hello"}`)))
		require.NoError(t, out.Sink.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "{\"message\":\"hello\"}\n", string(data))
		assert.Equal(t, circuitbreaker.Closed, out.CircuitBreaker.State())
	})

	t.Run("unopenable file is an error", func(t *testing.T) {
		_, err := InitializeOutput(config.OutputConfig{File: filepath.Join(t.TempDir(), "missing", "x")}, observability.NopLogger())

		assert.ErrorContains(t, err, "output file")
	})
}
