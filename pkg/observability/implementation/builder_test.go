package implementation

import (
	"context"
	"testing"

	"github.com/jt828/runner/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObservability(t *testing.T) {
	t.Run("without an endpoint spans are not exported", func(t *testing.T) {
		o, err := NewObservability(context.Background(), Config{ServiceName: "svc", LogLevel: "info"})
		require.NoError(t, err)
		defer o.Close(context.Background())

		assert.Equal(t, observability.NopTracer(), o.Tracer())
		assert.NotNil(t, PromRegistry(o.Meter()))
	})

	t.Run("bad log level is rejected", func(t *testing.T) {
		_, err := NewObservability(context.Background(), Config{LogLevel: "chatty"})

		assert.ErrorContains(t, err, "log level")
	})

	t.Run("start without a metrics address is a no-op", func(t *testing.T) {
		o, err := NewObservability(context.Background(), Config{LogLevel: "error"})
		require.NoError(t, err)

		require.NoError(t, o.Start(context.Background()))
		assert.NoError(t, o.Close(context.Background()))
	})

	t.Run("start serves metrics until closed", func(t *testing.T) {
		o, err := NewObservability(context.Background(), Config{LogLevel: "error", MetricsAddr: "127.0.0.1:0"})
		require.NoError(t, err)

		require.NoError(t, o.Start(context.Background()))
		assert.NoError(t, o.Close(context.Background()))
	})

	t.Run("start reports a bad metrics address", func(t *testing.T) {
		o, err := NewObservability(context.Background(), Config{LogLevel: "error", MetricsAddr: "not-an-address"})
		require.NoError(t, err)
		defer o.Close(context.Background())

		assert.Error(t, o.Start(context.Background()))
	})
}
