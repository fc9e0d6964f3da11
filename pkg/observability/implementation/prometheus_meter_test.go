package implementation

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jt828/runner/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMeter(t *testing.T) {
	t.Run("counter accumulates per label set", func(t *testing.T) {
		m := NewPrometheusMeter("runner").(*prometheusMeter)
		c := m.Counter("lines_total", observability.MetricOpt{
			Help:      "lines",
			LabelKeys: []string{"stream"},
		}).(*promCounter)

		c.Inc(1, observability.L("stream", "stdout"))
		c.Inc(2, observability.L("stream", "stdout"))
		c.Inc(1, observability.L("stream", "stderr"))

		assert.Equal(t, 3.0, testutil.ToFloat64(c.vec.WithLabelValues("stdout")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.vec.WithLabelValues("stderr")))
	})

	t.Run("counter without labels", func(t *testing.T) {
		m := NewPrometheusMeter("runner").(*prometheusMeter)
		c := m.Counter("span_unmatched_total").(*promCounter)

		c.Inc(1)
		c.Inc(1)

		assert.Equal(t, 2.0, testutil.ToFloat64(c.vec.WithLabelValues()))
	})

	t.Run("gauge honours label keys", func(t *testing.T) {
		m := NewPrometheusMeter("runner").(*prometheusMeter)
		g := m.Gauge("open", observability.MetricOpt{LabelKeys: []string{"kind"}}).(*promGauge)

		g.Set(5, observability.L("kind", "span"))
		g.Add(-2, observability.L("kind", "span"))

		assert.Equal(t, 3.0, testutil.ToFloat64(g.vec.WithLabelValues("span")))
	})

	t.Run("histogram falls back to default buckets", func(t *testing.T) {
		m := NewPrometheusMeter("runner").(*prometheusMeter)
		h := m.Histogram("span_duration_seconds").(*promHistogram)

		h.Observe(0.2)
		h.Observe(0.4)

		count, err := testutil.GatherAndCount(m.Registry(), "runner_span_duration_seconds")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("timer reports and records elapsed time", func(t *testing.T) {
		m := NewPrometheusMeter("runner")
		stop := m.Timer("child_runtime_seconds").Start()

		time.Sleep(5 * time.Millisecond)
		elapsed := stop()

		assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
		count, err := testutil.GatherAndCount(PromRegistry(m), "runner_child_runtime_seconds")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("PromRegistry is nil for foreign meters", func(t *testing.T) {
		assert.Nil(t, PromRegistry(observability.NopMeter()))
	})
}

func TestStartMetricsServer(t *testing.T) {
	m := NewPrometheusMeter("runner")
	m.Counter("records_total", observability.MetricOpt{Help: "records"}).Inc(1)

	srv, err := StartMetricsServer("127.0.0.1:0", PromRegistry(m))
	require.NoError(t, err)
	defer srv.Close()

	resp, err := http.Get("http://" + srv.Addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "runner_records_total 1")
}

func TestStartMetricsServer_BadAddress(t *testing.T) {
	_, err := StartMetricsServer("not-an-address", PromRegistry(NewPrometheusMeter("runner")))
	assert.Error(t, err)
}
