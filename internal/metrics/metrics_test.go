package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveTurn("tool", 10*time.Millisecond)
	m.ObserveTurn("tool", 20*time.Millisecond)
	m.ObserveTurn("blocked", time.Millisecond)
	m.ObserveToolCall("get_average_price", "ok", time.Millisecond)
	m.ObserveToolCall("get_average_price", "", time.Millisecond)
	m.ObserveLLM("ok", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("tool")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("blocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("get_average_price", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("get_average_price", "unknown")))

	count, err := testutil.GatherAndCount(reg, "datamate_llm_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTurn("tool", time.Millisecond)
		m.ObserveToolCall("x", "ok", time.Millisecond)
		m.ObserveLLM("ok", time.Millisecond)
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestNew_WithoutRegisterer(t *testing.T) {
	m := New(nil)
	m.ObserveTurn("direct", time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("direct")))
}
