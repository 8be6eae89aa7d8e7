// Package metrics exposes prometheus collectors for question handling.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collectors for turns, tool calls and model latency.
// A nil *Metrics records nothing.
type Metrics struct {
	TurnsTotal     *prometheus.CounterVec
	TurnDuration   *prometheus.HistogramVec
	ToolCallsTotal *prometheus.CounterVec
	ToolDuration   *prometheus.HistogramVec
	LLMDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datamate",
				Subsystem: "agent",
				Name:      "turns_total",
				Help:      "Total number of answered questions by outcome",
			},
			[]string{"outcome"},
		),
		TurnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "datamate",
				Subsystem: "agent",
				Name:      "turn_duration_seconds",
				Help:      "Time to answer one question in seconds",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datamate",
				Subsystem: "agent",
				Name:      "tool_calls_total",
				Help:      "Total tool invocations",
			},
			[]string{"tool", "status"},
		),
		ToolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "datamate",
				Subsystem: "agent",
				Name:      "tool_duration_seconds",
				Help:      "Tool execution duration in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"tool"},
		),
		LLMDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "datamate",
				Subsystem: "llm",
				Name:      "request_duration_seconds",
				Help:      "Chat completion latency in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"status"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.TurnsTotal, m.TurnDuration, m.ToolCallsTotal, m.ToolDuration, m.LLMDuration)
	}
	return m
}

// ObserveTurn records one finished question
func (m *Metrics) ObserveTurn(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
	m.TurnDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveToolCall records a tool invocation
func (m *Metrics) ObserveToolCall(tool, status string, d time.Duration) {
	if m == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveLLM records a chat completion round trip
func (m *Metrics) ObserveLLM(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMDuration.WithLabelValues(status).Observe(d.Seconds())
}
