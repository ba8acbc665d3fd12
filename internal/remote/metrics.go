package remote

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's instrumentation on its own registry so tests
// can run multiple servers in one process.
type Metrics struct {
	registry *prometheus.Registry

	invocations  *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	connections  prometheus.Gauge
	authFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.invocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "toolserver_invocations_total",
		Help: "Tool invocation attempts by tool and outcome.",
	}, []string{"tool", "outcome"})

	m.toolDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "toolserver_tool_duration_seconds",
		Help:    "Wall time of executed tool calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})

	m.connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "toolserver_connections",
		Help: "Currently open websocket connections.",
	})

	m.authFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toolserver_auth_failures_total",
		Help: "Rejected connection attempts.",
	})

	m.registry.MustRegister(m.invocations, m.toolDuration, m.connections, m.authFailures)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeCall(tool, outcome string, seconds float64) {
	m.invocations.WithLabelValues(tool, outcome).Inc()
	if seconds >= 0 {
		m.toolDuration.WithLabelValues(tool).Observe(seconds)
	}
}
