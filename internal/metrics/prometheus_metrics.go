// Package metrics provides Prometheus-based reporting of honeypot activity.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potx_connections_total",
		Help: "Total number of accepted connections",
	}, []string{"port"})

	payloadsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potx_payloads_total",
		Help: "Total number of payloads received",
	}, []string{"port"})

	payloadBytesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potx_payload_bytes_total",
		Help: "Total number of payload bytes received",
	}, []string{"port"})

	timeoutsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potx_connection_timeouts_total",
		Help: "Total number of connections abandoned after the read deadline",
	}, []string{"port"})

	connectionErrorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potx_connection_errors_total",
		Help: "Total number of connection-level I/O errors",
	}, []string{"port", "stage"}) // stage: accept, read, write

	bindFailuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "potx_bind_failures_total",
		Help: "Total number of listeners that failed to bind",
	}, []string{"port"})

	activeConnectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "potx_active_connections",
		Help: "Number of connections currently being handled",
	})

	activeListenersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "potx_listeners_active",
		Help: "Number of ports currently accepting connections",
	})
)

// PrometheusMetrics reports honeypot activity to the default Prometheus registry.
type PrometheusMetrics struct{}

// NewPrometheusMetrics creates a new Prometheus metrics reporter.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{}
}

// ConnectionOpened records an accepted connection.
func (m *PrometheusMetrics) ConnectionOpened(port int) {
	connectionsCounter.WithLabelValues(strconv.Itoa(port)).Inc()
	activeConnectionsGauge.Inc()
}

// ConnectionClosed records the end of a handled connection.
func (m *PrometheusMetrics) ConnectionClosed(port int) {
	activeConnectionsGauge.Dec()
}

// PayloadReceived records a payload of n bytes.
func (m *PrometheusMetrics) PayloadReceived(port, n int) {
	label := strconv.Itoa(port)
	payloadsCounter.WithLabelValues(label).Inc()
	payloadBytesCounter.WithLabelValues(label).Add(float64(n))
}

// ConnectionTimedOut records a connection abandoned after the read deadline.
func (m *PrometheusMetrics) ConnectionTimedOut(port int) {
	timeoutsCounter.WithLabelValues(strconv.Itoa(port)).Inc()
}

// ConnectionError records an I/O error at the given stage.
func (m *PrometheusMetrics) ConnectionError(port int, stage string) {
	connectionErrorsCounter.WithLabelValues(strconv.Itoa(port), stage).Inc()
}

// BindFailed records a listener that could not bind.
func (m *PrometheusMetrics) BindFailed(port int) {
	bindFailuresCounter.WithLabelValues(strconv.Itoa(port)).Inc()
}

// ListenerStarted records a listener entering its accept loop.
func (m *PrometheusMetrics) ListenerStarted(port int) {
	activeListenersGauge.Inc()
}

// ListenerStopped records a listener leaving its accept loop.
func (m *PrometheusMetrics) ListenerStopped(port int) {
	activeListenersGauge.Dec()
}
