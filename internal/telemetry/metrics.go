// Package telemetry owns the process's Prometheus registry and OpenTelemetry
// tracer provider.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riskscorer/riskscorer/internal/bridge"
)

const namespace = "riskscorer"

// Metrics holds every collector the service exports.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	securityScore    prometheus.Gauge
	openViolations   prometheus.Gauge
	sessions         prometheus.Gauge
	datasetReloads   prometheus.Counter
	bridgeState      *prometheus.GaugeVec
	bridgeMessages   *prometheus.CounterVec
	bridgeReconnects prometheus.Counter
	bridgeBackoff    prometheus.Histogram
	queries          *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		securityScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "security_score",
			Help:      "Current security score, 0-100.",
		}),
		openViolations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_violations",
			Help:      "Violations not yet resolved.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dashboard_sessions",
			Help:      "Active dashboard sessions.",
		}),
		datasetReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_reloads_total",
			Help:      "Dataset file reloads applied.",
		}),
		bridgeState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "state",
			Help:      "1 for the bridge's current ready state, 0 otherwise.",
		}, []string{"state"}),
		bridgeMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "messages_total",
			Help:      "Inbound bridge messages by decoded kind.",
		}, []string{"kind"}),
		bridgeReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "reconnects_total",
			Help:      "Scheduled bridge reconnect attempts.",
		}),
		bridgeBackoff: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "backoff_seconds",
			Help:      "Delay before each bridge reconnect.",
			Buckets:   []float64{1, 2, 4, 8, 10},
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "queries_total",
			Help:      "Cathedral queries by result.",
		}, []string{"result"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.securityScore,
		m.openViolations,
		m.sessions,
		m.datasetReloads,
		m.bridgeState,
		m.bridgeMessages,
		m.bridgeReconnects,
		m.bridgeBackoff,
		m.queries,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveRequest counts one HTTP response.
func (m *Metrics) ObserveRequest(method string, code int) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// SetPosture records the headline score and open violation count.
func (m *Metrics) SetPosture(score, open int) {
	m.securityScore.Set(float64(score))
	m.openViolations.Set(float64(open))
}

// SetSessions records the number of live dashboard sessions.
func (m *Metrics) SetSessions(n int) { m.sessions.Set(float64(n)) }

// DatasetReloaded counts an applied dataset reload.
func (m *Metrics) DatasetReloaded() { m.datasetReloads.Inc() }

// QueryResult counts a Cathedral query outcome: sent, rejected or screened.
func (m *Metrics) QueryResult(result string) { m.queries.WithLabelValues(result).Inc() }

// BridgeObserver adapts the metrics to the bridge's lifecycle hooks.
func (m *Metrics) BridgeObserver() bridge.Observer { return bridgeObserver{m} }

type bridgeObserver struct{ m *Metrics }

var readyStates = []bridge.ReadyState{bridge.StateConnecting, bridge.StateOpen, bridge.StateClosing, bridge.StateClosed}

func (o bridgeObserver) StateChanged(s bridge.ReadyState) {
	for _, rs := range readyStates {
		v := 0.0
		if rs == s {
			v = 1
		}
		o.m.bridgeState.WithLabelValues(rs.String()).Set(v)
	}
}

func (o bridgeObserver) MessageReceived(kind string) {
	o.m.bridgeMessages.WithLabelValues(kind).Inc()
}

func (o bridgeObserver) ReconnectScheduled(d time.Duration) {
	o.m.bridgeReconnects.Inc()
	o.m.bridgeBackoff.Observe(d.Seconds())
}
