package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "accounts_api"

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authDecisions   *prometheus.CounterVec
	sessionLookups  *prometheus.CounterVec
}

// NewMetrics registers the collectors, plus the Go runtime and process
// collectors, on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),

		authDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_decisions_total",
			Help:      "Authorization gate decisions by requirement and outcome",
		}, []string{"requirement", "outcome"}),

		sessionLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_lookups_total",
			Help:      "Session resolutions by result (present, absent, error)",
		}, []string{"result"}),
	}
}

// Session lookup results.
const (
	SessionPresent = "present"
	SessionAbsent  = "absent"
	SessionError   = "error"
)

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveDecision records one gate outcome. outcome is "allow" or the
// reject reason.
func (m *Metrics) ObserveDecision(requirement, outcome string) {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues(requirement, outcome).Inc()
}

// ObserveSessionLookup records the result of one provider call.
func (m *Metrics) ObserveSessionLookup(result string) {
	if m == nil {
		return
	}
	m.sessionLookups.WithLabelValues(result).Inc()
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
