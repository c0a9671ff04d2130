package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes recorded against upstream sources.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeBadStatus = "bad_status"
)

// Registry holds all Prometheus metrics.
// Business recorders are safe to call on a nil *Registry so components can run without metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	upstreamFetches  *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	fallbacks        *prometheus.CounterVec
	chartProbes      *prometheus.CounterVec
	staleProbes      prometheus.Counter
	sessionsActive   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.upstreamFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartdesk_upstream_fetches_total",
			Help: "Total number of upstream fetches by source and outcome",
		},
		[]string{"source", "outcome"},
	)
	r.upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chartdesk_upstream_fetch_duration_seconds",
			Help:    "Upstream fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)
	r.fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartdesk_fallbacks_total",
			Help: "Total number of times fallback data replaced an upstream result",
		},
		[]string{"source"},
	)
	r.chartProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartdesk_chart_probes_total",
			Help: "Total number of committed chart image probes by outcome",
		},
		[]string{"outcome"},
	)
	r.staleProbes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chartdesk_chart_probes_stale_total",
			Help: "Total number of chart probe results discarded as stale",
		},
	)
	r.sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chartdesk_sessions_active",
			Help: "Number of live dashboard sessions",
		},
	)

	reg.MustRegister(r.upstreamFetches)
	reg.MustRegister(r.upstreamDuration)
	reg.MustRegister(r.fallbacks)
	reg.MustRegister(r.chartProbes)
	reg.MustRegister(r.staleProbes)
	reg.MustRegister(r.sessionsActive)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordFetch records one upstream fetch.
func (r *Registry) RecordFetch(source, outcome string, duration float64) {
	if r == nil {
		return
	}
	r.upstreamFetches.WithLabelValues(source, outcome).Inc()
	r.upstreamDuration.WithLabelValues(source).Observe(duration)
}

// RecordFallback records fallback data being published for source.
func (r *Registry) RecordFallback(source string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(source).Inc()
}

// RecordChartProbe records a committed probe result.
func (r *Registry) RecordChartProbe(outcome string) {
	if r == nil {
		return
	}
	r.chartProbes.WithLabelValues(outcome).Inc()
}

// RecordStaleProbe records a probe result dropped because a newer request superseded it.
func (r *Registry) RecordStaleProbe() {
	if r == nil {
		return
	}
	r.staleProbes.Inc()
}

// SetSessionsActive sets the number of live sessions.
func (r *Registry) SetSessionsActive(count int) {
	if r == nil {
		return
	}
	r.sessionsActive.Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
