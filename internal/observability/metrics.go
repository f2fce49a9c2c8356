package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus collectors for the HTTP surface and the
// triage pipeline.
type Metrics struct {
	registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	errorCount *prometheus.CounterVec

	triageRuns     *prometheus.CounterVec
	triageDuration prometheus.Histogram
	queueRetries   prometheus.Counter
	queueDepth     prometheus.Gauge
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "HTTP requests ending in a domain error, by error code.",
		}, []string{"route", "method", "code"}),
		triageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_runs_total",
			Help: "Completed triage runs by outcome (auto_closed, assigned_to_human, failed).",
		}, []string{"outcome"}),
		triageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "triage_run_duration_seconds",
			Help:    "End-to-end triage run latency.",
			Buckets: prometheus.DefBuckets,
		}),
		queueRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triage_queue_retries_total",
			Help: "Triage job retry attempts.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "triage_queue_depth",
			Help: "Jobs currently waiting in the triage queue.",
		}),
	}

	registry.MustRegister(
		m.requestCount,
		m.requestDuration,
		m.errorCount,
		m.triageRuns,
		m.triageDuration,
		m.queueRetries,
		m.queueDepth,
	)
	return m
}

// RecordRequest observes one HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts one request that ended in a domain error.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(route, method, code).Inc()
}

// RecordTriageRun observes one completed pipeline run.
func (m *Metrics) RecordTriageRun(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.triageRuns.WithLabelValues(outcome).Inc()
	m.triageDuration.Observe(duration.Seconds())
}

// RecordQueueRetry counts one retry attempt.
func (m *Metrics) RecordQueueRetry() {
	if m == nil {
		return
	}
	m.queueRetries.Inc()
}

// SetQueueDepth reports the current queue length.
func (m *Metrics) SetQueueDepth(depth int64) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

// Handler serves the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
