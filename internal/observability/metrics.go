package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests  *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
	apiInflight  prometheus.Gauge
	aggregateOps *prometheus.HistogramVec
	aggregateCfl *prometheus.CounterVec
	uploads      *prometheus.CounterVec
	uploadBytes  prometheus.Counter
	orphans      *prometheus.CounterVec
	authorize    *prometheus.CounterVec
	signedURLs   *prometheus.CounterVec
}

var (
	metricsMu      sync.RWMutex
	currentMetrics *Metrics
)

// NewMetrics builds a metrics set on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchroom_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pitchroom_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pitchroom_api_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		aggregateOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pitchroom_aggregate_operation_duration_seconds",
			Help:    "Aggregate write latency by operation and status.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation", "status"}),
		aggregateCfl: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchroom_aggregate_conflicts_total",
			Help: "Aggregate writes rejected with a conflict.",
		}, []string{"operation"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchroom_media_uploads_total",
			Help: "Media uploads by content kind and outcome.",
		}, []string{"kind", "outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitchroom_media_upload_bytes_total",
			Help: "Bytes written to object storage by uploads.",
		}),
		orphans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchroom_media_object_cleanup_total",
			Help: "Object cleanup attempts after failed writes or deletes.",
		}, []string{"phase", "outcome"}),
		authorize: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchroom_disclosure_decisions_total",
			Help: "Disclosure decisions by outcome and reason.",
		}, []string{"allowed", "reason"}),
		signedURLs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchroom_signed_urls_issued_total",
			Help: "Signed asset handles issued.",
		}, []string{"mode"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateCfl,
		m.uploads, m.uploadBytes, m.orphans,
		m.authorize, m.signedURLs,
	)
	return m
}

// Init builds the process-wide metrics set.
func Init() *Metrics {
	m := NewMetrics()
	metricsMu.Lock()
	currentMetrics = m
	metricsMu.Unlock()
	return m
}

// Current returns the process-wide metrics set or nil when Init was never called.
func Current() *Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return currentMetrics
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(op, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateCfl.WithLabelValues(op).Inc()
}

func (m *Metrics) IncUpload(kind, outcome string, size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(kind, outcome).Inc()
	if outcome == "success" && size > 0 {
		m.uploadBytes.Add(float64(size))
	}
}

func (m *Metrics) IncObjectCleanup(phase, outcome string) {
	if m == nil {
		return
	}
	m.orphans.WithLabelValues(phase, outcome).Inc()
}

func (m *Metrics) IncDisclosureDecision(allowed bool, reason string) {
	if m == nil {
		return
	}
	a := "false"
	if allowed {
		a = "true"
	}
	if reason == "" {
		reason = "none"
	}
	m.authorize.WithLabelValues(a, reason).Inc()
}

func (m *Metrics) AddSignedURLs(mode string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.signedURLs.WithLabelValues(mode).Add(float64(n))
}
