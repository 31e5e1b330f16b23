// Package metrics provides Prometheus metrics for the VRAI analyzer service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultNamespace = "vrai"
	defaultSubsystem = "analyzer"
)

// Persistence results recorded by RecordPersistence.
const (
	PersistSaved       = "saved"
	PersistFailed      = "failed"
	PersistUnavailable = "unavailable"
)

// Manager manages all Prometheus metrics for the analyzer service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analysis metrics
	analysesTotal    *prometheus.CounterVec
	degradedTotal    *prometheus.CounterVec
	samplesAnalyzed  prometheus.Histogram
	analysisDuration prometheus.Histogram

	// Persistence metrics
	persistTotal    *prometheus.CounterVec
	persistLatency  prometheus.Histogram
	persistRetries  prometheus.Counter
	storedDocuments prometheus.Gauge
	breakerState    *prometheus.GaugeVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.analysesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analyses_total",
		Help:        "Total number of analyses served by outcome (ok, degraded)",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.degradedTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analyses_degraded_total",
		Help:        "Total number of analyses that fell back to default values, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.samplesAnalyzed = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "samples_per_analysis",
		Help:        "Number of telemetry samples per analysis request",
		Buckets:     prometheus.ExponentialBuckets(1, 4, 8),
		ConstLabels: m.constLabels,
	})

	m.analysisDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analysis_duration_milliseconds",
		Help:        "Time spent aggregating and composing a summary, persistence excluded",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.persistTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "persistence_attempts_total",
		Help:        "Persistence attempts by result (saved, failed, unavailable)",
		ConstLabels: m.constLabels,
	}, []string{"result"})

	m.persistLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "persistence_latency_milliseconds",
		Help:        "Latency of document store writes in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.persistRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "persistence_retries_total",
		Help:        "Document store write retries after transient failures",
		ConstLabels: m.constLabels,
	})

	m.storedDocuments = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stored_documents",
		Help:        "Number of analysis documents in the document store",
		ConstLabels: m.constLabels,
	})

	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "circuit_breaker_state",
		Help:        "Circuit breaker state per breaker (0 closed, 1 half-open, 2 open)",
		ConstLabels: m.constLabels,
	}, []string{"name"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP error responses by endpoint, method and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})
}

// RecordAnalysis counts a served analysis and its compute duration.
func (m *Manager) RecordAnalysis(degraded bool, samples int, duration time.Duration) {
	if !m.enabled {
		return
	}
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.analysesTotal.WithLabelValues(outcome).Inc()
	m.samplesAnalyzed.Observe(float64(samples))
	m.analysisDuration.Observe(float64(duration.Microseconds()) / 1000)
}

// RecordDegradation counts a degraded analysis by reason.
func (m *Manager) RecordDegradation(reason string) {
	if !m.enabled {
		return
	}
	m.degradedTotal.WithLabelValues(reason).Inc()
}

// RecordPersistence counts a persistence attempt by result.
func (m *Manager) RecordPersistence(result string) {
	if !m.enabled {
		return
	}
	m.persistTotal.WithLabelValues(result).Inc()
}

// RecordPersistenceLatency observes a document store write latency.
func (m *Manager) RecordPersistenceLatency(d time.Duration) {
	if !m.enabled {
		return
	}
	m.persistLatency.Observe(float64(d.Microseconds()) / 1000)
}

// RecordPersistenceRetry counts a retried write.
func (m *Manager) RecordPersistenceRetry() {
	if !m.enabled {
		return
	}
	m.persistRetries.Inc()
}

// UpdateStoredDocuments sets the document count gauge.
func (m *Manager) UpdateStoredDocuments(n int) {
	if !m.enabled {
		return
	}
	m.storedDocuments.Set(float64(n))
}

// UpdateBreakerState sets the state gauge for a named breaker.
func (m *Manager) UpdateBreakerState(name string, state int) {
	if !m.enabled {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordHTTPRequest counts a served HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts an HTTP error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Package-level helpers operating on the global manager.

// RecordAnalysis records a served analysis.
func RecordAnalysis(degraded bool, samples int, duration time.Duration) {
	globalManager.RecordAnalysis(degraded, samples, duration)
}

// RecordDegradation records a degraded analysis by reason.
func RecordDegradation(reason string) { globalManager.RecordDegradation(reason) }

// RecordPersistence records a persistence attempt result.
func RecordPersistence(result string) { globalManager.RecordPersistence(result) }

// RecordPersistenceLatency records a write latency.
func RecordPersistenceLatency(d time.Duration) { globalManager.RecordPersistenceLatency(d) }

// RecordPersistenceRetry records a retried write.
func RecordPersistenceRetry() { globalManager.RecordPersistenceRetry() }

// UpdateStoredDocuments updates the stored document gauge.
func UpdateStoredDocuments(n int) { globalManager.UpdateStoredDocuments(n) }

// UpdateBreakerState updates a breaker state gauge.
func UpdateBreakerState(name string, state int) { globalManager.UpdateBreakerState(name, state) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.RecordHTTPError(endpoint, method, errorType)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
