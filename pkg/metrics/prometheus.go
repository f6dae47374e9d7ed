// Package metrics provides Prometheus metrics for the Fundineed service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Calculators
	eligibilityChecks *prometheus.CounterVec
	eligibilityScore  prometheus.Histogram
	emiCalculations   *prometheus.CounterVec
	emiSchedules      prometheus.Counter

	// Back-office
	applications *prometheus.CounterVec
	enquiries    prometheus.Counter
	logins       *prometheus.CounterVec

	// Analytics pipeline
	trackingEvents    *prometheus.CounterVec
	trackingDuplicate prometheus.Counter
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueRejected     *prometheus.CounterVec
	workerCount       prometheus.Gauge
	workerLatency     prometheus.Histogram
	workerErrors      prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec

	// Storage and cache
	repositoryLatency *prometheus.HistogramVec
	repositoryRecords *prometheus.GaugeVec
	cacheRequests     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // served at /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fundineed",
		subsystem:        "site",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.eligibilityChecks = m.counterVec("eligibility_checks_total",
		"Eligibility checks scored, by tier", "tier")
	m.eligibilityScore = m.histogram("eligibility_score",
		"Distribution of eligibility scores", prometheus.LinearBuckets(10, 10, 10))
	m.emiCalculations = m.counterVec("emi_calculations_total",
		"EMI calculations, by case (standard, zero_rate, degenerate)", "case")
	m.emiSchedules = m.counter("emi_schedules_total",
		"Amortization schedules generated")

	m.applications = m.counterVec("applications_total",
		"Loan applications by status transition target", "status")
	m.enquiries = m.counter("enquiries_total", "Contact enquiries received")
	m.logins = m.counterVec("admin_logins_total", "Admin login attempts by result", "result")

	m.trackingEvents = m.counterVec("tracking_events_total",
		"Tracking events accepted, by kind", "kind")
	m.trackingDuplicate = m.counter("tracking_events_duplicate_total",
		"Tracking events dropped as duplicates")
	m.queueSize = m.gauge("queue_size", "Current size of the tracking event queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum tracking event queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Tracking events enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Tracking events dequeued")
	m.queueRejected = m.counterVec("queue_rejected_total",
		"Tracking events rejected by the queue, by reason", "reason")
	m.workerCount = m.gauge("worker_count", "Number of tracking workers")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time to record one tracking event in the sink", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Tracking events the sink failed to record")

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total",
		"HTTP error responses by endpoint, method and error type", "endpoint", "method", "error_type")
	m.rateLimited = m.counterVec("rate_limited_total",
		"Requests rejected by the per-client rate limiter", "endpoint")

	m.repositoryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_latency_milliseconds",
		Help:      "Repository operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})
	m.repositoryRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_records",
		Help:      "Stored records per collection",
	}, []string{"collection"})
	m.cacheRequests = m.counterVec("cache_requests_total",
		"Cache lookups by result (hit, miss, error)", "result")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds",
		"Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordEligibilityCheck counts a scored profile and observes its score.
func RecordEligibilityCheck(tier string, score int) {
	globalManager.eligibilityChecks.WithLabelValues(tier).Inc()
	globalManager.eligibilityScore.Observe(float64(score))
}

// RecordEMICalculation counts an EMI calculation by case.
func RecordEMICalculation(kind string) {
	globalManager.emiCalculations.WithLabelValues(kind).Inc()
}

// RecordEMISchedule counts a generated schedule.
func RecordEMISchedule() {
	globalManager.emiSchedules.Inc()
}

// RecordApplication counts an application reaching status.
func RecordApplication(status string) {
	globalManager.applications.WithLabelValues(status).Inc()
}

// RecordEnquiry counts a contact enquiry.
func RecordEnquiry() {
	globalManager.enquiries.Inc()
}

// RecordLogin counts an admin login attempt; result is "success" or "failure".
func RecordLogin(result string) {
	globalManager.logins.WithLabelValues(result).Inc()
}

// RecordTrackingEvent counts an accepted tracking event.
func RecordTrackingEvent(kind string) {
	globalManager.trackingEvents.WithLabelValues(kind).Inc()
}

// RecordTrackingDuplicate counts a duplicate tracking event.
func RecordTrackingDuplicate() {
	globalManager.trackingDuplicate.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected counts a rejected enqueue.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of tracking workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records sink latency for one event.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordRepositoryLatency records the latency of a repository operation.
func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateRepositoryRecords sets the record count of a collection.
func UpdateRepositoryRecords(collection string, count int) {
	globalManager.repositoryRecords.WithLabelValues(collection).Set(float64(count))
}

// RecordCacheRequest counts a cache lookup; result is hit, miss or error.
func RecordCacheRequest(result string) {
	globalManager.cacheRequests.WithLabelValues(result).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
