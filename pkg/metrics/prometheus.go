// Package metrics provides Prometheus metrics for the defense scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Grading activity
	sessionsCreated  prometheus.Counter
	sessionsImported prometheus.Counter
	sessionsDeleted  prometheus.Counter
	sessionsLive     prometheus.Gauge
	idempotentReplay prometheus.Counter
	scoreEdits       prometheus.Counter
	bulkOperations   *prometheus.CounterVec
	evaluations      *prometheus.CounterVec
	finalScore       prometheus.Histogram

	// Autosave queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Autosave workers
	workerCount   prometheus.Gauge
	workerSaves   prometheus.Counter
	workerStale   prometheus.Counter
	workerErrors  prometheus.Counter
	workerLatency prometheus.Histogram

	// Store
	storeRecords prometheus.Gauge
	storeLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record helpers

// Custom registry keeps /healthz free of unrelated default collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared registry

func init() { //nolint:gochecknoinits // global metrics setup
	customRegistry.MustRegister(collectors.NewGoCollector())
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "defense",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.sessionsCreated = m.counter("sessions_created_total", "Sessions created empty")
	m.sessionsImported = m.counter("sessions_imported_total", "Sessions created from an imported document")
	m.sessionsDeleted = m.counter("sessions_deleted_total", "Sessions deleted")
	m.sessionsLive = m.gauge("sessions_live", "Sessions held in the live cache")
	m.idempotentReplay = m.counter("idempotent_replays_total", "Create or import requests answered from an earlier Idempotency-Key")
	m.scoreEdits = m.counter("score_edits_total", "Single item score edits")
	m.bulkOperations = m.counterVec("bulk_operations_total", "Bulk sheet operations", "operation")
	m.evaluations = m.counterVec("evaluations_total", "Evaluations served, by letter grade (pending when incomplete)", "grade")
	m.finalScore = m.histogram("final_score", "Distribution of complete final scores on the 0-5 scale",
		[]float64{1, 1.5, 2, 2.5, 2.75, 3, 3.25, 3.5, 3.75, 4, 4.25, 4.5, 4.75, 5})

	m.queueSize = m.gauge("autosave_queue_size", "Snapshots waiting in the autosave queue")
	m.queueCapacity = m.gauge("autosave_queue_capacity", "Capacity of the autosave queue")
	m.queueEnqueued = m.counter("autosave_queue_enqueued_total", "Snapshots enqueued")
	m.queueDequeued = m.counter("autosave_queue_dequeued_total", "Snapshots dequeued")
	m.queueEnqueueErrors = m.counter("autosave_queue_enqueue_errors_total", "Snapshots rejected by a full or closed queue")

	m.workerCount = m.gauge("autosave_workers", "Running autosave workers")
	m.workerSaves = m.counter("autosave_saves_total", "Snapshots written to the store")
	m.workerStale = m.counter("autosave_stale_total", "Snapshots dropped because a newer revision was already stored")
	m.workerErrors = m.counter("autosave_errors_total", "Snapshots that failed to save")
	m.workerLatency = m.histogram("autosave_latency_milliseconds", "Time to persist one snapshot", m.histogramBuckets)

	m.storeRecords = m.gauge("store_records", "Sessions persisted in the store")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Store operation latency", m.histogramBuckets, "operation")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests", "endpoint", "method", "status")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds", "HTTP request duration",
		prometheus.DefBuckets, "endpoint", "method", "status")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "type")
	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "type")
}

// RecordSessionCreated counts an empty session.
func RecordSessionCreated() { globalManager.sessionsCreated.Inc() }

// RecordSessionImported counts a session created from a document.
func RecordSessionImported() { globalManager.sessionsImported.Inc() }

// RecordSessionDeleted counts a deleted session.
func RecordSessionDeleted() { globalManager.sessionsDeleted.Inc() }

// UpdateSessionsLive sets the live cache size.
func UpdateSessionsLive(n int) { globalManager.sessionsLive.Set(float64(n)) }

// RecordIdempotentReplay counts a request resolved by its Idempotency-Key.
func RecordIdempotentReplay() { globalManager.idempotentReplay.Inc() }

// RecordScoreEdit counts a single item edit.
func RecordScoreEdit() { globalManager.scoreEdits.Inc() }

// RecordBulkOperation counts a fill, clear or reset.
func RecordBulkOperation(op string) { globalManager.bulkOperations.WithLabelValues(op).Inc() }

// RecordEvaluation counts an evaluation. Letter is empty for incomplete sessions.
func RecordEvaluation(letter string, finalScore float64, complete bool) {
	if !complete {
		globalManager.evaluations.WithLabelValues("pending").Inc()
		return
	}
	globalManager.evaluations.WithLabelValues(letter).Inc()
	globalManager.finalScore.Observe(finalScore)
}

// UpdateQueueSize sets the autosave queue depth.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the autosave queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the number of running autosave workers.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// RecordWorkerSave records a persisted snapshot and how long it took.
func RecordWorkerSave(latencyMs float64) {
	globalManager.workerSaves.Inc()
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerStale counts a snapshot superseded by a newer revision.
func RecordWorkerStale() { globalManager.workerStale.Inc() }

// RecordWorkerError counts a failed save.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// UpdateStoreRecords sets the number of persisted sessions.
func UpdateStoreRecords(n int) { globalManager.storeRecords.Set(float64(n)) }

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry served at /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
