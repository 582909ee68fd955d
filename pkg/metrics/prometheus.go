// Package metrics provides Prometheus metrics for the intake matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the intake service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Application flow metrics
	applicationsSubmitted prometheus.Counter
	eligibilityChecks     prometheus.Counter
	eligibilityFailures   *prometheus.CounterVec
	statusTransitions     *prometheus.CounterVec

	// Arbitration metrics
	admissionsSelected   prometheus.Counter
	admissionsDeclined   prometheus.Counter
	arbitrationConflicts prometheus.Counter
	arbitrationRetries   prometheus.Counter

	// Scoring metrics
	scoringRuns     *prometheus.CounterVec
	scoringDuration prometheus.Histogram
	jobsRanked      prometheus.Counter

	// Notification metrics
	notificationsEmitted prometheus.Counter
	notificationsDropped prometheus.Counter
	notificationFailures prometheus.Counter

	// Store metrics
	storeOperations   *prometheus.CounterVec
	storeBatchSize    prometheus.Histogram
	storeOpLatency    prometheus.Histogram
	storeGuardAborts  prometheus.Counter
	documentsTotal    *prometheus.GaugeVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "intake",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.applicationsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "applications_submitted_total",
		Help:      "Total number of applications successfully created",
	})

	m.eligibilityChecks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eligibility_checks_total",
		Help:      "Total number of eligibility checks performed",
	})

	m.eligibilityFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "eligibility_failures_total",
			Help:      "Total number of failed eligibility rules by reason",
		},
		[]string{"reason"},
	)

	m.statusTransitions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "status_transitions_total",
			Help:      "Total number of application status transitions by target status",
		},
		[]string{"status"},
	)

	m.admissionsSelected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "admissions_selected_total",
		Help:      "Total number of successful admission selections",
	})

	m.admissionsDeclined = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "admissions_declined_total",
		Help:      "Total number of admitted applications auto-declined during arbitration",
	})

	m.arbitrationConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "arbitration_conflicts_total",
		Help:      "Total number of arbitration batches aborted on store conflict",
	})

	m.arbitrationRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "arbitration_retries_total",
		Help:      "Total number of arbitration batch retries",
	})

	m.scoringRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scoring_runs_total",
			Help:      "Total number of qualification scoring runs by weight profile",
		},
		[]string{"profile"},
	)

	m.scoringDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_duration_milliseconds",
		Help:      "Histogram of qualification scoring duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.jobsRanked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_ranked_total",
		Help:      "Total number of jobs scored during ranking passes",
	})

	m.notificationsEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_emitted_total",
		Help:      "Total number of notifications persisted",
	})

	m.notificationsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_dropped_total",
		Help:      "Total number of notifications dropped on queue backpressure",
	})

	m.notificationFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_failures_total",
		Help:      "Total number of notification writes that failed",
	})

	m.storeOperations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_operations_total",
			Help:      "Total number of document store operations by kind",
		},
		[]string{"op"},
	)

	m.storeBatchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_batch_size",
		Help:      "Histogram of operation counts per atomic batch",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
	})

	m.storeOpLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_operation_latency_milliseconds",
		Help:      "Document store operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeGuardAborts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_guard_aborts_total",
		Help:      "Total number of batches aborted by a failed guard precondition",
	})

	m.documentsTotal = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "documents_total",
			Help:      "Current number of documents per collection",
		},
		[]string{"collection"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordApplicationSubmitted increments the submitted applications counter.
func RecordApplicationSubmitted() {
	globalManager.applicationsSubmitted.Inc()
}

// RecordEligibilityCheck increments the eligibility checks counter.
func RecordEligibilityCheck() {
	globalManager.eligibilityChecks.Inc()
}

// RecordEligibilityFailure records a failed eligibility rule.
func RecordEligibilityFailure(reason string) {
	globalManager.eligibilityFailures.WithLabelValues(reason).Inc()
}

// RecordStatusTransition records an application status transition.
func RecordStatusTransition(status string) {
	globalManager.statusTransitions.WithLabelValues(status).Inc()
}

// RecordAdmissionSelected increments the admission selections counter.
func RecordAdmissionSelected() {
	globalManager.admissionsSelected.Inc()
}

// RecordAdmissionsDeclined adds the count of auto-declined applications.
func RecordAdmissionsDeclined(n int) {
	globalManager.admissionsDeclined.Add(float64(n))
}

// RecordArbitrationConflict increments the arbitration conflict counter.
func RecordArbitrationConflict() {
	globalManager.arbitrationConflicts.Inc()
}

// RecordArbitrationRetry increments the arbitration retry counter.
func RecordArbitrationRetry() {
	globalManager.arbitrationRetries.Inc()
}

// RecordScoringRun records a scoring run for a weight profile.
func RecordScoringRun(profile string) {
	globalManager.scoringRuns.WithLabelValues(profile).Inc()
}

// RecordScoringDuration records scoring duration in milliseconds.
func RecordScoringDuration(ms float64) {
	globalManager.scoringDuration.Observe(ms)
}

// RecordJobsRanked adds the number of jobs scored in a ranking pass.
func RecordJobsRanked(n int) {
	globalManager.jobsRanked.Add(float64(n))
}

// RecordNotificationEmitted increments the emitted notifications counter.
func RecordNotificationEmitted() {
	globalManager.notificationsEmitted.Inc()
}

// RecordNotificationDropped increments the dropped notifications counter.
func RecordNotificationDropped() {
	globalManager.notificationsDropped.Inc()
}

// RecordNotificationFailure increments the failed notifications counter.
func RecordNotificationFailure() {
	globalManager.notificationFailures.Inc()
}

// RecordStoreOperation records a document store operation by kind.
func RecordStoreOperation(op string) {
	globalManager.storeOperations.WithLabelValues(op).Inc()
}

// RecordStoreBatchSize records the size of an atomic batch.
func RecordStoreBatchSize(n int) {
	globalManager.storeBatchSize.Observe(float64(n))
}

// RecordStoreOpLatency records store operation latency in milliseconds.
func RecordStoreOpLatency(ms float64) {
	globalManager.storeOpLatency.Observe(ms)
}

// RecordStoreGuardAbort increments the guard-aborted batches counter.
func RecordStoreGuardAbort() {
	globalManager.storeGuardAborts.Inc()
}

// UpdateDocumentsTotal sets the document count for a collection.
func UpdateDocumentsTotal(collection string, n int) {
	globalManager.documentsTotal.WithLabelValues(collection).Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
