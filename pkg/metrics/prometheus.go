// Package metrics provides Prometheus metrics for the fairteams service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// generationBuckets covers sub-millisecond 12-player runs up to multi-second 15-player runs.
var generationBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // bucket layout

// Manager owns every collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Engine metrics
	generations          *prometheus.CounterVec
	invalidRosters       prometheus.Counter
	partitionsEnumerated prometheus.Counter
	stageSurvivors       *prometheus.HistogramVec
	fallbacks            prometheus.Counter
	generationLatency    prometheus.Histogram

	// Job pipeline metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge
	workersBusy        prometheus.Gauge
	jobTransitions     *prometheus.CounterVec
	jobsStored         prometheus.Gauge
	duplicates         prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec

	// System metrics
	memoryBytes prometheus.Gauge
	goroutines  prometheus.Gauge
	gcPause     prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fairteams",
		subsystem:        "engine",
		histogramBuckets: generationBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.generations = auto.NewCounterVec(m.counterOpts("generations_total",
		"Completed team generations by roster size and outcome"), []string{"roster_size", "outcome"})
	m.invalidRosters = auto.NewCounter(m.counterOpts("invalid_rosters_total",
		"Generation requests rejected for roster size"))
	m.partitionsEnumerated = auto.NewCounter(m.counterOpts("partitions_enumerated_total",
		"Candidate partitions produced by the generator"))
	m.stageSurvivors = auto.NewHistogramVec(m.histogramOpts("stage_survivors",
		"Candidates surviving each filter stage per generation",
		prometheus.ExponentialBuckets(1, 4, 11)), []string{"stage"})
	m.fallbacks = auto.NewCounter(m.counterOpts("fallbacks_total",
		"Generations that fell back to the first enumerated partition"))
	m.generationLatency = auto.NewHistogram(m.histogramOpts("generation_latency_milliseconds",
		"Wall time of a single engine invocation", m.histogramBuckets))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Configured job queue capacity"))
	m.queueEnqueueErrors = auto.NewCounterVec(m.counterOpts("queue_enqueue_errors_total",
		"Rejected enqueue attempts by reason"), []string{"reason"})
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured generation workers"))
	m.workersBusy = auto.NewGauge(m.gaugeOpts("workers_busy", "Workers currently running a generation"))
	m.jobTransitions = auto.NewCounterVec(m.counterOpts("job_transitions_total",
		"Job status transitions"), []string{"status"})
	m.jobsStored = auto.NewGauge(m.gaugeOpts("jobs_stored", "Jobs currently retained in the job store"))
	m.duplicates = auto.NewCounter(m.counterOpts("duplicate_submissions_total",
		"Job submissions answered from an earlier request id"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})
	m.httpErrors = auto.NewCounterVec(m.counterOpts("http_errors_total",
		"HTTP error responses by endpoint and error type"), []string{"endpoint", "error_type"})
	m.rateLimited = auto.NewCounterVec(m.counterOpts("rate_limited_total",
		"Requests rejected by the rate limiter"), []string{"endpoint"})

	m.memoryBytes = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.goroutines = auto.NewGauge(m.gaugeOpts("system_goroutines", "Live goroutines"))
	m.gcPause = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds",
		"Average GC pause per sample", []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50}))
}

// Engine metrics.

// RecordGeneration counts a finished engine invocation.
func RecordGeneration(rosterSize int, outcome string) {
	globalManager.generations.WithLabelValues(itoa(rosterSize), outcome).Inc()
}

// RecordInvalidRoster counts a roster rejected for its size.
func RecordInvalidRoster() {
	globalManager.invalidRosters.Inc()
}

// AddPartitionsEnumerated adds to the enumerated partition counter.
func AddPartitionsEnumerated(n int) {
	globalManager.partitionsEnumerated.Add(float64(n))
}

// ObserveStageSurvivors records how many candidates survived a stage.
func ObserveStageSurvivors(stage string, n int) {
	globalManager.stageSurvivors.WithLabelValues(stage).Observe(float64(n))
}

// RecordFallback counts a generation that used the first enumerated partition.
func RecordFallback() {
	globalManager.fallbacks.Inc()
}

// RecordGenerationLatency records engine wall time in milliseconds.
func RecordGenerationLatency(ms float64) {
	globalManager.generationLatency.Observe(ms)
}

// Job pipeline metrics.

// UpdateQueueSize sets the number of waiting jobs.
func UpdateQueueSize(n int) {
	globalManager.queueSize.Set(float64(n))
}

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(n int) {
	globalManager.queueCapacity.Set(float64(n))
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(n int) {
	globalManager.workerCount.Set(float64(n))
}

// IncWorkersBusy marks a worker as running a generation.
func IncWorkersBusy() {
	globalManager.workersBusy.Inc()
}

// DecWorkersBusy marks a worker as idle again.
func DecWorkersBusy() {
	globalManager.workersBusy.Dec()
}

// RecordJobTransition counts a job entering status.
func RecordJobTransition(status string) {
	globalManager.jobTransitions.WithLabelValues(status).Inc()
}

// UpdateJobsStored sets the number of retained jobs.
func UpdateJobsStored(n int) {
	globalManager.jobsStored.Set(float64(n))
}

// RecordDuplicateSubmission counts an idempotent resubmission.
func RecordDuplicateSubmission() {
	globalManager.duplicates.Inc()
}

// HTTP metrics.

// RecordHTTPRequest increments the request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryBytes.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	globalManager.goroutines.Set(float64(n))
}

// RecordSystemGCPauseTime observes an average GC pause in milliseconds.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.gcPause.Observe(ms)
}

// GetRegistry returns the registry all global metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
