// Package metrics provides Prometheus metrics for the roster service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the roster service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Roster
	mutations    *prometheus.CounterVec
	rosterSize   prometheus.Gauge
	classMembers *prometheus.GaugeVec

	// Store
	storeErrors  *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec

	// Broadcast
	broadcasts      *prometheus.CounterVec
	framesDelivered prometheus.Counter
	framesDropped   prometheus.Counter
	subscribers     prometheus.Gauge
	generators      prometheus.Gauge

	// Subscriber queues
	queueEnqueued prometheus.Counter
	queueDequeued prometheus.Counter
	queueRejected *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared exposition registry

func init() { //nolint:gochecknoinits // metrics must exist before any recorder is called
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "roster",
		subsystem:        "",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
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
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.mutations = auto.NewCounterVec(m.counterOpts("character_mutations_total",
		"Successful roster mutations by kind (create, update, delete) and source (api, autogen, seed)"),
		[]string{"kind", "source"})
	m.rosterSize = auto.NewGauge(m.gaugeOpts("characters", "Number of characters in the roster"))
	m.classMembers = auto.NewGaugeVec(m.gaugeOpts("class_members", "Number of characters per class in the last published snapshot"),
		[]string{"class"})

	m.storeErrors = auto.NewCounterVec(m.counterOpts("store_errors_total", "Store operation failures by operation"),
		[]string{"op"})
	m.storeLatency = auto.NewHistogramVec(m.histogramOpts("store_latency_milliseconds", "Store operation latency in milliseconds", m.histogramBuckets),
		[]string{"backend", "op"})

	m.broadcasts = auto.NewCounterVec(m.counterOpts("broadcasts_total", "Frames published to the subscriber hub by event"),
		[]string{"event"})
	m.framesDelivered = auto.NewCounter(m.counterOpts("frames_delivered_total", "Frames accepted by subscriber queues"))
	m.framesDropped = auto.NewCounter(m.counterOpts("frames_dropped_total", "Frames dropped because a subscriber queue was full or closed"))
	m.subscribers = auto.NewGauge(m.gaugeOpts("subscribers", "Currently connected socket subscribers"))
	m.generators = auto.NewGauge(m.gaugeOpts("autogenerators_running", "Connections with auto-generation enabled"))

	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Frames enqueued on subscriber queues"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Frames drained from subscriber queues"))
	m.queueRejected = auto.NewCounterVec(m.counterOpts("queue_rejected_total", "Frames rejected by subscriber queues by reason"),
		[]string{"reason"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status code"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})
	m.httpErrors = auto.NewCounterVec(m.counterOpts("http_errors_total", "HTTP responses with status >= 400 by endpoint and error type"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordMutation counts one successful roster mutation.
func RecordMutation(kind, source string) {
	globalManager.mutations.WithLabelValues(kind, source).Inc()
}

// UpdateRosterSize sets the roster size gauge.
func UpdateRosterSize(count int) {
	globalManager.rosterSize.Set(float64(count))
}

// UpdateClassMembers replaces the per-class gauge with the given counts.
func UpdateClassMembers(counts map[string]int) {
	globalManager.classMembers.Reset()
	for class, n := range counts {
		globalManager.classMembers.WithLabelValues(class).Set(float64(n))
	}
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// RecordStoreLatency observes a store operation latency in milliseconds.
func RecordStoreLatency(backend, op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordBroadcast counts one published frame.
func RecordBroadcast(event string) {
	globalManager.broadcasts.WithLabelValues(event).Inc()
}

// RecordFrames adds delivered and dropped frame counts of one publish.
func RecordFrames(delivered, dropped int) {
	globalManager.framesDelivered.Add(float64(delivered))
	globalManager.framesDropped.Add(float64(dropped))
}

// UpdateSubscribers sets the connected subscriber gauge.
func UpdateSubscribers(count int) {
	globalManager.subscribers.Set(float64(count))
}

// IncGenerators and DecGenerators track running auto-generators.
func IncGenerators() { globalManager.generators.Inc() }

// DecGenerators decrements the running auto-generator gauge.
func DecGenerators() { globalManager.generators.Dec() }

// RecordQueueEnqueue counts a frame accepted by a subscriber queue.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a frame drained from a subscriber queue.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected counts a frame a subscriber queue refused.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
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

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
