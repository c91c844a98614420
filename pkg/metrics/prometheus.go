// Package metrics provides Prometheus metrics for the revshare engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Core business metrics.
	attributionsComputed *prometheus.CounterVec // on-demand attribution computations, by model
	recomputeRuns        *prometheus.CounterVec // persisted recompute jobs, by model
	recomputeErrors      *prometheus.CounterVec
	recomputeLatency     *prometheus.HistogramVec
	jobsCoalesced        prometheus.Counter

	scorecardRuns     prometheus.Counter
	scorecardLatency  prometheus.Histogram
	scorecardPartners prometheus.Gauge

	// Operational health metrics.
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge
	storeRecords       *prometheus.GaugeVec

	// HTTP performance metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with configuration options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "revshare",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.attributionsComputed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attributions_computed_total",
		Help:      "On-demand attribution computations, labeled by model.",
	}, []string{"model"})

	m.recomputeRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_runs_total",
		Help:      "Persisted recompute jobs completed, labeled by model.",
	}, []string{"model"})

	m.recomputeErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_errors_total",
		Help:      "Recompute jobs that failed, labeled by model.",
	}, []string{"model"})

	m.recomputeLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_latency_ms",
		Help:      "End-to-end recompute job latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"model"})

	m.jobsCoalesced = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_coalesced_total",
		Help:      "Recompute requests dropped because the pair was already in flight.",
	})

	m.scorecardRuns = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scorecard_runs_total",
		Help:      "Batch scorecard computations.",
	})

	m.scorecardLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scorecard_latency_ms",
		Help:      "Batch scorecard computation latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.scorecardPartners = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scorecard_partners",
		Help:      "Peer population size of the last scorecard run.",
	})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of queued recompute jobs.",
	})

	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured recompute queue capacity.",
	})

	m.queueEnqueues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Successfully enqueued recompute jobs.",
	})

	m.queueDequeues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Recompute jobs handed to workers.",
	})

	m.queueEnqueueErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Failed enqueue attempts, labeled by reason.",
	}, []string{"reason"})

	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of recompute workers.",
	})

	m.storeRecords = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_records",
		Help:      "Records held by the in-memory store, labeled by kind.",
	}, []string{"kind"})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests, labeled by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// Package-level helpers over the global manager.

// RecordAttributionComputed counts an on-demand attribution computation.
func RecordAttributionComputed(model string) {
	if globalManager.enabled {
		globalManager.attributionsComputed.WithLabelValues(model).Inc()
	}
}

// RecordRecompute counts a completed recompute job.
func RecordRecompute(model string) {
	if globalManager.enabled {
		globalManager.recomputeRuns.WithLabelValues(model).Inc()
	}
}

// RecordRecomputeError counts a failed recompute job.
func RecordRecomputeError(model string) {
	if globalManager.enabled {
		globalManager.recomputeErrors.WithLabelValues(model).Inc()
	}
}

// RecordRecomputeLatency observes recompute job latency.
func RecordRecomputeLatency(model string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.recomputeLatency.WithLabelValues(model).Observe(latencyMs)
	}
}

// RecordJobCoalesced counts a coalesced recompute request.
func RecordJobCoalesced() {
	if globalManager.enabled {
		globalManager.jobsCoalesced.Inc()
	}
}

// RecordScorecardRun counts a batch scorecard computation.
func RecordScorecardRun() {
	if globalManager.enabled {
		globalManager.scorecardRuns.Inc()
	}
}

// RecordScorecardLatency observes scorecard computation latency.
func RecordScorecardLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.scorecardLatency.Observe(latencyMs)
	}
}

// UpdateScorecardPartners sets the last scored peer population size.
func UpdateScorecardPartners(count int) {
	if globalManager.enabled {
		globalManager.scorecardPartners.Set(float64(count))
	}
}

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue counts a successful enqueue.
func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueues.Inc()
	}
}

// RecordQueueDequeue counts a job handed to a worker.
func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeues.Inc()
	}
}

// RecordQueueEnqueueError counts a failed enqueue attempt.
func RecordQueueEnqueueError(reason string) {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerCount sets the recompute worker count.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// UpdateStoreRecords sets the record count for one store kind.
func UpdateStoreRecords(kind string, count int) {
	if globalManager.enabled {
		globalManager.storeRecords.WithLabelValues(kind).Set(float64(count))
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
