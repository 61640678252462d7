package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics for the ops server
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// Redis metrics
	redisOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)

	// Queue metrics
	queueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_size",
			Help: "Current queue size",
		},
		[]string{"queue_name"},
	)

	queueProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queue_processing_duration_seconds",
			Help:    "Queue processing duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"queue_name", "action"},
	)

	queueJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_jobs_total",
			Help: "Total number of claimed jobs by outcome",
		},
		[]string{"queue_name", "action"},
	)

	orphanedJobsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_orphaned_jobs_recovered_total",
			Help: "Jobs moved from the processing list back onto the queue at startup",
		},
		[]string{"queue_name"},
	)

	// Verification metrics
	verificationOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_outcomes_total",
			Help: "Verification job outcomes",
		},
		[]string{"outcome"},
	)

	// Proof client metrics
	proofRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proof_requests_total",
			Help: "Total number of on-chain proof submissions",
		},
		[]string{"chain", "status", "error_kind"},
	)

	proofRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proof_request_duration_seconds",
			Help:    "On-chain proof submission duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"chain"},
	)

	// Application metrics
	systemErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "system_errors_total",
			Help: "Total number of system errors",
		},
		[]string{"error_type", "component"},
	)
)

// HTTP Metrics
func RecordHTTPRequest(method, endpoint, statusCode string, duration float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, statusCode).Observe(duration)
}

// Redis Metrics
func RecordRedisOperation(operation, status string) {
	redisOperationsTotal.WithLabelValues(operation, status).Inc()
}

// Queue Metrics
func SetQueueSize(queueName string, size float64) {
	queueSize.WithLabelValues(queueName).Set(size)
}

func RecordQueueProcessing(queueName, action string, duration float64) {
	queueJobsTotal.WithLabelValues(queueName, action).Inc()
	queueProcessingDuration.WithLabelValues(queueName, action).Observe(duration)
}

func RecordOrphansRecovered(queueName string, count int) {
	orphanedJobsRecovered.WithLabelValues(queueName).Add(float64(count))
}

// Verification Metrics
func RecordVerificationOutcome(outcome string) {
	verificationOutcomesTotal.WithLabelValues(outcome).Inc()
}

// Proof Metrics
func RecordProofRequest(chain, status, errorKind string, duration float64) {
	proofRequestsTotal.WithLabelValues(chain, status, errorKind).Inc()
	proofRequestDuration.WithLabelValues(chain).Observe(duration)
}

// Application Metrics
func RecordSystemError(errorType, component string) {
	systemErrorsTotal.WithLabelValues(errorType, component).Inc()
}
