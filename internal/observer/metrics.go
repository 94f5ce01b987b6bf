package observer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	// Labels for validation metrics
	validationLabels = []string{"entity", "operation", "outcome"}

	// ValidationsTotal counts validation runs, labeled by entity
	// (opportunity, contact, activity), operation (create, update,
	// quick_create, close) and outcome (ok, invalid).
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_validation_runs_total",
			Help: "Total number of validation runs, labeled by entity, operation and outcome.",
		},
		validationLabels,
	)

	// ValidationFieldErrorsTotal counts individual field errors reported.
	ValidationFieldErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_validation_field_errors_total",
			Help: "Total number of field errors reported by validation runs.",
		},
		[]string{"entity", "operation"},
	)

	// DuplicateConflictsTotal counts duplicate-opportunity conflicts.
	DuplicateConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_validation_duplicate_conflicts_total",
			Help: "Total number of opportunity creates blocked by the duplicate check.",
		},
	)

	// DuplicateCheckDurationSeconds observes the latency of the sequential
	// duplicate-check gateway protocol.
	DuplicateCheckDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crm_validation_duplicate_check_duration_seconds",
			Help:    "Histogram of duplicate check durations including gateway round-trips.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
	)

	// Labels for gateway operations
	gatewayLabels = []string{"operation", "resource", "status"}

	// GatewayOperationDurationSeconds observes data gateway call latency.
	GatewayOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_validation_gateway_operation_duration_seconds",
			Help:    "Histogram of data gateway operation durations.",
			Buckets: prometheus.DefBuckets,
		},
		gatewayLabels,
	)

	// Import worker metrics
	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_validation_import_rows_total",
			Help: "Total number of import rows validated, labeled by outcome.",
		},
		[]string{"outcome"},
	)
	ImportQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crm_validation_import_queue_length",
			Help: "Current number of rows waiting in the import worker pool.",
		},
	)
)

// InitMetrics enables or disables metric collection. Metrics are registered
// via promauto either way; disabling just turns the helpers into no-ops.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IncValidationRun increments the validation run counter.
func IncValidationRun(entity, operation, outcome string) {
	if !metricsEnabled {
		return
	}
	ValidationsTotal.WithLabelValues(entity, operation, outcome).Inc()
}

// AddValidationFieldErrors adds the number of field errors from one run.
func AddValidationFieldErrors(entity, operation string, count int) {
	if !metricsEnabled || count <= 0 {
		return
	}
	ValidationFieldErrorsTotal.WithLabelValues(entity, operation).Add(float64(count))
}

// IncDuplicateConflict increments the duplicate conflict counter.
func IncDuplicateConflict() {
	if !metricsEnabled {
		return
	}
	DuplicateConflictsTotal.Inc()
}

// ObserveDuplicateCheckDuration observes one duplicate check.
func ObserveDuplicateCheckDuration(duration time.Duration) {
	if !metricsEnabled {
		return
	}
	DuplicateCheckDurationSeconds.Observe(duration.Seconds())
}

// ObserveGatewayOperation observes one gateway call.
func ObserveGatewayOperation(operation, resource string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	GatewayOperationDurationSeconds.WithLabelValues(operation, resource, status).Observe(duration.Seconds())
}

// IncImportRows adds validated import rows by outcome.
func IncImportRows(outcome string, count int) {
	if !metricsEnabled || count <= 0 {
		return
	}
	ImportRowsTotal.WithLabelValues(outcome).Add(float64(count))
}

// SetImportQueueLength records the current import pool backlog.
func SetImportQueueLength(length int) {
	if !metricsEnabled {
		return
	}
	ImportQueueLength.Set(float64(length))
}
