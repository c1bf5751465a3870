package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendCallDuration tracks the latency of calls to the campaign backend.
	BackendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaignd_backend_call_duration_seconds",
			Help:    "Duration of campaign backend API calls in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"operation", "status"}, // status: success or failure
	)

	// LifecycleOps counts lifecycle operations per module source and outcome.
	LifecycleOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignd_lifecycle_operations_total",
			Help: "Campaign lifecycle operations by source and outcome",
		},
		[]string{"operation", "source", "outcome"},
	)

	// MaskedStartFailures counts manual-start failures that were reported to
	// the caller as success under the suppression policy.
	MaskedStartFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaignd_masked_manual_start_failures_total",
			Help: "Manual campaign start failures masked as success",
		},
	)
)

// RecordBackendCall records one backend call observation.
func RecordBackendCall(operation, status string, seconds float64) {
	BackendCallDuration.WithLabelValues(operation, status).Observe(seconds)
}
