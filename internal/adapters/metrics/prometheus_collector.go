package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all metrics
	namespace = "quartermaster"
	// Subsystem for daemon metrics
	subsystem = "daemon"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalCollector is the singleton supply metrics collector
	// Set by SetGlobalCollector() when metrics are enabled
	globalCollector SupplyMetricsRecorder
)

// SupplyMetricsRecorder defines the interface for recording supply chain
// metrics events. Application code records through this interface so the
// collector stays optional.
type SupplyMetricsRecorder interface {
	RecordPropagation(depth int, durationSeconds float64)
	RecordTaskCompletion(level, status string)
	RecordClaimConflict(level string)
	RecordSweep(durationSeconds float64, expired, autoCompleted int)
}

// InitRegistry initializes the Prometheus registry.
// Should be called once at application startup if metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry.
// Returns nil if metrics are not initialized.
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalCollector sets the global metrics collector
func SetGlobalCollector(collector SupplyMetricsRecorder) {
	globalCollector = collector
}

// RecordPropagation records one propagation pass globally
func RecordPropagation(depth int, durationSeconds float64) {
	if globalCollector != nil {
		globalCollector.RecordPropagation(depth, durationSeconds)
	}
}

// RecordTaskCompletion records a task reaching a terminal status globally
func RecordTaskCompletion(level, status string) {
	if globalCollector != nil {
		globalCollector.RecordTaskCompletion(level, status)
	}
}

// RecordClaimConflict records a lost claim race globally
func RecordClaimConflict(level string) {
	if globalCollector != nil {
		globalCollector.RecordClaimConflict(level)
	}
}

// RecordSweep records one sweep pass globally
func RecordSweep(durationSeconds float64, expired, autoCompleted int) {
	if globalCollector != nil {
		globalCollector.RecordSweep(durationSeconds, expired, autoCompleted)
	}
}
