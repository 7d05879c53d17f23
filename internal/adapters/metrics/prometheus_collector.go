package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all metrics
	namespace = "deliverysim"
	// Subsystem for simulation run metrics
	subsystem = "run"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalRoutingCollector is the singleton routing metrics collector
	// Set by SetGlobalRoutingCollector() when metrics are enabled
	globalRoutingCollector RoutingMetricsRecorder
)

// RoutingMetricsRecorder defines the interface for recording routing-engine
// metrics. The OSRM adapter records through the package-level functions so
// it works unchanged when metrics are disabled.
type RoutingMetricsRecorder interface {
	RecordRoutingRequest(status string, duration float64)
	RecordRoutingFallback()
	RecordRoutingCacheHit()
	RecordRoutingCacheMiss()
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalRoutingCollector sets the global routing metrics collector
func SetGlobalRoutingCollector(collector RoutingMetricsRecorder) {
	globalRoutingCollector = collector
}

// RecordRoutingRequest records a routing-engine request completion globally
func RecordRoutingRequest(status string, duration float64) {
	if globalRoutingCollector != nil {
		globalRoutingCollector.RecordRoutingRequest(status, duration)
	}
}

// RecordRoutingFallback records a degradation to the direct polyline globally
func RecordRoutingFallback() {
	if globalRoutingCollector != nil {
		globalRoutingCollector.RecordRoutingFallback()
	}
}

// RecordRoutingCacheHit records a polyline cache hit globally
func RecordRoutingCacheHit() {
	if globalRoutingCollector != nil {
		globalRoutingCollector.RecordRoutingCacheHit()
	}
}

// RecordRoutingCacheMiss records a polyline cache miss globally
func RecordRoutingCacheMiss() {
	if globalRoutingCollector != nil {
		globalRoutingCollector.RecordRoutingCacheMiss()
	}
}
