package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RoutingMetricsCollector handles all routing-engine request metrics
type RoutingMetricsCollector struct {
	routingRequestsTotal   *prometheus.CounterVec
	routingRequestDuration prometheus.Histogram
	routingFallbacksTotal  prometheus.Counter
	routingCacheTotal      *prometheus.CounterVec
}

// NewRoutingMetricsCollector creates a new routing metrics collector
func NewRoutingMetricsCollector() *RoutingMetricsCollector {
	return &RoutingMetricsCollector{
		// Total routing requests by outcome status
		routingRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routing_requests_total",
				Help:      "Total number of routing-engine requests by status",
			},
			[]string{"status"},
		),

		// Routing request duration histogram (wall-clock seconds)
		routingRequestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routing_request_duration_seconds",
				Help:      "Routing-engine request duration distribution",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
		),

		// Degradations to the direct two-point polyline
		routingFallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routing_fallbacks_total",
				Help:      "Total number of degradations to the direct polyline",
			},
		),

		// Polyline cache lookups by result
		routingCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routing_cache_lookups_total",
				Help:      "Total number of polyline cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// Register registers all routing metrics with the Prometheus registry
func (c *RoutingMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	collectors := []prometheus.Collector{
		c.routingRequestsTotal,
		c.routingRequestDuration,
		c.routingFallbacksTotal,
		c.routingCacheTotal,
	}

	for _, collector := range collectors {
		if err := Registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// RecordRoutingRequest records a routing-engine request completion
func (c *RoutingMetricsCollector) RecordRoutingRequest(status string, duration float64) {
	c.routingRequestsTotal.WithLabelValues(status).Inc()
	c.routingRequestDuration.Observe(duration)
}

// RecordRoutingFallback records a degradation to the direct polyline
func (c *RoutingMetricsCollector) RecordRoutingFallback() {
	c.routingFallbacksTotal.Inc()
}

// RecordRoutingCacheHit records a polyline cache hit
func (c *RoutingMetricsCollector) RecordRoutingCacheHit() {
	c.routingCacheTotal.WithLabelValues("hit").Inc()
}

// RecordRoutingCacheMiss records a polyline cache miss
func (c *RoutingMetricsCollector) RecordRoutingCacheMiss() {
	c.routingCacheTotal.WithLabelValues("miss").Inc()
}
