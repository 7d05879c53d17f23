package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SimulationCollector handles the platform-level counters of a run. It
// implements the dispatcher's Recorder interface.
type SimulationCollector struct {
	ordersTotal        *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	clickToDoor        prometheus.Histogram
	courierUtilization prometheus.Histogram
	courierEarnings    prometheus.Histogram
}

// NewSimulationCollector creates a new simulation metrics collector
func NewSimulationCollector() *SimulationCollector {
	return &SimulationCollector{
		// Order lifecycle outcomes
		ordersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_total",
				Help:      "Total number of orders by lifecycle outcome",
			},
			[]string{"outcome"},
		),

		// Notification outcomes
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_total",
				Help:      "Total number of notifications by outcome",
			},
			[]string{"outcome"},
		),

		// Click-to-door distribution in simulated seconds
		clickToDoor: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "click_to_door_seconds",
				Help:      "Placement-to-drop-off duration distribution",
				Buckets:   []float64{600, 1200, 1800, 2400, 3000, 3600, 5400, 7200, 10800},
			},
		),

		// Per-courier shift utilization ratio
		courierUtilization: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "courier_utilization_ratio",
				Help:      "Busy time over shift time per courier",
				Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
		),

		// Per-courier shift earnings
		courierEarnings: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "courier_earnings",
				Help:      "Earnings per courier shift",
				Buckets:   []float64{5, 10, 20, 40, 60, 80, 100, 150, 200},
			},
		),
	}
}

// Register registers all simulation metrics with the Prometheus registry
func (c *SimulationCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	collectors := []prometheus.Collector{
		c.ordersTotal,
		c.notificationsTotal,
		c.clickToDoor,
		c.courierUtilization,
		c.courierEarnings,
	}

	for _, collector := range collectors {
		if err := Registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// OrderPlaced records an admitted order
func (c *SimulationCollector) OrderPlaced() {
	c.ordersTotal.WithLabelValues("placed").Inc()
}

// OrderCanceled records a user cancellation
func (c *SimulationCollector) OrderCanceled() {
	c.ordersTotal.WithLabelValues("canceled").Inc()
}

// OrderFulfilled records a completed delivery with its click-to-door time
func (c *SimulationCollector) OrderFulfilled(clickToDoorSeconds int64) {
	c.ordersTotal.WithLabelValues("fulfilled").Inc()
	c.clickToDoor.Observe(float64(clickToDoorSeconds))
}

// OrderLost records an order turned away by demand management
func (c *SimulationCollector) OrderLost() {
	c.ordersTotal.WithLabelValues("lost").Inc()
}

// NotificationSent records an offer sent to a courier
func (c *SimulationCollector) NotificationSent() {
	c.notificationsTotal.WithLabelValues("sent").Inc()
}

// NotificationAccepted records an accepted offer
func (c *SimulationCollector) NotificationAccepted() {
	c.notificationsTotal.WithLabelValues("accepted").Inc()
}

// NotificationRejected records a rejected offer
func (c *SimulationCollector) NotificationRejected() {
	c.notificationsTotal.WithLabelValues("rejected").Inc()
}

// ObserveCourierShift records a courier's end-of-shift utilization and
// earnings
func (c *SimulationCollector) ObserveCourierShift(utilizationRatio, earnings float64) {
	c.courierUtilization.Observe(utilizationRatio)
	c.courierEarnings.Observe(earnings)
}
