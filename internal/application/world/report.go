package world

import (
	"encoding/json"
	"time"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/deliverysim-go/internal/domain/courier"
	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
)

// RunReport is the in-memory summary of a finished run, after warm-up
// filtering.
type RunReport struct {
	RunID      string
	InstanceID int
	Seed       int64
	StartedAt  time.Time
	FinishedAt time.Time

	OrdersPlaced    int
	OrdersFulfilled int
	OrdersCanceled  int
	OrdersLost      int

	// AvgClickToDoor is the mean placement-to-drop-off span over the
	// fulfilled orders, in seconds. Zero when nothing was fulfilled.
	AvgClickToDoor float64

	DroppedOffers  int
	CourierMetrics []courier.Metrics
}

func (w *World) buildReport(started, finished time.Time) *RunReport {
	fulfilled := w.dispatcher.FulfilledOrders()
	canceled := w.dispatcher.CanceledOrders()

	var clickToDoor int64
	for _, o := range fulfilled {
		clickToDoor += o.DropOffTime() - o.PlacementTime()
	}

	report := &RunReport{
		RunID:      w.runID,
		InstanceID: w.instanceID,
		Seed:       w.seed,
		StartedAt:  started,
		FinishedAt: finished,

		OrdersPlaced:    w.ordersPlaced,
		OrdersFulfilled: len(fulfilled),
		OrdersCanceled:  len(canceled),
		OrdersLost:      len(w.lostOrders),

		DroppedOffers: w.dispatcher.DroppedOffers(),
	}
	if len(fulfilled) > 0 {
		report.AvgClickToDoor = float64(clickToDoor) / float64(len(fulfilled))
	}

	for _, c := range w.couriers {
		report.CourierMetrics = append(report.CourierMetrics, c.Metrics())
	}
	return report
}

func (w *World) buildRecord(report *RunReport) persistence.RunRecord {
	var orders []*delivery.Order
	for _, o := range w.dispatcher.FulfilledOrders() {
		orders = append(orders, o)
	}
	for _, o := range w.dispatcher.CanceledOrders() {
		orders = append(orders, o)
	}

	cfgJSON, err := json.Marshal(w.cfg)
	if err != nil {
		w.log.WithError(err).Warn("failed to serialize config for the run record")
	}

	return persistence.RunRecord{
		RunID:         report.RunID,
		InstanceID:    report.InstanceID,
		StartedAt:     report.StartedAt,
		FinishedAt:    report.FinishedAt,
		SimulateFrom:  w.window.SimulateFrom,
		SimulateUntil: w.window.SimulateUntil,
		Seed:          report.Seed,
		ConfigJSON:    string(cfgJSON),

		OrdersPlaced:    report.OrdersPlaced,
		OrdersFulfilled: report.OrdersFulfilled,
		OrdersCanceled:  report.OrdersCanceled,
		OrdersLost:      report.OrdersLost,

		CourierMetrics: report.CourierMetrics,
		Orders:         orders,
	}
}
