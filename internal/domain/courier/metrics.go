package courier

import (
	"github.com/shopspring/decimal"

	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// Metrics is the per-courier snapshot computed after the shift ends.
type Metrics struct {
	CourierID              int64
	OnTime                 int64
	OffTime                int64
	FulfilledOrders        int
	Earnings               decimal.Decimal
	UtilizationTime        int64
	AcceptedNotifications  int
	GuaranteedCompensation bool
	Utilization            float64
	DeliveryEarnings       decimal.Decimal
	Compensation           decimal.Decimal
	OrdersDeliveredPerHour float64
	BundlesPickedPerHour   float64
}

// Metrics computes the courier's shift metrics. Rate metrics are zero for a
// degenerate zero-length shift.
func (c *Courier) Metrics() Metrics {
	m := Metrics{
		CourierID:              c.id,
		OnTime:                 c.onTime,
		OffTime:                c.offTime,
		FulfilledOrders:        len(c.fulfilledOrders),
		Earnings:               c.earnings,
		UtilizationTime:        c.utilizationTime,
		AcceptedNotifications:  len(c.acceptedNotifications),
		GuaranteedCompensation: c.guaranteedCompensation,
		DeliveryEarnings:       c.earningsPerOrder.Mul(decimal.NewFromInt(int64(len(c.fulfilledOrders)))),
		Compensation:           c.earnings,
	}

	shift := c.offTime - c.onTime
	if shift > 0 {
		// Utilization can exceed 1 when a deferred log-off carries the last
		// delivery past off_time; the overrun stays in utilization_time.
		m.Utilization = float64(c.utilizationTime) / float64(shift)
		m.OrdersDeliveredPerHour = float64(len(c.fulfilledOrders)) / shared.Hours(shift)
		m.BundlesPickedPerHour = float64(len(c.acceptedNotifications)) / shared.Hours(shift)
	}
	return m
}
