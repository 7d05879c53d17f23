package dispatch

import "github.com/andrescamacho/deliverysim-go/internal/domain/delivery"

// CancellationPolicy decides whether an order may still be withdrawn.
type CancellationPolicy interface {
	CanCancel(o *delivery.Order) bool
}

// StaticCancellationPolicy allows cancellation while the order is waiting or
// merely accepted; once a courier is in the store it is too late.
type StaticCancellationPolicy struct{}

// NewStaticCancellationPolicy creates the default cancellation policy.
func NewStaticCancellationPolicy() *StaticCancellationPolicy {
	return &StaticCancellationPolicy{}
}

func (*StaticCancellationPolicy) CanCancel(o *delivery.Order) bool {
	return o.Status() == delivery.StatusPlaced || o.Status() == delivery.StatusScheduled
}
