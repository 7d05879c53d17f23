// Package delivery models what moves through the platform: customer orders,
// the stops and routes couriers execute to fulfill them, and the
// notifications the dispatcher sends to offer work.
package delivery

import (
	"fmt"

	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// Unset marks a lifecycle timestamp that has not happened yet.
const Unset int64 = -1

// Default service durations, applied when instance data carries none.
const (
	DefaultPickUpServiceTime  int64 = 600
	DefaultDropOffServiceTime int64 = 300
)

// Status tags an order's position in its lifecycle.
type Status string

const (
	StatusPlaced     Status = "placed"
	StatusScheduled  Status = "scheduled"
	StatusPickingUp  Status = "picking_up"
	StatusPickedUp   Status = "picked_up"
	StatusDroppedOff Status = "dropped_off"
	StatusCanceled   Status = "canceled"
)

// Order is placed by a user and serviced by at most one courier at a time.
//
// Lifecycle: placed → scheduled → picking_up → picked_up → dropped_off, with
// canceled reachable until the order is picked up. Each transition stamps its
// timestamp exactly once, so timestamps are monotonically non-decreasing
// along the lifecycle.
type Order struct {
	id                  int64
	userID              int64
	pickUpAt            shared.Location
	dropOffAt           shared.Location
	placementTime       int64
	preparationTime     int64
	readyTime           int64
	expectedDropOffTime int64
	pickUpServiceTime   int64
	dropOffServiceTime  int64

	status           Status
	acceptanceTime   int64
	inStoreTime      int64
	pickUpTime       int64
	dropOffTime      int64
	cancellationTime int64
	courierID        int64
}

// OrderParams carries the instance data needed to place an order.
type OrderParams struct {
	ID                  int64
	UserID              int64
	PickUpAt            shared.Location
	DropOffAt           shared.Location
	PlacementTime       int64
	PreparationTime     int64
	ReadyTime           int64
	ExpectedDropOffTime int64
	PickUpServiceTime   int64
	DropOffServiceTime  int64
}

// NewOrder creates a placed order from instance data.
func NewOrder(p OrderParams) *Order {
	o := &Order{
		id:                  p.ID,
		userID:              p.UserID,
		pickUpAt:            p.PickUpAt,
		dropOffAt:           p.DropOffAt,
		placementTime:       p.PlacementTime,
		preparationTime:     p.PreparationTime,
		readyTime:           p.ReadyTime,
		expectedDropOffTime: p.ExpectedDropOffTime,
		pickUpServiceTime:   p.PickUpServiceTime,
		dropOffServiceTime:  p.DropOffServiceTime,

		status:           StatusPlaced,
		acceptanceTime:   Unset,
		inStoreTime:      Unset,
		pickUpTime:       Unset,
		dropOffTime:      Unset,
		cancellationTime: Unset,
		courierID:        Unset,
	}
	if o.pickUpServiceTime <= 0 {
		o.pickUpServiceTime = DefaultPickUpServiceTime
	}
	if o.dropOffServiceTime <= 0 {
		o.dropOffServiceTime = DefaultDropOffServiceTime
	}
	return o
}

// Schedule records that a courier accepted the order's offer.
func (o *Order) Schedule(now, courierID int64) error {
	if o.status != StatusPlaced {
		return o.transitionError(StatusScheduled)
	}
	o.status = StatusScheduled
	o.acceptanceTime = now
	o.courierID = courierID
	return nil
}

// EnterStore records the courier arriving at the pick-up. Re-entering after
// an interrupted pick-up is a no-op, so the first in-store time sticks.
func (o *Order) EnterStore(now int64) error {
	switch o.status {
	case StatusScheduled:
		o.status = StatusPickingUp
		o.inStoreTime = now
		return nil
	case StatusPickingUp:
		return nil
	default:
		return o.transitionError(StatusPickingUp)
	}
}

// PickUp records the courier leaving the store with the order.
func (o *Order) PickUp(now int64) error {
	if o.status != StatusPickingUp {
		return o.transitionError(StatusPickedUp)
	}
	o.status = StatusPickedUp
	o.pickUpTime = now
	return nil
}

// DropOff completes the order at the customer.
func (o *Order) DropOff(now int64) error {
	if o.status != StatusPickedUp {
		return o.transitionError(StatusDroppedOff)
	}
	o.status = StatusDroppedOff
	o.dropOffTime = now
	return nil
}

// Cancel withdraws the order. Orders already picked up cannot be canceled.
func (o *Order) Cancel(now int64) error {
	switch o.status {
	case StatusPlaced, StatusScheduled, StatusPickingUp:
		o.status = StatusCanceled
		o.cancellationTime = now
		return nil
	default:
		return o.transitionError(StatusCanceled)
	}
}

func (o *Order) transitionError(to Status) error {
	return fmt.Errorf("order %d cannot transition from %s to %s", o.id, o.status, to)
}

func (o *Order) ID() int64                  { return o.id }
func (o *Order) UserID() int64              { return o.userID }
func (o *Order) PickUpAt() shared.Location  { return o.pickUpAt }
func (o *Order) DropOffAt() shared.Location { return o.dropOffAt }
func (o *Order) PlacementTime() int64       { return o.placementTime }
func (o *Order) PreparationTime() int64     { return o.preparationTime }
func (o *Order) ReadyTime() int64           { return o.readyTime }
func (o *Order) ExpectedDropOffTime() int64 { return o.expectedDropOffTime }
func (o *Order) PickUpServiceTime() int64   { return o.pickUpServiceTime }
func (o *Order) DropOffServiceTime() int64  { return o.dropOffServiceTime }
func (o *Order) Status() Status             { return o.status }
func (o *Order) AcceptanceTime() int64      { return o.acceptanceTime }
func (o *Order) InStoreTime() int64         { return o.inStoreTime }
func (o *Order) PickUpTime() int64          { return o.pickUpTime }
func (o *Order) DropOffTime() int64         { return o.dropOffTime }
func (o *Order) CancellationTime() int64    { return o.cancellationTime }
func (o *Order) CourierID() int64           { return o.courierID }
