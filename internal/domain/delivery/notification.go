package delivery

import (
	"github.com/google/uuid"

	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// NotificationKind distinguishes work offers from relocation requests.
type NotificationKind string

const (
	NotifyPickUpDropOff NotificationKind = "pick_up_drop_off"
	NotifyPreposition   NotificationKind = "prepositioning"
)

// Notification is an offer the dispatcher sends to a single courier. For
// pick-up/drop-off offers the instruction is a route (new, or stops to append
// to the courier's active route); for prepositioning it is a destination.
type Notification struct {
	ID          string
	CourierID   int64
	Kind        NotificationKind
	Route       *Route
	Destination shared.Location
}

// NewRouteNotification creates a pick-up/drop-off offer for the courier.
func NewRouteNotification(courierID int64, route *Route) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		CourierID: courierID,
		Kind:      NotifyPickUpDropOff,
		Route:     route,
	}
}

// NewPrepositionNotification creates a relocation request for the courier.
func NewPrepositionNotification(courierID int64, destination shared.Location) *Notification {
	return &Notification{
		ID:          uuid.NewString(),
		CourierID:   courierID,
		Kind:        NotifyPreposition,
		Destination: destination,
	}
}

// Instruction returns the offer's payload as a route: the carried route for
// work offers, a single preposition stop for relocations.
func (n *Notification) Instruction() *Route {
	if n.Kind == NotifyPreposition {
		return NewPrepositionRoute(n.Destination)
	}
	return n.Route
}

// OrderIDs lists the orders the offer covers; empty for prepositioning.
func (n *Notification) OrderIDs() []int64 {
	if n.Route == nil {
		return nil
	}
	return n.Route.OrderIDs()
}
