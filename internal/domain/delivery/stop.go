package delivery

import "github.com/andrescamacho/deliverysim-go/internal/domain/shared"

// StopKind distinguishes what a courier does at a stop.
type StopKind string

const (
	StopPickUp      StopKind = "pick_up"
	StopDropOff     StopKind = "drop_off"
	StopPreposition StopKind = "preposition"
)

// Stop is a geographical point on a route with the orders to service there.
// Preposition stops carry no orders; the courier only relocates.
type Stop struct {
	Location shared.Location
	Position int
	Kind     StopKind
	Orders   map[int64]*Order
	Visited  bool
}

// NewStop creates an unvisited stop servicing the given orders.
func NewStop(location shared.Location, position int, kind StopKind, orders map[int64]*Order) *Stop {
	return &Stop{
		Location: location,
		Position: position,
		Kind:     kind,
		Orders:   orders,
	}
}

// OrderIDs lists the orders serviced at this stop.
func (s *Stop) OrderIDs() []int64 {
	ids := make([]int64, 0, len(s.Orders))
	for id := range s.Orders {
		ids = append(ids, id)
	}
	return ids
}

// NewPrepositionStop creates a relocation-only stop.
func NewPrepositionStop(location shared.Location, position int) *Stop {
	return &Stop{
		Location: location,
		Position: position,
		Kind:     StopPreposition,
	}
}
