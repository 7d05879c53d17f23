package delivery

import (
	"errors"
	"fmt"

	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// ErrUnpairedPickUp reports a route whose pick-up orders lack a later
// drop-off stop.
var ErrUnpairedPickUp = errors.New("pick-up order has no later drop-off stop in route")

// Route is the ordered plan of stops a courier executes, together with the
// orders the plan services. The route owns the order references; stops share
// them.
type Route struct {
	Stops  []*Stop
	Orders map[int64]*Order
}

// NewRoute validates stop pairing and builds the route: every order picked up
// must be dropped off at a strictly later stop of the same route.
func NewRoute(stops []*Stop, orders map[int64]*Order) (*Route, error) {
	for i, stop := range stops {
		if stop.Kind != StopPickUp {
			continue
		}
		for id := range stop.Orders {
			if !droppedOffAfter(stops, i, id) {
				return nil, fmt.Errorf("order %d: %w", id, ErrUnpairedPickUp)
			}
		}
	}
	if orders == nil {
		orders = make(map[int64]*Order)
	}
	return &Route{Stops: stops, Orders: orders}, nil
}

// NewSingleOrderRoute builds the canonical two-stop plan for one order.
func NewSingleOrderRoute(o *Order) *Route {
	orders := map[int64]*Order{o.ID(): o}
	return &Route{
		Orders: orders,
		Stops: []*Stop{
			NewStop(o.PickUpAt(), 0, StopPickUp, orders),
			NewStop(o.DropOffAt(), 1, StopDropOff, orders),
		},
	}
}

// NewPrepositionRoute builds a single relocation stop toward destination.
func NewPrepositionRoute(destination shared.Location) *Route {
	return &Route{
		Orders: make(map[int64]*Order),
		Stops:  []*Stop{NewPrepositionStop(destination, 0)},
	}
}

func droppedOffAfter(stops []*Stop, from int, orderID int64) bool {
	for _, later := range stops[from+1:] {
		if later.Kind == StopDropOff {
			if _, ok := later.Orders[orderID]; ok {
				return true
			}
		}
	}
	return false
}

// NextUnvisitedStop returns the first stop not yet visited, or nil when the
// route is done.
func (r *Route) NextUnvisitedStop() *Stop {
	for _, stop := range r.Stops {
		if !stop.Visited {
			return stop
		}
	}
	return nil
}

// Extend appends the other route's stops and orders, re-indexing positions.
func (r *Route) Extend(other *Route) {
	base := len(r.Stops)
	for i, stop := range other.Stops {
		stop.Position = base + i
		r.Stops = append(r.Stops, stop)
	}
	for id, o := range other.Orders {
		r.Orders[id] = o
	}
}

// RemoveOrder drops the order from the route. Unvisited stops left with no
// orders are deleted, so cancelling the only order empties the route.
func (r *Route) RemoveOrder(id int64) {
	delete(r.Orders, id)

	kept := r.Stops[:0]
	for _, stop := range r.Stops {
		delete(stop.Orders, id)
		if !stop.Visited && stop.Kind != StopPreposition && len(stop.Orders) == 0 {
			continue
		}
		kept = append(kept, stop)
	}
	r.Stops = kept
	for i, stop := range r.Stops {
		stop.Position = i
	}
}

// ContainsOrder reports whether the route still services the order.
func (r *Route) ContainsOrder(id int64) bool {
	_, ok := r.Orders[id]
	return ok
}

// Empty reports whether no unvisited stop remains.
func (r *Route) Empty() bool {
	return r.NextUnvisitedStop() == nil
}

// OrderIDs lists the serviced orders in unspecified order.
func (r *Route) OrderIDs() []int64 {
	ids := make([]int64, 0, len(r.Orders))
	for id := range r.Orders {
		ids = append(ids, id)
	}
	return ids
}
