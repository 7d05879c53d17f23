package dispatch

import (
	"context"
	"time"

	"github.com/andrescamacho/deliverysim-go/internal/domain/courier"
	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/routing"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// MatchingPolicy pairs buffered orders with available couriers. The couriers
// passed in are idle, route-less, and not already holding an offer; orders
// and couriers arrive in deterministic (id) order.
type MatchingPolicy interface {
	Match(ctx context.Context, orders []*delivery.Order, couriers []*courier.Courier, now int64) ([]*delivery.Notification, MatchingMetric, error)
}

type prospect struct {
	orderIx   int
	courierIx int
	time      int64
}

// GreedyMatchingPolicy is the reference matcher: for each order in turn it
// offers to the unnotified courier with the smallest estimated total time,
// ties broken by first occurrence.
type GreedyMatchingPolicy struct {
	client      routing.Client
	maxDistance float64
}

// NewGreedyMatchingPolicy creates the greedy matcher. Couriers farther than
// maxDistance meters from an order's pick-up are not considered.
func NewGreedyMatchingPolicy(client routing.Client, maxDistance float64) *GreedyMatchingPolicy {
	return &GreedyMatchingPolicy{client: client, maxDistance: maxDistance}
}

func (g *GreedyMatchingPolicy) Match(
	ctx context.Context,
	orders []*delivery.Order,
	couriers []*courier.Courier,
	now int64,
) ([]*delivery.Notification, MatchingMetric, error) {
	matchingStart := time.Now()

	var routingTime float64
	prospects := make([]prospect, 0, len(orders)*len(couriers))
	for orderIx, o := range orders {
		for courierIx, c := range couriers {
			if c.Location().DistanceTo(o.PickUpAt()) > g.maxDistance {
				continue
			}

			routingStart := time.Now()
			_, estimated, err := g.client.EstimateRouteProperties(
				ctx, c.Location(), []shared.Location{o.PickUpAt(), o.DropOffAt()}, c.Vehicle(),
			)
			routingTime += time.Since(routingStart).Seconds()
			if err != nil {
				continue
			}
			estimated += o.PickUpServiceTime() + o.DropOffServiceTime()
			prospects = append(prospects, prospect{orderIx: orderIx, courierIx: courierIx, time: estimated})
		}
	}

	notifications := pickGreedy(orders, couriers, prospects)

	metric := MatchingMetric{
		Couriers:     len(couriers),
		Orders:       len(orders),
		Prospects:    len(prospects),
		Routes:       len(orders),
		Matches:      len(notifications),
		RoutingTime:  routingTime,
		MatchingTime: time.Since(matchingStart).Seconds(),
	}
	return notifications, metric, nil
}

// NearestMatchingPolicy estimates by straight-line distance only, trading
// routing quality for zero routing-engine calls.
type NearestMatchingPolicy struct {
	maxDistance float64
}

// NewNearestMatchingPolicy creates the haversine-only matcher.
func NewNearestMatchingPolicy(maxDistance float64) *NearestMatchingPolicy {
	return &NearestMatchingPolicy{maxDistance: maxDistance}
}

func (n *NearestMatchingPolicy) Match(
	_ context.Context,
	orders []*delivery.Order,
	couriers []*courier.Courier,
	now int64,
) ([]*delivery.Notification, MatchingMetric, error) {
	matchingStart := time.Now()

	prospects := make([]prospect, 0, len(orders)*len(couriers))
	for orderIx, o := range orders {
		for courierIx, c := range couriers {
			toPickUp := c.Location().DistanceTo(o.PickUpAt())
			if toPickUp > n.maxDistance {
				continue
			}
			total := toPickUp + o.PickUpAt().DistanceTo(o.DropOffAt())
			estimated := int64(total/c.Vehicle().AverageVelocity()) +
				o.PickUpServiceTime() + o.DropOffServiceTime()
			prospects = append(prospects, prospect{orderIx: orderIx, courierIx: courierIx, time: estimated})
		}
	}

	notifications := pickGreedy(orders, couriers, prospects)

	metric := MatchingMetric{
		Couriers:     len(couriers),
		Orders:       len(orders),
		Prospects:    len(prospects),
		Routes:       len(orders),
		Matches:      len(notifications),
		MatchingTime: time.Since(matchingStart).Seconds(),
	}
	return notifications, metric, nil
}

// pickGreedy assigns, per order in enumeration order, the fastest courier
// not already claimed within this batch, and emits the canonical
// pick-up/drop-off offer.
func pickGreedy(orders []*delivery.Order, couriers []*courier.Courier, prospects []prospect) []*delivery.Notification {
	var notifications []*delivery.Notification
	claimed := make(map[int]bool, len(couriers))

	for orderIx, o := range orders {
		best := -1
		var bestTime int64
		for _, pr := range prospects {
			if pr.orderIx != orderIx || claimed[pr.courierIx] {
				continue
			}
			if best == -1 || pr.time < bestTime {
				best = pr.courierIx
				bestTime = pr.time
			}
		}
		if best == -1 {
			continue
		}

		claimed[best] = true
		notifications = append(notifications, delivery.NewRouteNotification(
			couriers[best].ID(), delivery.NewSingleOrderRoute(o),
		))
	}
	return notifications
}
