package courier

import (
	"context"

	"github.com/andrescamacho/deliverysim-go/internal/domain/routing"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
	"github.com/andrescamacho/deliverysim-go/internal/sim"
)

// MovementPolicy drives a courier from its location to a destination,
// yielding a timeout per polyline leg and updating the location on arrival
// at each leg's end.
type MovementPolicy interface {
	Move(p *sim.Process, c *Courier, destination shared.Location) error
}

// OSRMMovementPolicy follows the routing engine's polyline at the vehicle's
// average velocity.
type OSRMMovementPolicy struct {
	client routing.Client
}

// NewOSRMMovementPolicy creates the constant-speed movement policy.
func NewOSRMMovementPolicy(client routing.Client) *OSRMMovementPolicy {
	return &OSRMMovementPolicy{client: client}
}

func (m *OSRMMovementPolicy) Move(p *sim.Process, c *Courier, destination shared.Location) error {
	return travelPolyline(p, c, destination, m.client, nil)
}

// speedCoefficients scales vehicle velocity by hour of day, capturing rush
// hours and the empty streets of late evening.
var speedCoefficients = [24]float64{
	1, 1, 1, 1, 1, 1, 1, 1, 1,
	1.13, 1.04, 1.0, 0.91, 0.90, 0.93, 0.95, 1.02, 1.0,
	0.91, 0.87, 0.88, 0.99, 1.23, 1.23,
}

// OSRMDynamicMovementPolicy is the OSRM policy with the time-of-day speed
// coefficient applied per leg.
type OSRMDynamicMovementPolicy struct {
	client routing.Client
}

// NewOSRMDynamicMovementPolicy creates the time-of-day-aware movement policy.
func NewOSRMDynamicMovementPolicy(client routing.Client) *OSRMDynamicMovementPolicy {
	return &OSRMDynamicMovementPolicy{client: client}
}

func (m *OSRMDynamicMovementPolicy) Move(p *sim.Process, c *Courier, destination shared.Location) error {
	return travelPolyline(p, c, destination, m.client, func(hour int) float64 {
		return speedCoefficients[hour]
	})
}

// travelPolyline walks the polyline leg by leg. Each leg takes
// floor(distance / effective velocity) simulated seconds; the courier's
// location advances at the end of each leg so an interruption leaves it at
// the last point reached.
func travelPolyline(
	p *sim.Process,
	c *Courier,
	destination shared.Location,
	client routing.Client,
	coefficient func(hour int) float64,
) error {
	polyline, err := client.GetRoute(context.Background(), c.Location(), destination)
	if err != nil || polyline == nil || len(polyline.Points) < 2 {
		polyline = routing.DirectPolyline(c.Location(), destination)
	}

	for i := 0; i+1 < len(polyline.Points); i++ {
		from, to := polyline.Points[i], polyline.Points[i+1]

		velocity := c.Vehicle().AverageVelocity()
		if coefficient != nil {
			velocity *= coefficient(shared.HourOf(p.Env().Now()))
		}
		legTime := int64(from.DistanceTo(to) / velocity)

		if err := p.Timeout(legTime); err != nil {
			return err
		}
		c.SetLocation(to)
	}
	return nil
}
