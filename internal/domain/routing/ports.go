// Package routing defines the port to the external routing engine. Movement
// policies ask it for street polylines; matching policies ask it for travel
// estimates.
package routing

import (
	"context"

	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// Client defines the routing-engine operations the simulation consumes.
// Implementations must degrade to a direct two-point polyline on transport
// failure, never an error the movement loop would have to handle.
type Client interface {
	// GetRoute returns the street polyline from origin to destination.
	GetRoute(ctx context.Context, origin, destination shared.Location) (*Polyline, error)

	// EstimateRouteProperties estimates the total distance in meters and the
	// travel time in whole simulated seconds to visit points in order
	// starting from origin. A leg that cannot be estimated contributes zero.
	EstimateRouteProperties(ctx context.Context, origin shared.Location, points []shared.Location, vehicle shared.Vehicle) (float64, int64, error)
}

// Polyline is an ordered sequence of geographic points.
type Polyline struct {
	Points []shared.Location
}

// DirectPolyline is the two-point fallback between origin and destination.
func DirectPolyline(origin, destination shared.Location) *Polyline {
	return &Polyline{Points: []shared.Location{origin, destination}}
}

// Legs returns the number of travel legs in the polyline.
func (p *Polyline) Legs() int {
	if len(p.Points) < 2 {
		return 0
	}
	return len(p.Points) - 1
}
