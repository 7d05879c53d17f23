package routing

import (
	"context"

	domainrouting "github.com/andrescamacho/deliverysim-go/internal/domain/routing"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// MockClient routes everything along the direct polyline. It serves offline
// runs (routing mode "mock") and tests that need deterministic travel times.
type MockClient struct{}

// NewMockClient creates a straight-line routing client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// GetRoute returns the two-point polyline between origin and destination.
func (*MockClient) GetRoute(_ context.Context, origin, destination shared.Location) (*domainrouting.Polyline, error) {
	return domainrouting.DirectPolyline(origin, destination), nil
}

// EstimateRouteProperties estimates over the haversine distance at the
// vehicle's average velocity.
func (*MockClient) EstimateRouteProperties(
	_ context.Context, origin shared.Location, points []shared.Location, vehicle shared.Vehicle,
) (float64, int64, error) {
	return estimateByHaversine(origin, points, vehicle)
}
