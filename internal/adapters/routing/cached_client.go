package routing

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/metrics"
	domainrouting "github.com/andrescamacho/deliverysim-go/internal/domain/routing"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// CachedClient fronts another routing client with an in-process polyline
// cache. Demand concentrates on a small set of store locations, so repeated
// origin/destination pairs dominate a run.
type CachedClient struct {
	inner domainrouting.Client
	cache *ristretto.Cache[string, *domainrouting.Polyline]
}

// NewCachedClient wraps inner with a polyline cache holding up to maxRoutes
// entries.
func NewCachedClient(inner domainrouting.Client, maxRoutes int64) (*CachedClient, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *domainrouting.Polyline]{
		NumCounters: maxRoutes * 10,
		MaxCost:     maxRoutes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create route cache: %w", err)
	}
	return &CachedClient{inner: inner, cache: cache}, nil
}

// GetRoute serves the polyline from cache when the origin/destination pair
// was seen before, delegating to the inner client otherwise.
func (c *CachedClient) GetRoute(ctx context.Context, origin, destination shared.Location) (*domainrouting.Polyline, error) {
	key := routeKey(origin, destination)
	if polyline, ok := c.cache.Get(key); ok {
		metrics.RecordRoutingCacheHit()
		return polyline, nil
	}
	metrics.RecordRoutingCacheMiss()

	polyline, err := c.inner.GetRoute(ctx, origin, destination)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, polyline, 1)
	return polyline, nil
}

// EstimateRouteProperties delegates to the inner client; estimates are pure
// math and need no caching.
func (c *CachedClient) EstimateRouteProperties(
	ctx context.Context, origin shared.Location, points []shared.Location, vehicle shared.Vehicle,
) (float64, int64, error) {
	return c.inner.EstimateRouteProperties(ctx, origin, points, vehicle)
}

// Close releases the cache's background resources.
func (c *CachedClient) Close() {
	c.cache.Close()
}

func routeKey(origin, destination shared.Location) string {
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}
