// Package routing provides the routing-engine adapters: the OSRM HTTP
// client, an in-process polyline cache in front of it, and a straight-line
// mock for tests and offline runs.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/metrics"
	domainrouting "github.com/andrescamacho/deliverysim-go/internal/domain/routing"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = 500 * time.Millisecond
)

// OSRMClient talks to an OSRM routing engine over HTTP.
// Rate limit and retry protect a shared engine from the matching loop's
// bursts; any unrecoverable failure degrades to the direct polyline, never
// an error, per the port contract.
type OSRMClient struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	maxRetries  int
	backoffBase time.Duration
	clock       shared.Clock
	log         logrus.FieldLogger
}

// NewOSRMClient creates an OSRM client with default retry settings.
// Rate limit: requestsPerSecond with a burst of the same size.
func NewOSRMClient(baseURL string, requestsPerSecond float64, logger logrus.FieldLogger) *OSRMClient {
	return NewOSRMClientWithConfig(baseURL, requestsPerSecond, defaultMaxRetries, defaultBackoffBase, nil, logger)
}

// NewOSRMClientWithConfig creates an OSRM client with custom retry settings.
// If clock is nil, uses RealClock for production.
func NewOSRMClientWithConfig(
	baseURL string,
	requestsPerSecond float64,
	maxRetries int,
	backoffBase time.Duration,
	clock shared.Clock,
	logger logrus.FieldLogger,
) *OSRMClient {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &OSRMClient{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		baseURL:     baseURL,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		clock:       clock,
		log:         logger.WithField("adapter", "osrm"),
	}
}

// GetRoute returns the street polyline between origin and destination,
// built from the maneuver location of every step of the fastest route.
func (c *OSRMClient) GetRoute(ctx context.Context, origin, destination shared.Location) (*domainrouting.Polyline, error) {
	url := fmt.Sprintf(
		"%s/route/v1/driving/%s,%s;%s,%s?alternatives=false&steps=true",
		c.baseURL,
		formatCoordinate(origin.Lng), formatCoordinate(origin.Lat),
		formatCoordinate(destination.Lng), formatCoordinate(destination.Lat),
	)

	var response struct {
		Code   string `json:"code"`
		Routes []struct {
			Legs []struct {
				Steps []struct {
					Maneuver struct {
						Location [2]float64 `json:"location"`
					} `json:"maneuver"`
				} `json:"steps"`
			} `json:"legs"`
		} `json:"routes"`
	}

	if err := c.request(ctx, url, &response); err != nil {
		c.log.WithField("error", err.Error()).Warn("routing request failed, using direct polyline")
		metrics.RecordRoutingFallback()
		return domainrouting.DirectPolyline(origin, destination), nil
	}

	if response.Code != "Ok" || len(response.Routes) == 0 {
		metrics.RecordRoutingFallback()
		return domainrouting.DirectPolyline(origin, destination), nil
	}

	var points []shared.Location
	for _, leg := range response.Routes[0].Legs {
		for _, step := range leg.Steps {
			// OSRM emits [lng, lat] pairs.
			points = append(points, shared.Location{
				Lat: step.Maneuver.Location[1],
				Lng: step.Maneuver.Location[0],
			})
		}
	}
	if len(points) < 2 {
		metrics.RecordRoutingFallback()
		return domainrouting.DirectPolyline(origin, destination), nil
	}
	return &domainrouting.Polyline{Points: points}, nil
}

// EstimateRouteProperties estimates distance and travel time over the given
// visit sequence with the haversine distance at the vehicle's average
// velocity. Matching calls this once per order-courier pair, so it stays off
// the network.
func (c *OSRMClient) EstimateRouteProperties(
	_ context.Context, origin shared.Location, points []shared.Location, vehicle shared.Vehicle,
) (float64, int64, error) {
	return estimateByHaversine(origin, points, vehicle)
}

func (c *OSRMClient) request(ctx context.Context, url string, result any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordRoutingRequest("network_error", time.Since(start).Seconds())
			lastErr = fmt.Errorf("network error: %w", err)
			if attempt >= c.maxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			c.clock.Sleep(addJitter(c.backoffBase * time.Duration(1<<attempt)))
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			metrics.RecordRoutingRequest(strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			if resp.StatusCode >= 500 && attempt < c.maxRetries {
				c.clock.Sleep(addJitter(c.backoffBase * time.Duration(1<<attempt)))
				continue
			}
			break
		}

		metrics.RecordRoutingRequest("ok", time.Since(start).Seconds())
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	return lastErr
}

// addJitter adds up to 25% random jitter to a backoff delay.
func addJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func estimateByHaversine(origin shared.Location, points []shared.Location, vehicle shared.Vehicle) (float64, int64, error) {
	var distance float64
	var seconds int64

	current := origin
	for _, p := range points {
		leg := current.DistanceTo(p)
		distance += leg
		seconds += int64(leg / vehicle.AverageVelocity())
		current = p
	}
	return distance, seconds, nil
}
