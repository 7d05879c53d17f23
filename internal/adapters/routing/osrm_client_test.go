package routing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

const osrmRouteBody = `{
	"code": "Ok",
	"routes": [{
		"legs": [{
			"steps": [
				{"maneuver": {"location": [13.400, 52.520]}},
				{"maneuver": {"location": [13.405, 52.523]}},
				{"maneuver": {"location": [13.410, 52.527]}}
			]
		}]
	}]
}`

func TestGetRouteParsesStepManeuvers(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path + "?" + r.URL.RawQuery
		fmt.Fprint(w, osrmRouteBody)
	}))
	defer server.Close()

	client := NewOSRMClientWithConfig(server.URL, 100, 0, time.Millisecond, &shared.MockClock{}, testLogger())

	origin := shared.Location{Lat: 52.520, Lng: 13.400}
	destination := shared.Location{Lat: 52.527, Lng: 13.410}
	polyline, err := client.GetRoute(context.Background(), origin, destination)
	require.NoError(t, err)

	assert.Equal(t, "/route/v1/driving/13.400000,52.520000;13.410000,52.527000?alternatives=false&steps=true", requestedPath)
	require.Len(t, polyline.Points, 3)
	assert.Equal(t, shared.Location{Lat: 52.520, Lng: 13.400}, polyline.Points[0])
	assert.Equal(t, shared.Location{Lat: 52.527, Lng: 13.410}, polyline.Points[2])
	assert.Equal(t, 2, polyline.Legs())
}

func TestGetRouteFallsBackOnNoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"code": "NoRoute", "routes": []}`)
	}))
	defer server.Close()

	client := NewOSRMClientWithConfig(server.URL, 100, 0, time.Millisecond, &shared.MockClock{}, testLogger())

	origin := shared.Location{Lat: 52.520, Lng: 13.400}
	destination := shared.Location{Lat: 52.527, Lng: 13.410}
	polyline, err := client.GetRoute(context.Background(), origin, destination)
	require.NoError(t, err)

	assert.Equal(t, []shared.Location{origin, destination}, polyline.Points)
}

func TestGetRouteRetriesServerErrorsThenFallsBack(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOSRMClientWithConfig(server.URL, 100, 2, time.Millisecond, &shared.MockClock{}, testLogger())

	origin := shared.Location{Lat: 52.520, Lng: 13.400}
	destination := shared.Location{Lat: 52.527, Lng: 13.410}
	polyline, err := client.GetRoute(context.Background(), origin, destination)
	require.NoError(t, err)

	assert.Equal(t, 3, hits)
	assert.Equal(t, []shared.Location{origin, destination}, polyline.Points)
}

func TestGetRouteDoesNotRetryClientErrors(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewOSRMClientWithConfig(server.URL, 100, 3, time.Millisecond, &shared.MockClock{}, testLogger())

	polyline, err := client.GetRoute(
		context.Background(),
		shared.Location{Lat: 52.520, Lng: 13.400},
		shared.Location{Lat: 52.527, Lng: 13.410},
	)
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, len(polyline.Points))
}

func TestEstimateRoutePropertiesUsesHaversine(t *testing.T) {
	client := NewMockClient()

	origin := shared.Location{Lat: 52.520, Lng: 13.400}
	pickUp := shared.Location{Lat: 52.524, Lng: 13.405}
	dropOff := shared.Location{Lat: 52.527, Lng: 13.410}

	distance, seconds, err := client.EstimateRouteProperties(
		context.Background(), origin, []shared.Location{pickUp, dropOff}, shared.VehicleCar,
	)
	require.NoError(t, err)

	wantDistance := origin.DistanceTo(pickUp) + pickUp.DistanceTo(dropOff)
	wantSeconds := int64(origin.DistanceTo(pickUp)/8.5) + int64(pickUp.DistanceTo(dropOff)/8.5)
	assert.InDelta(t, wantDistance, distance, 0.01)
	assert.Equal(t, wantSeconds, seconds)
}

func TestCachedClientServesRepeatLookupsFromCache(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		fmt.Fprint(w, osrmRouteBody)
	}))
	defer server.Close()

	inner := NewOSRMClientWithConfig(server.URL, 100, 0, time.Millisecond, &shared.MockClock{}, testLogger())
	cached, err := NewCachedClient(inner, 1000)
	require.NoError(t, err)
	defer cached.Close()

	origin := shared.Location{Lat: 52.520, Lng: 13.400}
	destination := shared.Location{Lat: 52.527, Lng: 13.410}

	first, err := cached.GetRoute(context.Background(), origin, destination)
	require.NoError(t, err)

	// Ristretto admits writes asynchronously.
	cached.cache.Wait()

	second, err := cached.GetRoute(context.Background(), origin, destination)
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Equal(t, first.Points, second.Points)
}
