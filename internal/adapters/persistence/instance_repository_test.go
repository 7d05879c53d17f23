package persistence_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/deliverysim-go/internal/domain/courier"
	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
	"github.com/andrescamacho/deliverysim-go/test/helpers"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestOrdersPlacedAt(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormInstanceRepository(db, testLogger())
	ctx := context.Background()

	require.NoError(t, repo.SeedOrders(ctx, []persistence.OrderInstanceModel{
		{
			InstanceID: 1, OrderID: 10,
			PickUpLat: 52.52, PickUpLng: 13.40, DropOffLat: 52.53, DropOffLng: 13.41,
			PickUpLat2: 52.521, PickUpLng2: 13.402,
			PlacementTime: 43200, ReadyTime: 43800, PickUpServiceTime: 120, DropOffServiceTime: 60,
		},
		{
			InstanceID: 1, OrderID: 11,
			PickUpLat: 52.54, PickUpLng: 13.42, DropOffLat: 52.55, DropOffLng: 13.43,
			PlacementTime: 43260,
		},
		{
			InstanceID: 2, OrderID: 12,
			PickUpLat: 52.52, PickUpLng: 13.40, DropOffLat: 52.53, DropOffLng: 13.41,
			PlacementTime: 43200,
		},
	}))

	orders := repo.OrdersPlacedAt(ctx, 1, 43200)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, int64(10), o.Params.ID)
	assert.Equal(t, shared.Location{Lat: 52.52, Lng: 13.40}, o.Params.PickUpAt)
	assert.Equal(t, int64(43800), o.Params.ReadyTime)
	assert.True(t, o.HasAlternatePickUp())
	assert.Equal(t, shared.Location{Lat: 52.521, Lng: 13.402}, o.AlternatePickUpAt)

	assert.Empty(t, repo.OrdersPlacedAt(ctx, 1, 99999))

	second := repo.OrdersPlacedAt(ctx, 1, 43260)
	require.Len(t, second, 1)
	assert.False(t, second[0].HasAlternatePickUp())
}

func TestCouriersLoggingOnAtSkipsUnknownVehicles(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormInstanceRepository(db, testLogger())
	ctx := context.Background()

	require.NoError(t, repo.SeedCouriers(ctx, []persistence.CourierInstanceModel{
		{InstanceID: 1, CourierID: 1, Vehicle: "bicycle", OnLat: 52.52, OnLng: 13.40, OnTime: 39600, OffTime: 54000},
		{InstanceID: 1, CourierID: 2, Vehicle: "hovercraft", OnLat: 52.52, OnLng: 13.40, OnTime: 39600, OffTime: 54000},
	}))

	couriers := repo.CouriersLoggingOnAt(ctx, 1, 39600)
	require.Len(t, couriers, 1)
	assert.Equal(t, int64(1), couriers[0].CourierID)
	assert.Equal(t, shared.VehicleBicycle, couriers[0].Vehicle)
	assert.Equal(t, int64(54000), couriers[0].OffTime)
}

func TestInstancesListsDistinctIDs(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormInstanceRepository(db, testLogger())
	ctx := context.Background()

	require.NoError(t, repo.SeedOrders(ctx, []persistence.OrderInstanceModel{
		{InstanceID: 3, OrderID: 1, PlacementTime: 100},
		{InstanceID: 1, OrderID: 2, PlacementTime: 100},
		{InstanceID: 3, OrderID: 3, PlacementTime: 200},
	}))

	ids, err := repo.Instances(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)
}

func TestSaveRunPersistsMetricsTransactionally(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormResultsRepository(db)
	ctx := context.Background()

	fulfilled := delivery.NewOrder(delivery.OrderParams{ID: 10, PlacementTime: 43200})
	require.NoError(t, fulfilled.Schedule(43260, 1))
	require.NoError(t, fulfilled.EnterStore(43500))
	require.NoError(t, fulfilled.PickUp(43620))
	require.NoError(t, fulfilled.DropOff(44100))

	canceled := delivery.NewOrder(delivery.OrderParams{ID: 11, PlacementTime: 43260})
	require.NoError(t, canceled.Cancel(43500))

	record := persistence.RunRecord{
		RunID:         "8c1a2f34-0000-0000-0000-000000000001",
		InstanceID:    1,
		StartedAt:     time.Now().Add(-time.Minute),
		FinishedAt:    time.Now(),
		SimulateFrom:  36000,
		SimulateUntil: 72000,
		Seed:          42,
		ConfigJSON:    `{"matching":"greedy"}`,

		OrdersPlaced:    2,
		OrdersFulfilled: 1,
		OrdersCanceled:  1,

		CourierMetrics: []courier.Metrics{{
			CourierID:       1,
			OnTime:          39600,
			OffTime:         54000,
			FulfilledOrders: 1,
			Earnings:        decimal.NewFromInt(7),
			Utilization:     0.4,
		}},
		Orders: []*delivery.Order{fulfilled, canceled},
	}

	require.NoError(t, repo.SaveRun(ctx, record))

	runs, err := repo.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, record.RunID, runs[0].RunID)
	assert.Equal(t, 1, runs[0].OrdersFulfilled)
	assert.Equal(t, 1, runs[0].Couriers)

	run, courierMetrics, err := repo.GetRun(ctx, record.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.InstanceID)
	require.Len(t, courierMetrics, 1)
	assert.Equal(t, "7.00", courierMetrics[0].Earnings)

	var orderMetrics []persistence.OrderMetricModel
	require.NoError(t, db.Where("run_id = ?", record.RunID).Order("order_id").Find(&orderMetrics).Error)
	require.Len(t, orderMetrics, 2)
	assert.Equal(t, "dropped_off", orderMetrics[0].Status)
	assert.Equal(t, int64(900), orderMetrics[0].ClickToDoor)
	assert.Equal(t, "canceled", orderMetrics[1].Status)
	assert.Zero(t, orderMetrics[1].ClickToDoor)
}

func TestGetRunMissing(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormResultsRepository(db)

	_, _, err := repo.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}
