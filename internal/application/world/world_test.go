package world_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/deliverysim-go/internal/adapters/routing"
	"github.com/andrescamacho/deliverysim-go/internal/application/world"
	"github.com/andrescamacho/deliverysim-go/internal/domain/courier"
	"github.com/andrescamacho/deliverysim-go/internal/infrastructure/config"
	"github.com/andrescamacho/deliverysim-go/test/helpers"
)

const testInstanceID = 7

func seededRepos(t *testing.T) (*persistence.GormInstanceRepository, *persistence.GormResultsRepository) {
	t.Helper()

	db := helpers.NewTestDB(t)
	instances := persistence.NewGormInstanceRepository(db, helpers.QuietLogger())
	results := persistence.NewGormResultsRepository(db)

	orders, couriers := helpers.LunchInstance(testInstanceID)
	require.NoError(t, instances.SeedOrders(context.Background(), orders))
	require.NoError(t, instances.SeedCouriers(context.Background(), couriers))
	return instances, results
}

// runConfig covers the lunch instance: couriers log on at 11:58 and 11:59,
// orders arrive from 12:00.
func runConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Simulation.SimulateFrom = "11:55:00"
	cfg.Simulation.SimulateUntil = "13:00:00"
	cfg.Simulation.WarmUpTime = 1
	cfg.Simulation.Seed = 42
	cfg.Courier.MinAcceptanceRate = 1
	cfg.Courier.MaxAcceptanceRate = 1
	cfg.Dispatcher.IntegrityChecks = true
	config.SetDefaults(cfg)
	return cfg
}

func TestRunDeliversSeededInstance(t *testing.T) {
	instances, results := seededRepos(t)
	cfg := runConfig()

	w, err := world.New(context.Background(), world.Params{
		Config:     cfg,
		InstanceID: testInstanceID,
		Instances:  instances,
		Results:    results,
		Routing:    routing.NewMockClient(),
		Logger:     helpers.QuietLogger(),
	})
	require.NoError(t, err)

	report, err := w.Run()
	require.NoError(t, err)

	assert.Equal(t, 3, report.OrdersPlaced)
	assert.Equal(t, 3, report.OrdersFulfilled)
	assert.Equal(t, 0, report.OrdersCanceled)
	assert.Equal(t, 0, report.OrdersLost)
	assert.Greater(t, report.AvgClickToDoor, 0.0)
	assert.Len(t, report.CourierMetrics, 2)

	for _, c := range w.Couriers() {
		assert.Equal(t, courier.ConditionLoggedOff, c.Condition())
	}

	// The run landed in the results store
	run, courierMetrics, err := results.GetRun(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, 3, run.OrdersFulfilled)
	assert.Equal(t, testInstanceID, run.InstanceID)
	assert.Len(t, courierMetrics, 2)
}

func TestRunsWithSameSeedAreIdentical(t *testing.T) {
	runOnce := func() (*world.RunReport, map[int64][3]int64) {
		instances, _ := seededRepos(t)

		w, err := world.New(context.Background(), world.Params{
			Config:     runConfig(),
			InstanceID: testInstanceID,
			Instances:  instances,
			Routing:    routing.NewMockClient(),
			Logger:     helpers.QuietLogger(),
		})
		require.NoError(t, err)

		report, err := w.Run()
		require.NoError(t, err)

		timeline := make(map[int64][3]int64)
		for id, o := range w.Dispatcher().FulfilledOrders() {
			timeline[id] = [3]int64{o.AcceptanceTime(), o.PickUpTime(), o.DropOffTime()}
		}

		// Scrub the per-run identity and wall-clock fields.
		report.RunID = ""
		report.StartedAt = time.Time{}
		report.FinishedAt = time.Time{}
		return report, timeline
	}

	firstReport, firstTimeline := runOnce()
	secondReport, secondTimeline := runOnce()

	assert.Equal(t, firstReport, secondReport)
	assert.Equal(t, firstTimeline, secondTimeline)
}

func TestRunMarksRadiusRejectedOrdersLost(t *testing.T) {
	instances, _ := seededRepos(t)

	cfg := runConfig()
	// No couriers ever log on, so the first admitted order congests the
	// radius signal and later orders are rejected at admission.
	cfg.Simulation.CreateCouriersFrom = "11:55:00"
	cfg.Simulation.CreateCouriersUntil = "11:55:00"
	cfg.Policy.DemandManagement = "radius"
	cfg.Policy.UserCancellation = "never"
	cfg.Dispatcher.DensityThreshold = 0.5
	cfg.Dispatcher.LimitRadius = 100
	cfg.Dispatcher.SubstitutionProbability = 0

	w, err := world.New(context.Background(), world.Params{
		Config:     cfg,
		InstanceID: testInstanceID,
		Instances:  instances,
		Routing:    routing.NewMockClient(),
		Logger:     helpers.QuietLogger(),
	})
	require.NoError(t, err)

	report, err := w.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, report.OrdersPlaced)
	assert.Equal(t, 2, report.OrdersLost)
	assert.Equal(t, 0, report.OrdersFulfilled)
	assert.Empty(t, w.Couriers())
	assert.Equal(t, 1, w.Dispatcher().Counts().Unassigned)
	assert.Len(t, w.LostOrders(), 2)
}

func TestRunSubmitsSubstitutedOrderWithoutSecondScreening(t *testing.T) {
	instances, _ := seededRepos(t)

	cfg := runConfig()
	cfg.Simulation.CreateCouriersFrom = "11:55:00"
	cfg.Simulation.CreateCouriersUntil = "11:55:00"
	cfg.Policy.DemandManagement = "radius"
	cfg.Policy.UserCancellation = "never"
	cfg.Dispatcher.DensityThreshold = 0.5
	cfg.Dispatcher.LimitRadius = 100
	cfg.Dispatcher.SubstitutionProbability = 1

	w, err := world.New(context.Background(), world.Params{
		Config:     cfg,
		InstanceID: testInstanceID,
		Instances:  instances,
		Routing:    routing.NewMockClient(),
		Logger:     helpers.QuietLogger(),
	})
	require.NoError(t, err)

	report, err := w.Run()
	require.NoError(t, err)

	// Order 3's alternate pick-up is also far outside the 100m radius, but a
	// substituted order goes straight to the dispatcher: only order 2, which
	// carries no alternate, is lost.
	assert.Equal(t, 2, report.OrdersPlaced)
	assert.Equal(t, 1, report.OrdersLost)
	assert.Equal(t, 2, w.Dispatcher().Counts().Unassigned)
	assert.Len(t, w.LostOrders(), 1)
}

func TestNewRejectsUnknownPolicyName(t *testing.T) {
	instances, _ := seededRepos(t)

	cfg := runConfig()
	cfg.Policy.Matching = "psychic"

	_, err := world.New(context.Background(), world.Params{
		Config:     cfg,
		InstanceID: testInstanceID,
		Instances:  instances,
		Routing:    routing.NewMockClient(),
		Logger:     helpers.QuietLogger(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown matching policy")
}
