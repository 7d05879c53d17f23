package courier

import (
	"context"
	"io"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/routing"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
	"github.com/andrescamacho/deliverysim-go/internal/sim"
)

// straightLineClient routes along the direct polyline so travel times are
// predictable from the haversine distance.
type straightLineClient struct{}

func (straightLineClient) GetRoute(_ context.Context, origin, destination shared.Location) (*routing.Polyline, error) {
	return routing.DirectPolyline(origin, destination), nil
}

func (straightLineClient) EstimateRouteProperties(
	_ context.Context, origin shared.Location, points []shared.Location, vehicle shared.Vehicle,
) (float64, int64, error) {
	var distance float64
	current := origin
	for _, p := range points {
		distance += current.DistanceTo(p)
		current = p
	}
	return distance, int64(distance / vehicle.AverageVelocity()), nil
}

// recordingDispatcher captures every callback with its simulated timestamp.
type recordingDispatcher struct {
	env *sim.Environment

	idleAt      []int64
	movingAt    []int64
	pickingAt   []int64
	droppingAt  []int64
	loggedOffAt []int64

	inStoreAt    []int64
	pickedUpAt   []int64
	droppedOffAt []int64

	accepted []*delivery.Notification
	rejected []*delivery.Notification
}

func (d *recordingDispatcher) CourierIdle(*Courier)   { d.idleAt = append(d.idleAt, d.env.Now()) }
func (d *recordingDispatcher) CourierMoving(*Courier) { d.movingAt = append(d.movingAt, d.env.Now()) }
func (d *recordingDispatcher) CourierPickingUp(*Courier) {
	d.pickingAt = append(d.pickingAt, d.env.Now())
}
func (d *recordingDispatcher) CourierDroppingOff(*Courier) {
	d.droppingAt = append(d.droppingAt, d.env.Now())
}
func (d *recordingDispatcher) CourierLoggedOff(*Courier) {
	d.loggedOffAt = append(d.loggedOffAt, d.env.Now())
}
func (d *recordingDispatcher) OrdersInStore(map[int64]*delivery.Order) {
	d.inStoreAt = append(d.inStoreAt, d.env.Now())
}
func (d *recordingDispatcher) OrdersPickedUp(map[int64]*delivery.Order) {
	d.pickedUpAt = append(d.pickedUpAt, d.env.Now())
}
func (d *recordingDispatcher) OrdersDroppedOff(map[int64]*delivery.Order, *Courier) {
	d.droppedOffAt = append(d.droppedOffAt, d.env.Now())
}
func (d *recordingDispatcher) NotificationAccepted(n *delivery.Notification, _ *Courier) {
	d.accepted = append(d.accepted, n)
}
func (d *recordingDispatcher) NotificationRejected(n *delivery.Notification, _ *Courier) {
	d.rejected = append(d.rejected, n)
}

// scriptedAcceptancePolicy replays a fixed sequence of decisions.
type scriptedAcceptancePolicy struct {
	decisions []bool
	next      int
}

func (s *scriptedAcceptancePolicy) Decide(*sim.Process, *rand.Rand, float64) (bool, error) {
	decision := s.decisions[s.next]
	s.next++
	return decision, nil
}

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestCourier(env *sim.Environment, d Dispatcher, acceptance AcceptancePolicy, at shared.Location, offTime int64) *Courier {
	return New(Params{
		Env:                env,
		Dispatcher:         d,
		Acceptance:         acceptance,
		Movement:           NewOSRMMovementPolicy(straightLineClient{}),
		MovementEvaluation: NewStillMovementEvaluator(),
		ID:                 1,
		Vehicle:            shared.VehicleCar,
		Location:           at,
		OnTime:             env.Now(),
		OffTime:            offTime,
		AcceptanceRate:     1,
		WaitToMove:         60,
		EarningsPerOrder:   decimal.NewFromInt(7),
		RNG:                rand.New(rand.NewSource(1)),
		Logger:             testLogger(),
	})
}

func travelSeconds(from, to shared.Location) int64 {
	return int64(from.DistanceTo(to) / shared.VehicleCar.AverageVelocity())
}

func TestDeliveryTimeline(t *testing.T) {
	env := sim.NewEnvironment(0)
	d := &recordingDispatcher{env: env}

	start := shared.Location{Lat: 52.520, Lng: 13.400}
	pickUp := shared.Location{Lat: 52.524, Lng: 13.405}
	dropOff := shared.Location{Lat: 52.527, Lng: 13.410}

	c := newTestCourier(env, d, NewAbsoluteAcceptancePolicy(), start, 3600)
	o := delivery.NewOrder(delivery.OrderParams{
		ID: 10, PickUpAt: pickUp, DropOffAt: dropOff,
		PickUpServiceTime: 120, DropOffServiceTime: 60,
	})
	n := delivery.NewRouteNotification(c.ID(), delivery.NewSingleOrderRoute(o))

	env.ScheduleCall(10, sim.PriorityNormal, func() { c.Notify(n) })
	env.Run(4000)

	toPickUp := travelSeconds(start, pickUp)
	toDropOff := travelSeconds(pickUp, dropOff)
	inStore := 10 + toPickUp
	pickedUp := inStore + 120
	droppedOff := pickedUp + toDropOff + 60

	require.Len(t, d.accepted, 1)
	assert.Equal(t, []int64{inStore}, d.inStoreAt)
	assert.Equal(t, []int64{pickedUp}, d.pickedUpAt)
	assert.Equal(t, []int64{droppedOff}, d.droppedOffAt)

	// Utilization covers everything from acceptance to the final drop-off.
	assert.Equal(t, droppedOff-10, c.UtilizationTime())
	assert.Equal(t, dropOff, c.Location())

	// The shift ended at 3600 with the courier back to idling.
	assert.Equal(t, []int64{3600}, d.loggedOffAt)
	assert.Equal(t, ConditionLoggedOff, c.Condition())
}

func TestLogOffDeferredUntilRouteCompletes(t *testing.T) {
	env := sim.NewEnvironment(0)
	d := &recordingDispatcher{env: env}

	start := shared.Location{Lat: 52.520, Lng: 13.400}
	// Roughly five kilometers out, so the trip runs well past the shift end.
	pickUp := shared.Location{Lat: 52.565, Lng: 13.400}

	c := newTestCourier(env, d, NewAbsoluteAcceptancePolicy(), start, 300)
	o := delivery.NewOrder(delivery.OrderParams{
		ID: 10, PickUpAt: pickUp, DropOffAt: pickUp,
		PickUpServiceTime: 120, DropOffServiceTime: 60,
	})
	n := delivery.NewRouteNotification(c.ID(), delivery.NewSingleOrderRoute(o))

	env.ScheduleCall(10, sim.PriorityNormal, func() { c.Notify(n) })
	env.Run(7200)

	droppedOff := 10 + travelSeconds(start, pickUp) + 120 + 60
	assert.Greater(t, droppedOff, int64(300))

	require.Len(t, d.droppedOffAt, 1)
	assert.Equal(t, droppedOff, d.droppedOffAt[0])
	// Log-off fired mid-route at 300 and was deferred to route completion.
	assert.Equal(t, []int64{droppedOff}, d.loggedOffAt)
	assert.Equal(t, ConditionLoggedOff, c.Condition())
	assert.True(t, c.LogOffScheduled())
}

func TestOfferDecidedAfterLogOffIsRejected(t *testing.T) {
	env := sim.NewEnvironment(0)
	d := &recordingDispatcher{env: env}

	at := shared.Location{Lat: 52.520, Lng: 13.400}
	// The shift ends at 20, inside the 30-second acceptance delay.
	c := newTestCourier(env, d, NewUniformAcceptancePolicy(30, 30), at, 20)

	o := delivery.NewOrder(delivery.OrderParams{
		ID: 10, PickUpAt: at, DropOffAt: at,
		PickUpServiceTime: 120, DropOffServiceTime: 60,
	})
	n := delivery.NewRouteNotification(c.ID(), delivery.NewSingleOrderRoute(o))

	env.ScheduleCall(5, sim.PriorityNormal, func() { c.Notify(n) })
	env.Run(3600)

	// The courier was quiescent when the shift ended, so the log-off went
	// through at 20; the pending offer resolved at 35 against a logged-off
	// courier and must not start a route.
	assert.Equal(t, []int64{20}, d.loggedOffAt)
	assert.Empty(t, d.accepted)
	require.Len(t, d.rejected, 1)
	assert.Equal(t, []int64{10}, c.RejectedOrders())
	assert.Equal(t, ConditionLoggedOff, c.Condition())
	assert.Nil(t, c.ActiveRoute())
	assert.Equal(t, []int64{0}, d.idleAt)
}

func TestOfferDuringPickUpRestartsServiceWait(t *testing.T) {
	env := sim.NewEnvironment(0)
	d := &recordingDispatcher{env: env}

	at := shared.Location{Lat: 52.520, Lng: 13.400}
	c := newTestCourier(env, d, &scriptedAcceptancePolicy{decisions: []bool{true, false}}, at, 3600)

	first := delivery.NewOrder(delivery.OrderParams{
		ID: 10, PickUpAt: at, DropOffAt: at,
		PickUpServiceTime: 100, DropOffServiceTime: 60,
	})
	second := delivery.NewOrder(delivery.OrderParams{
		ID: 11, PickUpAt: at, DropOffAt: at,
		PickUpServiceTime: 100, DropOffServiceTime: 60,
	})

	env.ScheduleCall(5, sim.PriorityNormal, func() {
		c.Notify(delivery.NewRouteNotification(c.ID(), delivery.NewSingleOrderRoute(first)))
	})
	env.ScheduleCall(50, sim.PriorityNormal, func() {
		c.Notify(delivery.NewRouteNotification(c.ID(), delivery.NewSingleOrderRoute(second)))
	})
	env.Run(3600)

	// The pick-up started at 5 and again at 50 after the rejected offer
	// interrupted it; the full service wait restarted.
	assert.Equal(t, []int64{5, 50}, d.inStoreAt)
	assert.Equal(t, []int64{150}, d.pickedUpAt)
	assert.Equal(t, []int64{210}, d.droppedOffAt)

	require.Len(t, d.rejected, 1)
	assert.Equal(t, []int64{11}, c.RejectedOrders())
}

func TestEarnings(t *testing.T) {
	cases := []struct {
		name           string
		fulfilled      int
		perOrder       int64
		perHour        int64
		shiftSeconds   int64
		wantEarnings   string
		wantGuaranteed bool
	}{
		{"no deliveries means no pay", 0, 5, 10, 3600, "0.00", false},
		{"guarantee tops up a slow shift", 1, 5, 10, 3600, "10.00", true},
		{"delivery earnings beat the guarantee", 3, 5, 10, 3600, "15.00", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := sim.NewEnvironment(0)
			d := &recordingDispatcher{env: env}
			c := New(Params{
				Env:                env,
				Dispatcher:         d,
				Acceptance:         NewAbsoluteAcceptancePolicy(),
				Movement:           NewOSRMMovementPolicy(straightLineClient{}),
				MovementEvaluation: NewStillMovementEvaluator(),
				ID:                 1,
				Vehicle:            shared.VehicleCar,
				OnTime:             0,
				OffTime:            tc.shiftSeconds,
				AcceptanceRate:     1,
				WaitToMove:         60,
				EarningsPerOrder:   decimal.NewFromInt(tc.perOrder),
				EarningsPerHour:    decimal.NewFromInt(tc.perHour),
				RNG:                rand.New(rand.NewSource(1)),
				Logger:             testLogger(),
			})
			for i := 0; i < tc.fulfilled; i++ {
				c.RecordFulfilled(int64(100 + i))
			}

			c.LogOff()

			assert.Equal(t, tc.wantEarnings, c.Earnings().StringFixed(2))
			assert.Equal(t, tc.wantGuaranteed, c.GuaranteedCompensation())
		})
	}
}

func TestUniformAcceptanceWaitsBeforeDeciding(t *testing.T) {
	env := sim.NewEnvironment(0)
	policy := NewUniformAcceptancePolicy(30, 30)

	var decidedAt int64
	var accepted bool
	env.Process("decide", func(p *sim.Process) error {
		var err error
		accepted, err = policy.Decide(p, rand.New(rand.NewSource(1)), 1)
		decidedAt = env.Now()
		return err
	})
	env.Run(100)

	assert.Equal(t, int64(30), decidedAt)
	assert.True(t, accepted)
}

func TestAbsoluteAcceptanceFollowsRate(t *testing.T) {
	policy := NewAbsoluteAcceptancePolicy()
	rng := rand.New(rand.NewSource(1))

	always, err := policy.Decide(nil, rng, 1)
	require.NoError(t, err)
	assert.True(t, always)

	never, err := policy.Decide(nil, rng, 0)
	require.NoError(t, err)
	assert.False(t, never)
}

func TestStillEvaluatorStaysPut(t *testing.T) {
	evaluator := NewStillMovementEvaluator()
	assert.Nil(t, evaluator.NextDestination(rand.New(rand.NewSource(1)), shared.Location{Lat: 52.52, Lng: 13.40}))
}

func TestNeighborsEvaluatorWandersToAdjacentCell(t *testing.T) {
	evaluator := NewNeighborsMovementEvaluator(0.005)
	current := shared.Location{Lat: 52.5213, Lng: 13.4027}

	destination := evaluator.NextDestination(rand.New(rand.NewSource(1)), current)
	require.NotNil(t, destination)
	assert.NotEqual(t, current, *destination)
	assert.InDelta(t, current.Lat, destination.Lat, 1.5*0.005)
	assert.InDelta(t, current.Lng, destination.Lng, 1.5*0.005)
}

func TestDynamicMovementAppliesSpeedCoefficient(t *testing.T) {
	origin := shared.Location{Lat: 52.520, Lng: 13.400}
	destination := shared.Location{Lat: 52.530, Lng: 13.410}

	// 19:00 carries a 0.87 coefficient, so the dynamic policy is slower
	// than the constant-speed one.
	start := int64(19 * 3600)
	arrival := func(policy MovementPolicy) int64 {
		env := sim.NewEnvironment(start)
		d := &recordingDispatcher{env: env}
		c := New(Params{
			Env:                env,
			Dispatcher:         d,
			Acceptance:         NewAbsoluteAcceptancePolicy(),
			Movement:           policy,
			MovementEvaluation: NewStillMovementEvaluator(),
			ID:                 1,
			Vehicle:            shared.VehicleCar,
			Location:           origin,
			OnTime:             start,
			OffTime:            start + 36_000,
			AcceptanceRate:     1,
			WaitToMove:         36_000,
			RNG:                rand.New(rand.NewSource(1)),
			Logger:             testLogger(),
		})

		var arrivedAt int64
		env.Process("travel", func(p *sim.Process) error {
			if err := policy.Move(p, c, destination); err != nil {
				return err
			}
			arrivedAt = env.Now()
			return nil
		})
		env.Run(start + 10_000)
		return arrivedAt - start
	}

	distance := origin.DistanceTo(destination)
	constantSpeed := arrival(NewOSRMMovementPolicy(straightLineClient{}))
	dynamic := arrival(NewOSRMDynamicMovementPolicy(straightLineClient{}))

	assert.Equal(t, int64(distance/shared.VehicleCar.AverageVelocity()), constantSpeed)
	assert.Equal(t, int64(distance/(shared.VehicleCar.AverageVelocity()*0.87)), dynamic)
	assert.Greater(t, dynamic, constantSpeed)
}
