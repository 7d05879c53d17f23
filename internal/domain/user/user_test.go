package user

import (
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
	"github.com/andrescamacho/deliverysim-go/internal/sim"
)

// recordingDispatcher captures submissions and cancellations with their
// simulated timestamps.
type recordingDispatcher struct {
	env *sim.Environment

	submitted  []*delivery.Order
	canceledAt map[int64]int64
}

func (d *recordingDispatcher) SubmitOrder(o *delivery.Order, _ *User) {
	d.submitted = append(d.submitted, o)
}

func (d *recordingDispatcher) CancelOrder(orderID int64) {
	if d.canceledAt == nil {
		d.canceledAt = map[int64]int64{}
	}
	d.canceledAt[orderID] = d.env.Now()
}

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func orderParams(id int64) delivery.OrderParams {
	at := shared.Location{Lat: 52.52, Lng: 13.40}
	return delivery.OrderParams{ID: id, UserID: 100, PickUpAt: at, DropOffAt: at}
}

func TestSubmitOrderReachesDispatcher(t *testing.T) {
	env := sim.NewEnvironment(0)
	d := &recordingDispatcher{env: env}

	u := New(env, d, NewNeverCancellationPolicy(), 100, rand.New(rand.NewSource(1)), testLogger())
	o := u.SubmitOrder(orderParams(10))

	require.Len(t, d.submitted, 1)
	assert.Same(t, o, d.submitted[0])
	assert.Same(t, o, u.Order())
	assert.Equal(t, delivery.StatusPlaced, o.Status())

	// A patient user never spawns a watcher, so nothing is ever canceled.
	env.Run(100_000)
	assert.Empty(t, d.canceledAt)
}

func TestImpatientUserCancelsUnservedOrder(t *testing.T) {
	env := sim.NewEnvironment(0)
	d := &recordingDispatcher{env: env}

	u := New(env, d, NewRandomCancellationPolicy(120, 120), 100, rand.New(rand.NewSource(1)), testLogger())
	u.SubmitOrder(orderParams(10))

	env.Run(600)

	require.Contains(t, d.canceledAt, int64(10))
	assert.Equal(t, int64(120), d.canceledAt[10])
}

func TestPickUpStopsCancellationWatcher(t *testing.T) {
	env := sim.NewEnvironment(0)
	d := &recordingDispatcher{env: env}

	u := New(env, d, NewRandomCancellationPolicy(120, 120), 100, rand.New(rand.NewSource(1)), testLogger())
	o := u.SubmitOrder(orderParams(10))

	env.ScheduleCall(60, sim.PriorityNormal, func() {
		require.NoError(t, o.Schedule(env.Now(), 1))
		require.NoError(t, o.EnterStore(env.Now()))
		require.NoError(t, o.PickUp(env.Now()))
		u.OrderPickedUp(o.ID())
	})
	env.Run(600)

	assert.Empty(t, d.canceledAt)
}

func TestWatcherLetsDeliveredOrderBe(t *testing.T) {
	env := sim.NewEnvironment(0)
	d := &recordingDispatcher{env: env}

	u := New(env, d, NewRandomCancellationPolicy(120, 120), 100, rand.New(rand.NewSource(1)), testLogger())
	o := u.SubmitOrder(orderParams(10))

	// The order completes without anyone telling the user; the watcher
	// still checks the status before cancelling.
	env.ScheduleCall(60, sim.PriorityNormal, func() {
		require.NoError(t, o.Schedule(env.Now(), 1))
		require.NoError(t, o.EnterStore(env.Now()))
		require.NoError(t, o.PickUp(env.Now()))
	})
	env.Run(600)

	assert.Empty(t, d.canceledAt)
}

func TestSaveLostOrderNeverTouchesDispatcher(t *testing.T) {
	env := sim.NewEnvironment(0)
	d := &recordingDispatcher{env: env}

	u := New(env, d, NewNeverCancellationPolicy(), 100, rand.New(rand.NewSource(1)), testLogger())
	o := u.SaveLostOrder(orderParams(10))

	assert.Same(t, o, u.LostOrder())
	assert.Nil(t, u.Order())
	assert.Empty(t, d.submitted)
}

func TestRandomCancellationPolicyBounds(t *testing.T) {
	policy := NewRandomCancellationPolicy(30, 90)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		wait := policy.WaitToCancel(rng)
		assert.GreaterOrEqual(t, wait, int64(30))
		assert.LessOrEqual(t, wait, int64(90))
	}

	assert.Equal(t, int64(-1), NewNeverCancellationPolicy().WaitToCancel(rng))
}
