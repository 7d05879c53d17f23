package delivery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

func TestNewRouteRejectsUnpairedPickUp(t *testing.T) {
	o := newTestOrder(10)
	orders := map[int64]*delivery.Order{o.ID(): o}

	_, err := delivery.NewRoute([]*delivery.Stop{
		delivery.NewStop(o.PickUpAt(), 0, delivery.StopPickUp, orders),
	}, orders)

	assert.ErrorIs(t, err, delivery.ErrUnpairedPickUp)
}

func TestSingleOrderRoutePairsStops(t *testing.T) {
	o := newTestOrder(11)
	r := delivery.NewSingleOrderRoute(o)

	require.Len(t, r.Stops, 2)
	assert.Equal(t, delivery.StopPickUp, r.Stops[0].Kind)
	assert.Equal(t, delivery.StopDropOff, r.Stops[1].Kind)
	assert.True(t, r.ContainsOrder(o.ID()))

	// Re-validating through NewRoute must accept the canonical shape.
	_, err := delivery.NewRoute(r.Stops, r.Orders)
	assert.NoError(t, err)
}

func TestNextUnvisitedStopWalksInOrder(t *testing.T) {
	o := newTestOrder(12)
	r := delivery.NewSingleOrderRoute(o)

	first := r.NextUnvisitedStop()
	require.NotNil(t, first)
	assert.Equal(t, delivery.StopPickUp, first.Kind)

	first.Visited = true
	second := r.NextUnvisitedStop()
	require.NotNil(t, second)
	assert.Equal(t, delivery.StopDropOff, second.Kind)

	second.Visited = true
	assert.Nil(t, r.NextUnvisitedStop())
	assert.True(t, r.Empty())
}

func TestExtendReindexesAppendedStops(t *testing.T) {
	a := newTestOrder(13)
	b := newTestOrder(14)
	r := delivery.NewSingleOrderRoute(a)

	r.Extend(delivery.NewSingleOrderRoute(b))

	require.Len(t, r.Stops, 4)
	for i, stop := range r.Stops {
		assert.Equal(t, i, stop.Position)
	}
	assert.True(t, r.ContainsOrder(a.ID()))
	assert.True(t, r.ContainsOrder(b.ID()))
}

func TestRemoveOrderDropsEmptiedStops(t *testing.T) {
	o := newTestOrder(15)
	r := delivery.NewSingleOrderRoute(o)

	r.RemoveOrder(o.ID())

	assert.False(t, r.ContainsOrder(o.ID()))
	assert.Empty(t, r.Stops)
	assert.True(t, r.Empty())
}

func TestRemoveOrderKeepsSharedStops(t *testing.T) {
	a := newTestOrder(16)
	b := newTestOrder(17)
	orders := map[int64]*delivery.Order{a.ID(): a, b.ID(): b}

	pickUp := delivery.NewStop(a.PickUpAt(), 0, delivery.StopPickUp, map[int64]*delivery.Order{a.ID(): a, b.ID(): b})
	dropA := delivery.NewStop(a.DropOffAt(), 1, delivery.StopDropOff, map[int64]*delivery.Order{a.ID(): a})
	dropB := delivery.NewStop(b.DropOffAt(), 2, delivery.StopDropOff, map[int64]*delivery.Order{b.ID(): b})
	r, err := delivery.NewRoute([]*delivery.Stop{pickUp, dropA, dropB}, orders)
	require.NoError(t, err)

	r.RemoveOrder(a.ID())

	require.Len(t, r.Stops, 2)
	assert.Equal(t, delivery.StopPickUp, r.Stops[0].Kind)
	assert.True(t, r.ContainsOrder(b.ID()))
	assert.False(t, r.ContainsOrder(a.ID()))
}

func TestPrepositionNotificationInstruction(t *testing.T) {
	dest := shared.Location{Lat: 4.7, Lng: -74.1}
	n := delivery.NewPrepositionNotification(3, dest)

	instruction := n.Instruction()

	require.Len(t, instruction.Stops, 1)
	assert.Equal(t, delivery.StopPreposition, instruction.Stops[0].Kind)
	assert.True(t, instruction.Stops[0].Location.Equal(dest))
	assert.Empty(t, n.OrderIDs())
}
