// Package dispatch implements the central dispatcher: it buffers incoming
// orders, matches them to couriers on a periodic tick, sends offers,
// reconciles accept/reject/cancel outcomes, and optionally repositions idle
// couriers. All registries live here and are mutated only from handlers and
// loops on the single virtual thread, so no locking is needed.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/andrescamacho/deliverysim-go/internal/domain/courier"
	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
	"github.com/andrescamacho/deliverysim-go/internal/domain/user"
	"github.com/andrescamacho/deliverysim-go/internal/sim"
)

// ErrRegistryViolation reports an order or courier present in zero or more
// than one registry. It is fatal: the world aborts the run and dumps state.
var ErrRegistryViolation = errors.New("dispatch: registry invariant violated")

// recentPickUpWindow bounds the pick-up history kept for prepositioning.
const recentPickUpWindow = 100

// Config wires the dispatcher's policies and tuning knobs.
type Config struct {
	Buffering                BufferingPolicy
	Matching                 MatchingPolicy
	Cancellation             CancellationPolicy
	Prepositioning           PrepositioningPolicy
	PrepositioningEvaluation PrepositioningEvaluationPolicy
	DemandManagement         DemandManagementPolicy

	// DensityThreshold and LimitRadius drive the congestion signal: while
	// unassigned orders >= threshold x idle couriers, admission is limited
	// to LimitRadius meters.
	DensityThreshold float64
	LimitRadius      float64

	Recorder Recorder
	Logger   logrus.FieldLogger
}

// Dispatcher owns the order and courier registries and runs the matching and
// prepositioning loops.
type Dispatcher struct {
	env *sim.Environment
	ctx context.Context
	log logrus.FieldLogger
	rec Recorder

	buffering        BufferingPolicy
	matching         MatchingPolicy
	cancellation     CancellationPolicy
	prepositioning   PrepositioningPolicy
	prepoEvaluation  PrepositioningEvaluationPolicy
	demandManagement DemandManagementPolicy

	densityThreshold float64
	limitRadius      float64
	currentRadius    float64

	unassignedOrders map[int64]*delivery.Order
	scheduledOrders  map[int64]*delivery.Order
	pickingUpOrders  map[int64]*delivery.Order
	canceledOrders   map[int64]*delivery.Order
	fulfilledOrders  map[int64]*delivery.Order

	idleCouriers      map[int64]*courier.Courier
	movingCouriers    map[int64]*courier.Courier
	busyCouriers      map[int64]*courier.Courier
	loggedOffCouriers map[int64]*courier.Courier
	couriersByID      map[int64]*courier.Courier

	notified map[int64]*delivery.Notification
	offered  map[int64]struct{}
	users    map[int64]*user.User

	recentPickUps   []shared.Location
	matchingMetrics []MatchingMetric
	droppedOffers   int
}

// New creates the dispatcher and starts its matching loop (and the
// prepositioning loop when the evaluation policy schedules one).
func New(ctx context.Context, env *sim.Environment, cfg Config) *Dispatcher {
	if cfg.Recorder == nil {
		cfg.Recorder = NopRecorder{}
	}

	d := &Dispatcher{
		env: env,
		ctx: ctx,
		log: cfg.Logger.WithField("actor", "dispatcher"),
		rec: cfg.Recorder,

		buffering:        cfg.Buffering,
		matching:         cfg.Matching,
		cancellation:     cfg.Cancellation,
		prepositioning:   cfg.Prepositioning,
		prepoEvaluation:  cfg.PrepositioningEvaluation,
		demandManagement: cfg.DemandManagement,

		densityThreshold: cfg.DensityThreshold,
		limitRadius:      cfg.LimitRadius,
		currentRadius:    math.Inf(1),

		unassignedOrders: make(map[int64]*delivery.Order),
		scheduledOrders:  make(map[int64]*delivery.Order),
		pickingUpOrders:  make(map[int64]*delivery.Order),
		canceledOrders:   make(map[int64]*delivery.Order),
		fulfilledOrders:  make(map[int64]*delivery.Order),

		idleCouriers:      make(map[int64]*courier.Courier),
		movingCouriers:    make(map[int64]*courier.Courier),
		busyCouriers:      make(map[int64]*courier.Courier),
		loggedOffCouriers: make(map[int64]*courier.Courier),
		couriersByID:      make(map[int64]*courier.Courier),

		notified: make(map[int64]*delivery.Notification),
		offered:  make(map[int64]struct{}),
		users:    make(map[int64]*user.User),
	}

	env.Process("dispatcher-buffering", d.bufferingLoop)
	if d.prepoEvaluation.NextEvaluation(env.Now()) >= 0 {
		env.Process("dispatcher-prepositioning", d.prepositioningLoop)
	}
	return d
}

// --- order events -----------------------------------------------------------

// SubmitOrder buffers a freshly placed order.
func (d *Dispatcher) SubmitOrder(o *delivery.Order, u *user.User) {
	d.unassignedOrders[o.ID()] = o
	d.users[o.ID()] = u

	d.recentPickUps = append(d.recentPickUps, o.PickUpAt())
	if len(d.recentPickUps) > recentPickUpWindow {
		d.recentPickUps = d.recentPickUps[len(d.recentPickUps)-recentPickUpWindow:]
	}

	d.rec.OrderPlaced()
	d.updateRadius()
	d.logAt(logrus.Fields{"order_id": o.ID()}, "order submitted")
}

// CancelOrder withdraws an order if the cancellation policy still allows it.
// A scheduled order is also removed from its courier's route; a route left
// empty sends the courier back to idle.
func (d *Dispatcher) CancelOrder(orderID int64) {
	o, scheduled := d.findCancelable(orderID)
	if o == nil || !d.cancellation.CanCancel(o) {
		return
	}
	if err := o.Cancel(d.env.Now()); err != nil {
		d.logAt(logrus.Fields{"order_id": orderID}, fmt.Sprintf("cancel refused: %v", err))
		return
	}

	delete(d.unassignedOrders, orderID)
	delete(d.scheduledOrders, orderID)
	d.canceledOrders[orderID] = o

	if scheduled {
		if c := d.couriersByID[o.CourierID()]; c != nil {
			c.CancelOrder(orderID)
		}
	}

	d.rec.OrderCanceled()
	d.updateRadius()
	d.logAt(logrus.Fields{"order_id": orderID}, "order canceled")
}

func (d *Dispatcher) findCancelable(orderID int64) (o *delivery.Order, scheduled bool) {
	if o, ok := d.unassignedOrders[orderID]; ok {
		return o, false
	}
	if o, ok := d.scheduledOrders[orderID]; ok {
		return o, true
	}
	return nil, false
}

// OrdersInStore marks the courier's arrival at the pick-up. Re-entry after an
// interrupted pick-up is harmless: the first in-store stamp sticks.
func (d *Dispatcher) OrdersInStore(orders map[int64]*delivery.Order) {
	for id, o := range orders {
		if err := o.EnterStore(d.env.Now()); err != nil {
			d.logAt(logrus.Fields{"order_id": id}, fmt.Sprintf("in-store event dropped: %v", err))
			continue
		}
		if _, ok := d.scheduledOrders[id]; ok {
			delete(d.scheduledOrders, id)
			d.pickingUpOrders[id] = o
		}
	}
}

// OrdersPickedUp marks orders as leaving the store and releases the users'
// cancellation watchers.
func (d *Dispatcher) OrdersPickedUp(orders map[int64]*delivery.Order) {
	for id, o := range orders {
		if err := o.PickUp(d.env.Now()); err != nil {
			d.logAt(logrus.Fields{"order_id": id}, fmt.Sprintf("pick-up event dropped: %v", err))
			continue
		}
		if u := d.users[id]; u != nil {
			u.OrderPickedUp(id)
		}
	}
}

// OrdersDroppedOff completes orders and credits the courier.
func (d *Dispatcher) OrdersDroppedOff(orders map[int64]*delivery.Order, c *courier.Courier) {
	for id, o := range orders {
		if err := o.DropOff(d.env.Now()); err != nil {
			d.logAt(logrus.Fields{"order_id": id}, fmt.Sprintf("drop-off event dropped: %v", err))
			continue
		}
		delete(d.pickingUpOrders, id)
		d.fulfilledOrders[id] = o
		c.RecordFulfilled(id)
		d.rec.OrderFulfilled(o.DropOffTime() - o.PlacementTime())
	}
	d.updateRadius()
}

// --- notification events ----------------------------------------------------

// NotificationAccepted resolves an outstanding offer: the courier is
// released from the notified set and the offer's orders move to scheduled.
// Orders canceled while the offer was pending are stripped from the
// instruction so the courier never services them.
func (d *Dispatcher) NotificationAccepted(n *delivery.Notification, c *courier.Courier) {
	delete(d.notified, c.ID())
	d.rec.NotificationAccepted()

	if n.Kind == delivery.NotifyPreposition {
		return
	}
	for _, id := range n.Route.OrderIDs() {
		o, ok := d.unassignedOrders[id]
		if !ok {
			n.Route.RemoveOrder(id)
			delete(d.offered, id)
			continue
		}
		delete(d.offered, id)
		if err := o.Schedule(d.env.Now(), c.ID()); err != nil {
			d.logAt(logrus.Fields{"order_id": id}, fmt.Sprintf("schedule failed: %v", err))
			n.Route.RemoveOrder(id)
			continue
		}
		delete(d.unassignedOrders, id)
		d.scheduledOrders[id] = o
	}
	d.updateRadius()
}

// NotificationRejected returns the offer's orders to the buffer.
func (d *Dispatcher) NotificationRejected(n *delivery.Notification, c *courier.Courier) {
	delete(d.notified, c.ID())
	for _, id := range n.OrderIDs() {
		delete(d.offered, id)
	}
	d.rec.NotificationRejected()
}

// --- courier events ---------------------------------------------------------

func (d *Dispatcher) CourierIdle(c *courier.Courier) {
	d.placeCourier(c, d.idleCouriers)
	d.updateRadius()
}

func (d *Dispatcher) CourierMoving(c *courier.Courier) {
	d.placeCourier(c, d.movingCouriers)
}

func (d *Dispatcher) CourierPickingUp(c *courier.Courier) {
	d.placeCourier(c, d.busyCouriers)
}

func (d *Dispatcher) CourierDroppingOff(c *courier.Courier) {
	d.placeCourier(c, d.busyCouriers)
}

func (d *Dispatcher) CourierLoggedOff(c *courier.Courier) {
	d.placeCourier(c, d.loggedOffCouriers)
	d.updateRadius()
	d.logAt(logrus.Fields{"courier_id": c.ID()}, "courier logged off")
}

func (d *Dispatcher) placeCourier(c *courier.Courier, target map[int64]*courier.Courier) {
	d.couriersByID[c.ID()] = c
	delete(d.idleCouriers, c.ID())
	delete(d.movingCouriers, c.ID())
	delete(d.busyCouriers, c.ID())
	delete(d.loggedOffCouriers, c.ID())
	target[c.ID()] = c
}

// --- demand management ------------------------------------------------------

// EvaluateDemandManagement is the admission check the world runs before a
// user may place an order.
func (d *Dispatcher) EvaluateDemandManagement(pickUp, dropOff shared.Location) bool {
	return d.demandManagement.Admit(pickUp, dropOff, d.currentRadius)
}

// updateRadius recomputes the congestion signal from the backlog-to-supply
// ratio.
func (d *Dispatcher) updateRadius() {
	idle := len(d.idleCouriers)
	if idle == 0 {
		idle = 1
	}
	if float64(len(d.unassignedOrders)) >= d.densityThreshold*float64(idle) {
		d.currentRadius = d.limitRadius
	} else {
		d.currentRadius = math.Inf(1)
	}
}

// --- loops ------------------------------------------------------------------

func (d *Dispatcher) bufferingLoop(p *sim.Process) error {
	for {
		delay := d.buffering.NextFlush(d.env.Now())
		if err := p.Timeout(delay); err != nil {
			if sim.IsInterrupt(err) {
				return nil
			}
			return err
		}
		d.flushBuffer()
	}
}

// flushBuffer runs one matching tick over currently-buffered orders and
// available couriers.
func (d *Dispatcher) flushBuffer() {
	orders := d.bufferedOrders()
	couriers := d.availableCouriers()
	if len(orders) == 0 || len(couriers) == 0 {
		return
	}

	notifications, metric, err := d.matching.Match(d.ctx, orders, couriers, d.env.Now())
	if err != nil {
		d.logAt(nil, fmt.Sprintf("matching tick failed: %v", err))
		return
	}
	d.matchingMetrics = append(d.matchingMetrics, metric)

	for _, n := range notifications {
		d.send(n)
	}
}

func (d *Dispatcher) prepositioningLoop(p *sim.Process) error {
	for {
		delay := d.prepoEvaluation.NextEvaluation(d.env.Now())
		if delay < 0 {
			return nil
		}
		if err := p.Timeout(delay); err != nil {
			if sim.IsInterrupt(err) {
				return nil
			}
			return err
		}
		for _, n := range d.prepositioning.Preposition(d.availableCouriers(), d.recentPickUps) {
			d.send(n)
		}
	}
}

// send delivers one offer, enforcing at-most-one-outstanding-offer per
// courier. An offer targeting a busy or already-notified courier is a
// matching-policy precondition violation: dropped and logged, never fatal.
func (d *Dispatcher) send(n *delivery.Notification) {
	c, ok := d.couriersByID[n.CourierID]
	if !ok {
		d.droppedOffers++
		d.logAt(logrus.Fields{"courier_id": n.CourierID}, "dropping offer for unknown courier")
		return
	}
	if _, outstanding := d.notified[n.CourierID]; outstanding || c.Condition() != courier.ConditionIdle {
		d.droppedOffers++
		d.logAt(logrus.Fields{"courier_id": n.CourierID}, "dropping offer for unavailable courier")
		return
	}

	d.notified[n.CourierID] = n
	for _, id := range n.OrderIDs() {
		d.offered[id] = struct{}{}
	}
	d.rec.NotificationSent()
	c.Notify(n)
}

// bufferedOrders returns unassigned orders without an outstanding offer, in
// id order for determinism.
func (d *Dispatcher) bufferedOrders() []*delivery.Order {
	orders := make([]*delivery.Order, 0, len(d.unassignedOrders))
	for id, o := range d.unassignedOrders {
		if _, pending := d.offered[id]; pending {
			continue
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID() < orders[j].ID() })
	return orders
}

// availableCouriers returns idle, route-less couriers without an outstanding
// offer, in id order.
func (d *Dispatcher) availableCouriers() []*courier.Courier {
	couriers := make([]*courier.Courier, 0, len(d.idleCouriers))
	for id, c := range d.idleCouriers {
		if _, pending := d.notified[id]; pending {
			continue
		}
		if c.ActiveRoute() != nil {
			continue
		}
		couriers = append(couriers, c)
	}
	sort.Slice(couriers, func(i, j int) bool { return couriers[i].ID() < couriers[j].ID() })
	return couriers
}

// --- integrity and introspection -------------------------------------------

// VerifyIntegrity checks that every order and courier sits in exactly one
// registry. On violation it returns ErrRegistryViolation wrapped with a
// diagnostic dump of the offending ids.
func (d *Dispatcher) VerifyIntegrity() error {
	var violations []string

	orderRegistries := map[string]map[int64]*delivery.Order{
		"unassigned": d.unassignedOrders,
		"scheduled":  d.scheduledOrders,
		"picking_up": d.pickingUpOrders,
		"canceled":   d.canceledOrders,
		"fulfilled":  d.fulfilledOrders,
	}
	seen := make(map[int64][]string)
	for name, registry := range orderRegistries {
		for id := range registry {
			seen[id] = append(seen[id], name)
		}
	}
	for id, names := range seen {
		if len(names) > 1 {
			sort.Strings(names)
			violations = append(violations, fmt.Sprintf("order %d in registries %v", id, names))
		}
	}

	courierRegistries := map[string]map[int64]*courier.Courier{
		"idle":       d.idleCouriers,
		"moving":     d.movingCouriers,
		"busy":       d.busyCouriers,
		"logged_off": d.loggedOffCouriers,
	}
	seenCouriers := make(map[int64][]string)
	for name, registry := range courierRegistries {
		for id := range registry {
			seenCouriers[id] = append(seenCouriers[id], name)
		}
	}
	for id, names := range seenCouriers {
		if len(names) > 1 {
			sort.Strings(names)
			violations = append(violations, fmt.Sprintf("courier %d in registries %v", id, names))
		}
	}

	if len(violations) == 0 {
		return nil
	}
	sort.Strings(violations)
	return fmt.Errorf("%w: %s", ErrRegistryViolation, strings.Join(violations, "; "))
}

// DropWarmUpWindow removes fulfilled and canceled orders that completed
// before the warm-up window ended; they stay in the trace but not in the
// final metrics.
func (d *Dispatcher) DropWarmUpWindow(end int64) {
	for id, o := range d.fulfilledOrders {
		if o.DropOffTime() < end {
			delete(d.fulfilledOrders, id)
		}
	}
	for id, o := range d.canceledOrders {
		if o.CancellationTime() < end {
			delete(d.canceledOrders, id)
		}
	}
}

// Counts summarizes the registries for the per-tick progress log.
type Counts struct {
	Unassigned int
	Scheduled  int
	PickingUp  int
	Canceled   int
	Fulfilled  int
	Idle       int
	Moving     int
	Busy       int
	LoggedOff  int
}

func (d *Dispatcher) Counts() Counts {
	return Counts{
		Unassigned: len(d.unassignedOrders),
		Scheduled:  len(d.scheduledOrders),
		PickingUp:  len(d.pickingUpOrders),
		Canceled:   len(d.canceledOrders),
		Fulfilled:  len(d.fulfilledOrders),
		Idle:       len(d.idleCouriers),
		Moving:     len(d.movingCouriers),
		Busy:       len(d.busyCouriers),
		LoggedOff:  len(d.loggedOffCouriers),
	}
}

// FulfilledOrders returns a copy of the fulfilled registry.
func (d *Dispatcher) FulfilledOrders() map[int64]*delivery.Order {
	return copyOrders(d.fulfilledOrders)
}

// CanceledOrders returns a copy of the canceled registry.
func (d *Dispatcher) CanceledOrders() map[int64]*delivery.Order {
	return copyOrders(d.canceledOrders)
}

// UnassignedOrders returns a copy of the unassigned registry.
func (d *Dispatcher) UnassignedOrders() map[int64]*delivery.Order {
	return copyOrders(d.unassignedOrders)
}

// IdleCouriers returns the currently idle couriers in id order.
func (d *Dispatcher) IdleCouriers() []*courier.Courier {
	couriers := make([]*courier.Courier, 0, len(d.idleCouriers))
	for _, c := range d.idleCouriers {
		couriers = append(couriers, c)
	}
	sort.Slice(couriers, func(i, j int) bool { return couriers[i].ID() < couriers[j].ID() })
	return couriers
}

// Couriers returns every courier ever registered, in id order.
func (d *Dispatcher) Couriers() []*courier.Courier {
	couriers := make([]*courier.Courier, 0, len(d.couriersByID))
	for _, c := range d.couriersByID {
		couriers = append(couriers, c)
	}
	sort.Slice(couriers, func(i, j int) bool { return couriers[i].ID() < couriers[j].ID() })
	return couriers
}

// MatchingMetrics returns the per-tick matching metrics collected so far.
func (d *Dispatcher) MatchingMetrics() []MatchingMetric {
	return d.matchingMetrics
}

// DroppedOffers counts matching-policy precondition violations observed.
func (d *Dispatcher) DroppedOffers() int {
	return d.droppedOffers
}

// CurrentRadius exposes the congestion signal, for tests and the trace.
func (d *Dispatcher) CurrentRadius() float64 {
	return d.currentRadius
}

func copyOrders(src map[int64]*delivery.Order) map[int64]*delivery.Order {
	dst := make(map[int64]*delivery.Order, len(src))
	for id, o := range src {
		dst[id] = o
	}
	return dst
}

func (d *Dispatcher) logAt(fields logrus.Fields, msg string) {
	entry := d.log.WithField("sim_time", shared.FormatClock(d.env.Now()))
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Info(msg)
}
