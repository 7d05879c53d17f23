// Package courier implements the courier actor: a mobile server with a shift,
// an acceptance behaviour, and a movement policy, running as a cooperative
// process on the simulation environment.
package courier

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
	"github.com/andrescamacho/deliverysim-go/internal/sim"
)

// Condition tags the courier's current state.
type Condition string

const (
	ConditionIdle        Condition = "idle"
	ConditionMoving      Condition = "moving"
	ConditionPickingUp   Condition = "picking_up"
	ConditionDroppingOff Condition = "dropping_off"
	ConditionLoggedOff   Condition = "logged_off"
)

// Interruption causes, visible in the trace when a state is cut short.
const (
	CauseNotification  = "notification"
	CauseLogOff        = "log_off"
	CauseRouteCanceled = "route_canceled"
)

// Dispatcher is the courier's non-owning view of the central dispatcher. All
// callbacks are synchronous registry mutations and never block.
type Dispatcher interface {
	CourierIdle(c *Courier)
	CourierMoving(c *Courier)
	CourierPickingUp(c *Courier)
	CourierDroppingOff(c *Courier)
	CourierLoggedOff(c *Courier)
	OrdersInStore(orders map[int64]*delivery.Order)
	OrdersPickedUp(orders map[int64]*delivery.Order)
	OrdersDroppedOff(orders map[int64]*delivery.Order, c *Courier)
	NotificationAccepted(n *delivery.Notification, c *Courier)
	NotificationRejected(n *delivery.Notification, c *Courier)
}

// Params carries everything needed to put a courier on shift.
type Params struct {
	Env                *sim.Environment
	Dispatcher         Dispatcher
	Acceptance         AcceptancePolicy
	Movement           MovementPolicy
	MovementEvaluation MovementEvaluator

	ID             int64
	Vehicle        shared.Vehicle
	Location       shared.Location
	OnTime         int64
	OffTime        int64
	AcceptanceRate float64
	WaitToMove     int64

	EarningsPerOrder decimal.Decimal
	EarningsPerHour  decimal.Decimal

	RNG    *rand.Rand
	Logger logrus.FieldLogger
}

// Courier is the idle/moving/picking-up/dropping-off/logged-off state
// machine. A single interruptible state process runs at a time; offers arrive
// through Notify and may cut the running state short.
type Courier struct {
	env        *sim.Environment
	dispatcher Dispatcher
	acceptance AcceptancePolicy
	movement   MovementPolicy
	moveEval   MovementEvaluator
	rng        *rand.Rand
	log        logrus.FieldLogger

	id             int64
	vehicle        shared.Vehicle
	location       shared.Location
	onTime         int64
	offTime        int64
	acceptanceRate float64
	waitToMove     int64

	earningsPerOrder decimal.Decimal
	earningsPerHour  decimal.Decimal

	condition   Condition
	state       *sim.Process
	routeProc   *sim.Process
	activeRoute *delivery.Route
	activeStop  *delivery.Stop

	acceptedNotifications []*delivery.Notification
	fulfilledOrders       []int64
	rejectedOrders        []int64
	utilizationTime       int64

	logOffScheduled        bool
	earnings               decimal.Decimal
	earningsSet            bool
	guaranteedCompensation bool
}

// New puts a courier on shift: the log-off timer is armed for the end of the
// shift and the courier starts idling.
func New(p Params) *Courier {
	c := &Courier{
		env:              p.Env,
		dispatcher:       p.Dispatcher,
		acceptance:       p.Acceptance,
		movement:         p.Movement,
		moveEval:         p.MovementEvaluation,
		rng:              p.RNG,
		log:              p.Logger.WithField("courier_id", p.ID),
		id:               p.ID,
		vehicle:          p.Vehicle,
		location:         p.Location,
		onTime:           p.OnTime,
		offTime:          p.OffTime,
		acceptanceRate:   p.AcceptanceRate,
		waitToMove:       p.WaitToMove,
		earningsPerOrder: p.EarningsPerOrder,
		earningsPerHour:  p.EarningsPerHour,
	}

	c.logAt("courier logged on")
	c.env.ScheduleCall(c.offTime-c.onTime, sim.PriorityNormal, c.LogOff)
	c.startIdle()
	return c
}

// Notify delivers an offer to the courier. The acceptance decision runs as
// its own process so a policy-defined delay is not queued behind a long
// service wait: an idle or picking-up state is interrupted first.
func (c *Courier) Notify(n *delivery.Notification) {
	c.logAt(fmt.Sprintf("received a %s notification", n.Kind))

	c.env.Process(fmt.Sprintf("courier-%d-offer", c.id), func(p *sim.Process) error {
		if c.condition == ConditionIdle || c.condition == ConditionPickingUp {
			if c.state != nil && c.state.Alive() {
				c.env.InterruptProcess(c.state, CauseNotification)
				// Let the interrupted state unwind before deciding.
				if err := p.Timeout(0); err != nil {
					return ignoreInterrupt(err)
				}
			}
		}

		accepted, err := c.acceptance.Decide(p, c.rng, c.acceptanceRate)
		if err != nil {
			return ignoreInterrupt(err)
		}
		if accepted {
			c.acceptOffer(n)
		} else {
			c.rejectOffer(n)
		}
		return nil
	})
}

// LogOff ends the shift. A courier with active work defers via
// logOffScheduled and logs off from the route-completion path; earnings are
// computed exactly once.
func (c *Courier) LogOff() {
	c.logAt("courier is going to log off")

	if c.activeRoute != nil || c.activeStop != nil {
		c.logOffScheduled = true
		c.logAt("log off deferred until current instructions complete")
		return
	}

	c.computeEarnings()
	if c.state != nil && c.state.Alive() {
		c.env.InterruptProcess(c.state, CauseLogOff)
	}
	c.condition = ConditionLoggedOff
	c.dispatcher.CourierLoggedOff(c)
}

// CancelOrder removes the order from the courier's active route. If nothing
// remains to execute, the running route is interrupted and the courier
// returns to idle.
func (c *Courier) CancelOrder(orderID int64) {
	if c.activeRoute == nil {
		return
	}
	c.activeRoute.RemoveOrder(orderID)
	if !c.activeRoute.Empty() {
		return
	}
	c.activeRoute = nil
	c.activeStop = nil
	if c.routeProc != nil && c.routeProc.Alive() {
		c.env.InterruptProcess(c.routeProc, CauseRouteCanceled)
	}
}

// RecordFulfilled credits delivered orders to the courier.
func (c *Courier) RecordFulfilled(orderIDs ...int64) {
	c.fulfilledOrders = append(c.fulfilledOrders, orderIDs...)
}

// SetLocation moves the courier; movement policies call it per polyline leg.
func (c *Courier) SetLocation(l shared.Location) { c.location = l }

// SetOffTime overrides the shift end; the world uses it when force-logging
// off still-idle couriers at simulation end.
func (c *Courier) SetOffTime(t int64) { c.offTime = t }

func (c *Courier) startIdle() {
	c.state = c.env.Process(fmt.Sprintf("courier-%d-idle", c.id), c.idleState)
}

// idleState notifies the dispatcher once, then alternates waiting and a
// movement evaluation until interrupted.
func (c *Courier) idleState(p *sim.Process) error {
	c.condition = ConditionIdle
	c.logAt("begins idling")
	c.dispatcher.CourierIdle(c)

	for {
		if err := p.Timeout(c.waitToMove); err != nil {
			return ignoreInterrupt(err)
		}
		if err := c.evaluateMovement(p); err != nil {
			return ignoreInterrupt(err)
		}
	}
}

func (c *Courier) evaluateMovement(p *sim.Process) error {
	destination := c.moveEval.NextDestination(c.rng, c.location)
	if destination == nil {
		c.logAt("decided not to move")
		return nil
	}

	c.logAt(fmt.Sprintf("relocating from %s to %s", c.location, destination))
	if err := c.movingState(p, *destination); err != nil {
		return err
	}
	c.condition = ConditionIdle
	c.dispatcher.CourierIdle(c)
	return nil
}

func (c *Courier) movingState(p *sim.Process, destination shared.Location) error {
	c.condition = ConditionMoving
	start := c.env.Now()
	c.dispatcher.CourierMoving(c)

	err := c.movement.Move(p, c, destination)
	c.utilizationTime += c.env.Now() - start
	return err
}

// pickingUpState waits out the longest service time plus any remaining food
// preparation. An interruption (a new offer arriving mid-pickup) aborts
// before the orders are reported picked up; re-entry restarts the wait.
func (c *Courier) pickingUpState(p *sim.Process, orders map[int64]*delivery.Order) error {
	c.condition = ConditionPickingUp
	c.logAt("begins pick up state")
	start := c.env.Now()

	c.dispatcher.CourierPickingUp(c)
	c.dispatcher.OrdersInStore(orders)

	var serviceTime, latestReady int64
	for _, o := range orders {
		if o.PickUpServiceTime() > serviceTime {
			serviceTime = o.PickUpServiceTime()
		}
		if o.ReadyTime() > latestReady {
			latestReady = o.ReadyTime()
		}
	}
	wait := serviceTime
	if remaining := latestReady - c.env.Now(); remaining > 0 {
		wait += remaining
	}

	if err := p.Timeout(wait); err != nil {
		c.utilizationTime += c.env.Now() - start
		return err
	}
	c.utilizationTime += c.env.Now() - start

	c.logAt("finishes pick up state")
	c.dispatcher.OrdersPickedUp(orders)
	return nil
}

func (c *Courier) droppingOffState(p *sim.Process, orders map[int64]*delivery.Order) error {
	c.condition = ConditionDroppingOff
	c.logAt("begins drop off state")
	start := c.env.Now()

	c.dispatcher.CourierDroppingOff(c)

	var serviceTime int64
	for _, o := range orders {
		if o.DropOffServiceTime() > serviceTime {
			serviceTime = o.DropOffServiceTime()
		}
	}
	if err := p.Timeout(serviceTime); err != nil {
		c.utilizationTime += c.env.Now() - start
		return err
	}
	c.utilizationTime += c.env.Now() - start

	c.logAt("finishes drop off state")
	c.dispatcher.OrdersDroppedOff(orders, c)
	return nil
}

func (c *Courier) startRouteExecution() {
	// A live executor re-scans the route every iteration and will pick up
	// appended stops itself; never run two.
	if c.routeProc != nil && c.routeProc.Alive() {
		return
	}
	c.routeProc = c.env.Process(fmt.Sprintf("courier-%d-route", c.id), c.routeState)
	c.state = c.routeProc
}

func (c *Courier) routeState(p *sim.Process) error {
	err := c.runActiveRoute(p)
	if err != nil {
		if sim.IsInterrupt(err) {
			// A notification offer resumes execution from its own accept or
			// reject path; a route canceled from under us ends the shift
			// or returns to idle here.
			if c.activeRoute == nil {
				c.finishShiftOrIdle()
			}
			return nil
		}
		return err
	}

	c.activeRoute = nil
	c.activeStop = nil
	c.logAt("finishes route execution")
	c.finishShiftOrIdle()
	return nil
}

// runActiveRoute executes unvisited stops in order, moving first when the
// courier is not already at the stop. Preposition stops relocate only.
func (c *Courier) runActiveRoute(p *sim.Process) error {
	for {
		if c.activeRoute == nil {
			return nil
		}
		stop := c.activeRoute.NextUnvisitedStop()
		if stop == nil {
			return nil
		}

		if c.activeStop != stop {
			if err := c.movingState(p, stop.Location); err != nil {
				return err
			}
		}
		if c.activeRoute == nil {
			return nil
		}
		if stop.Kind != delivery.StopPreposition && len(stop.Orders) == 0 {
			// Stop emptied by a cancellation while we were en route.
			continue
		}

		if stop.Kind != delivery.StopPreposition {
			c.activeStop = stop
			if err := c.executeStop(p, stop); err != nil {
				return err
			}
		}
		stop.Visited = true
		c.activeStop = nil
	}
}

func (c *Courier) executeStop(p *sim.Process, stop *delivery.Stop) error {
	c.logAt(fmt.Sprintf("at %s stop with orders %v", stop.Kind, stop.OrderIDs()))
	if stop.Kind == delivery.StopPickUp {
		return c.pickingUpState(p, stop.Orders)
	}
	return c.droppingOffState(p, stop.Orders)
}

func (c *Courier) finishShiftOrIdle() {
	if c.logOffScheduled {
		c.LogOff()
		return
	}
	c.startIdle()
}

func (c *Courier) acceptOffer(n *delivery.Notification) {
	// The shift may have ended while the acceptance decision was pending; a
	// logged-off courier takes no new work.
	if c.condition == ConditionLoggedOff {
		c.rejectOffer(n)
		return
	}

	c.logAt(fmt.Sprintf("accepted a %s notification", n.Kind))
	c.acceptedNotifications = append(c.acceptedNotifications, n)
	c.dispatcher.NotificationAccepted(n, c)

	instruction := n.Instruction()
	if c.activeRoute == nil {
		c.activeRoute = instruction
	} else {
		c.activeRoute.Extend(instruction)
	}
	c.startRouteExecution()
}

func (c *Courier) rejectOffer(n *delivery.Notification) {
	c.logAt(fmt.Sprintf("rejected a %s notification", n.Kind))
	c.rejectedOrders = append(c.rejectedOrders, n.OrderIDs()...)
	c.dispatcher.NotificationRejected(n, c)

	switch c.condition {
	case ConditionIdle:
		c.startIdle()
	case ConditionPickingUp:
		// Continue the route whose pick-up was interrupted by the offer.
		c.startRouteExecution()
	}
}

func (c *Courier) computeEarnings() {
	if c.earningsSet {
		return
	}
	c.earningsSet = true

	deliveryEarnings := c.earningsPerOrder.Mul(decimal.NewFromInt(int64(len(c.fulfilledOrders))))
	guaranteed := c.earningsPerHour.Mul(decimal.NewFromFloat(shared.Hours(c.offTime - c.onTime)))

	if guaranteed.GreaterThan(deliveryEarnings) && deliveryEarnings.IsPositive() {
		c.guaranteedCompensation = true
		c.earnings = guaranteed
	} else {
		c.guaranteedCompensation = false
		c.earnings = deliveryEarnings
	}

	c.logAt(fmt.Sprintf(
		"earned $%s for %d orders during the shift", c.earnings.StringFixed(2), len(c.fulfilledOrders),
	))
}

func (c *Courier) logAt(msg string) {
	c.log.WithField("sim_time", shared.FormatClock(c.env.Now())).Info(msg)
}

// ignoreInterrupt swallows cooperative interruptions so they never reach the
// scheduler; any other error propagates.
func ignoreInterrupt(err error) error {
	if sim.IsInterrupt(err) {
		return nil
	}
	return err
}

func (c *Courier) ID() int64                    { return c.id }
func (c *Courier) Vehicle() shared.Vehicle      { return c.vehicle }
func (c *Courier) Location() shared.Location    { return c.location }
func (c *Courier) Condition() Condition         { return c.condition }
func (c *Courier) OnTime() int64                { return c.onTime }
func (c *Courier) OffTime() int64               { return c.offTime }
func (c *Courier) AcceptanceRate() float64      { return c.acceptanceRate }
func (c *Courier) ActiveRoute() *delivery.Route { return c.activeRoute }
func (c *Courier) ActiveStop() *delivery.Stop   { return c.activeStop }
func (c *Courier) UtilizationTime() int64       { return c.utilizationTime }
func (c *Courier) FulfilledOrders() []int64     { return c.fulfilledOrders }
func (c *Courier) RejectedOrders() []int64      { return c.rejectedOrders }
func (c *Courier) LogOffScheduled() bool        { return c.logOffScheduled }
func (c *Courier) Earnings() decimal.Decimal    { return c.earnings }
func (c *Courier) GuaranteedCompensation() bool { return c.guaranteedCompensation }

func (c *Courier) AcceptedNotifications() int { return len(c.acceptedNotifications) }
