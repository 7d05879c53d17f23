// Package user implements the ordering customer: it places the order with
// the dispatcher and may later cancel it if it takes too long to be picked
// up.
package user

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
	"github.com/andrescamacho/deliverysim-go/internal/sim"
)

// Dispatcher is the user's non-owning view of the central dispatcher.
type Dispatcher interface {
	SubmitOrder(o *delivery.Order, u *User)
	CancelOrder(orderID int64)
}

// User submits one order and watches it until pick-up or cancellation.
type User struct {
	env        *sim.Environment
	dispatcher Dispatcher
	policy     CancellationPolicy
	rng        *rand.Rand
	log        logrus.FieldLogger

	userID    int64
	order     *delivery.Order
	lostOrder *delivery.Order
	watcher   *sim.Process
}

// New creates a user bound to the dispatcher.
func New(
	env *sim.Environment,
	dispatcher Dispatcher,
	policy CancellationPolicy,
	userID int64,
	rng *rand.Rand,
	logger logrus.FieldLogger,
) *User {
	return &User{
		env:        env,
		dispatcher: dispatcher,
		policy:     policy,
		rng:        rng,
		log:        logger.WithField("user_id", userID),
		userID:     userID,
	}
}

// SubmitOrder places the order with the dispatcher and spawns the
// cancellation watcher the policy prescribes.
func (u *User) SubmitOrder(params delivery.OrderParams) *delivery.Order {
	o := delivery.NewOrder(params)
	u.order = o

	u.logAt(fmt.Sprintf("user submitted order %d", o.ID()))
	u.dispatcher.SubmitOrder(o, u)

	if wait := u.policy.WaitToCancel(u.rng); wait >= 0 {
		u.watcher = u.env.Process(fmt.Sprintf("user-%d-cancellation", u.userID), func(p *sim.Process) error {
			if err := p.Timeout(wait); err != nil {
				if sim.IsInterrupt(err) {
					return nil
				}
				return err
			}
			if o.Status() == delivery.StatusPickedUp || o.Status() == delivery.StatusDroppedOff {
				return nil
			}
			u.logAt(fmt.Sprintf("user ran out of patience with order %d", o.ID()))
			u.dispatcher.CancelOrder(o.ID())
			return nil
		})
	}
	return o
}

// SaveLostOrder records an admission-rejected order. It never touches the
// dispatcher.
func (u *User) SaveLostOrder(params delivery.OrderParams) *delivery.Order {
	o := delivery.NewOrder(params)
	u.lostOrder = o
	u.logAt(fmt.Sprintf("order %d was turned away before placement", o.ID()))
	return o
}

// OrderPickedUp stops the cancellation watcher; the dispatcher calls it when
// the courier leaves the store.
func (u *User) OrderPickedUp(orderID int64) {
	if u.order == nil || u.order.ID() != orderID {
		return
	}
	if u.watcher != nil && u.watcher.Alive() {
		u.env.InterruptProcess(u.watcher, "order picked up")
	}
}

// ID returns the user id.
func (u *User) ID() int64 { return u.userID }

// Order returns the submitted order, or nil if none was admitted.
func (u *User) Order() *delivery.Order { return u.order }

// LostOrder returns the admission-rejected order, or nil.
func (u *User) LostOrder() *delivery.Order { return u.lostOrder }

func (u *User) logAt(msg string) {
	u.log.WithField("sim_time", shared.FormatClock(u.env.Now())).Info(msg)
}
