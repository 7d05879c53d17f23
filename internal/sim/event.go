package sim

import "errors"

// ErrEventScheduled is returned by Succeed when the event already fired.
var ErrEventScheduled = errors.New("sim: event already scheduled")

// Event is a one-shot occurrence on the simulation timeline. Processes block
// on it with Wait; plain observers register with OnProcessed. Both run when
// the scheduler processes the event, in registration order.
type Event struct {
	env       *Environment
	err       error
	scheduled bool
	processed bool
	waiters   []eventWaiter
}

type eventWaiter struct {
	proc *Process
	fn   func(*Event)
}

// NewEvent creates an untriggered event bound to the environment.
func (e *Environment) NewEvent() *Event {
	return &Event{env: e}
}

// Succeed triggers the event at the current instant with normal priority.
func (ev *Event) Succeed() error {
	if ev.scheduled {
		return ErrEventScheduled
	}
	ev.env.Schedule(ev, PriorityNormal, 0)
	return nil
}

// OnProcessed registers fn to run when the event is processed. If the event
// has already been processed, fn runs synchronously.
func (ev *Event) OnProcessed(fn func(*Event)) {
	if ev.processed {
		fn(ev)
		return
	}
	ev.waiters = append(ev.waiters, eventWaiter{fn: fn})
}

// Processed reports whether the event has fired and its waiters have run.
func (ev *Event) Processed() bool {
	return ev.processed
}

func (ev *Event) addWaiter(p *Process) {
	ev.waiters = append(ev.waiters, eventWaiter{proc: p})
}

func (ev *Event) removeWaiter(p *Process) {
	for i, w := range ev.waiters {
		if w.proc == p {
			ev.waiters = append(ev.waiters[:i], ev.waiters[i+1:]...)
			return
		}
	}
}
