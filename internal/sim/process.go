package sim

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrShutdown resumes parked processes when the environment shuts down.
var ErrShutdown = errors.New("sim: environment shut down")

// Interrupt is delivered to a process that was interrupted while suspended.
// Cause carries whatever the interrupting side passed along.
type Interrupt struct {
	Cause any
}

func (i *Interrupt) Error() string {
	return fmt.Sprintf("interrupted: %v", i.Cause)
}

// IsInterrupt reports whether err is a process interruption.
func IsInterrupt(err error) bool {
	var in *Interrupt
	return errors.As(err, &in)
}

// InterruptCause extracts the cause of an interruption, or nil if err is not
// one.
func InterruptCause(err error) any {
	var in *Interrupt
	if errors.As(err, &in) {
		return in.Cause
	}
	return nil
}

// ProcFunc is the body of a cooperative process. It runs only between the
// scheduler's suspension points; returning ends the process. Interruption
// surfaces as a *Interrupt error from the blocking calls and must be handled
// inside the body — the scheduler never sees it.
type ProcFunc func(*Process) error

// Process is a handle to a running cooperative process.
type Process struct {
	env              *Environment
	name             string
	fn               ProcFunc
	resume           chan error
	target           *Event
	done             *Event
	err              error
	dead             bool
	interruptPending bool
}

// Process starts a cooperative process. Its first slice runs when the
// scheduler reaches the urgent init event planted at the current instant, so
// a process started from inside a callback executes later within the same
// second.
func (e *Environment) Process(name string, fn ProcFunc) *Process {
	p := &Process{
		env:    e,
		name:   name,
		fn:     fn,
		resume: make(chan error),
	}
	p.done = e.NewEvent()
	e.live = append(e.live, p)

	init := e.NewEvent()
	init.addWaiter(p)
	p.target = init
	e.Schedule(init, PriorityUrgent, 0)

	go p.run()
	return p
}

func (p *Process) run() {
	err := <-p.resume
	if err == nil {
		p.target = nil
		err = p.invoke()
	}
	p.terminate(err)
	p.env.parked <- struct{}{}
}

// invoke runs the body, converting a panic into a terminal process error so
// the scheduler handshake is never left hanging.
func (p *Process) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sim: process %q panicked: %v\n%s", p.name, r, debug.Stack())
		}
	}()
	return p.fn(p)
}

func (p *Process) terminate(err error) {
	p.dead = true
	p.err = err
	p.target = nil
	p.env.Schedule(p.done, PriorityNormal, 0)
}

// Env returns the environment the process runs on.
func (p *Process) Env() *Environment {
	return p.env
}

// Name returns the diagnostic name the process was started with.
func (p *Process) Name() string {
	return p.name
}

// Alive reports whether the process body has not yet returned.
func (p *Process) Alive() bool {
	return !p.dead
}

// Err returns the process's terminal error once it has finished.
func (p *Process) Err() error {
	return p.err
}

// Done returns the completion event, processed shortly after the body
// returns. Other processes may Wait on it.
func (p *Process) Done() *Event {
	return p.done
}

// Timeout suspends the process for d simulated seconds. It returns early with
// a *Interrupt error if the process is interrupted while waiting.
func (p *Process) Timeout(d int64) error {
	ev := p.env.NewEvent()
	p.env.Schedule(ev, PriorityNormal, d)
	return p.Wait(ev)
}

// Wait suspends the process until ev is processed. Waiting on an already
// processed event returns immediately. Wait must only be called from within
// the process's own body.
func (p *Process) Wait(ev *Event) error {
	if p.env.current != p {
		panic("sim: Wait called from outside the process body")
	}
	if ev.processed {
		return ev.err
	}
	ev.addWaiter(p)
	p.target = ev
	p.env.parked <- struct{}{}
	err := <-p.resume
	p.target = nil
	return err
}
