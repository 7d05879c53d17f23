// Package sim implements the virtual-time scheduler the simulation runs on.
//
// The environment advances an integer clock of simulated seconds over a
// priority queue of events. Actor behaviour is written as cooperative
// processes: plain functions that suspend on Timeout or Wait and may be
// interrupted by other processes. A strict baton handshake guarantees that at
// any instant either the scheduler or exactly one process goroutine runs, so
// event handlers and actor code never race and a run is deterministic for a
// fixed seed and input.
package sim

import "container/heap"

// Priority orders events that share a timestamp. Urgent events drain before
// normal ones; remaining ties resolve in insertion (FIFO) order.
type Priority int

const (
	PriorityUrgent Priority = iota
	PriorityNormal
)

// Environment is a single-threaded virtual-time event scheduler.
type Environment struct {
	now     int64
	queue   eventQueue
	seq     int64
	current *Process
	parked  chan struct{}
	live    []*Process
	running bool
}

// NewEnvironment creates a scheduler whose clock starts at start simulated
// seconds.
func NewEnvironment(start int64) *Environment {
	return &Environment{
		now:    start,
		parked: make(chan struct{}),
	}
}

// Now returns the current simulated second.
func (e *Environment) Now() int64 {
	return e.now
}

// Schedule inserts ev at now+delay. Scheduling an already scheduled event is
// a no-op.
func (e *Environment) Schedule(ev *Event, pri Priority, delay int64) {
	if ev.scheduled {
		return
	}
	if delay < 0 {
		delay = 0
	}
	ev.scheduled = true
	e.seq++
	heap.Push(&e.queue, &queueItem{
		time:     e.now + delay,
		priority: pri,
		seq:      e.seq,
		event:    ev,
	})
}

// ScheduleCall arranges for fn to run after delay simulated seconds and
// returns the underlying timer event.
func (e *Environment) ScheduleCall(delay int64, pri Priority, fn func()) *Event {
	ev := e.NewEvent()
	ev.OnProcessed(func(*Event) { fn() })
	e.Schedule(ev, pri, delay)
	return ev
}

// Run drains the queue in timestamp order. With until >= 0 it stops before
// the first event past the horizon and leaves the clock at until, so a later
// Run continues from there; a negative until runs to exhaustion. Run may be
// called again after it returns but must not be re-entered.
func (e *Environment) Run(until int64) {
	if e.running {
		panic("sim: environment is already running")
	}
	e.running = true
	defer func() { e.running = false }()

	for e.queue.Len() > 0 {
		next := e.queue[0]
		if until >= 0 && next.time > until {
			break
		}
		heap.Pop(&e.queue)
		e.now = next.time
		e.processEvent(next.event)
	}
	if until >= 0 && e.now < until {
		e.now = until
	}
}

// InterruptProcess delivers an interruption to p at the current instant: the
// blocking call p is suspended in returns a *Interrupt carrying cause.
// Interruptions are level-triggered — a second interrupt before the first is
// delivered is dropped, as are interrupts aimed at the running process or at
// a finished one.
func (e *Environment) InterruptProcess(p *Process, cause any) {
	if p == nil || p.dead || p == e.current || p.interruptPending {
		return
	}
	p.interruptPending = true
	if p.target != nil {
		p.target.removeWaiter(p)
	}
	iev := e.NewEvent()
	iev.err = &Interrupt{Cause: cause}
	iev.addWaiter(p)
	p.target = iev
	e.Schedule(iev, PriorityUrgent, 0)
}

// Shutdown unwinds every process still suspended by resuming it with
// ErrShutdown. Process bodies propagate non-interrupt errors immediately, so
// no further domain state changes once this starts. Shutdown may be called
// from inside a process body: the calling process is skipped — it holds the
// baton and must return on its own right after.
func (e *Environment) Shutdown() {
	self := e.current
	for {
		p := e.nextLive(self)
		if p == nil {
			break
		}
		e.dispatch(p, ErrShutdown)
	}
	e.current = self
}

func (e *Environment) nextLive(skip *Process) *Process {
	for _, p := range e.live {
		if !p.dead && p != skip {
			return p
		}
	}
	return nil
}

// processEvent resumes the event's waiters, then plain callbacks, in
// registration order.
func (e *Environment) processEvent(ev *Event) {
	ev.processed = true
	ws := ev.waiters
	ev.waiters = nil
	for _, w := range ws {
		if w.proc != nil {
			e.dispatch(w.proc, ev.err)
			continue
		}
		w.fn(ev)
	}
}

// dispatch hands the baton to p and blocks until p parks at its next
// suspension point or terminates.
func (e *Environment) dispatch(p *Process, err error) {
	if p.dead {
		return
	}
	if err != nil {
		p.interruptPending = false
	}
	e.current = p
	p.resume <- err
	<-e.parked
	e.current = nil
}

type queueItem struct {
	time     int64
	priority Priority
	seq      int64
	event    *Event
}

type eventQueue []*queueItem

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*queueItem)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}
