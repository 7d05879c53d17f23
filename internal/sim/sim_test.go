package sim_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/deliverysim-go/internal/sim"
)

func TestTimeoutAdvancesClock(t *testing.T) {
	env := sim.NewEnvironment(100)

	var resumedAt int64
	env.Process("sleeper", func(p *sim.Process) error {
		if err := p.Timeout(5); err != nil {
			return err
		}
		resumedAt = p.Env().Now()
		return nil
	})

	env.Run(-1)

	assert.Equal(t, int64(105), resumedAt)
	assert.Equal(t, int64(105), env.Now())
}

func TestSameInstantOrdering(t *testing.T) {
	env := sim.NewEnvironment(0)

	var order []string
	env.ScheduleCall(10, sim.PriorityNormal, func() { order = append(order, "first-normal") })
	env.ScheduleCall(10, sim.PriorityNormal, func() { order = append(order, "second-normal") })
	env.ScheduleCall(10, sim.PriorityUrgent, func() { order = append(order, "urgent") })

	env.Run(-1)

	assert.Equal(t, []string{"urgent", "first-normal", "second-normal"}, order)
}

func TestProcessStartsAfterSpawningCallback(t *testing.T) {
	env := sim.NewEnvironment(0)

	var order []string
	env.ScheduleCall(3, sim.PriorityNormal, func() {
		env.Process("child", func(p *sim.Process) error {
			order = append(order, "child")
			return nil
		})
		order = append(order, "spawner")
	})

	env.Run(-1)

	assert.Equal(t, []string{"spawner", "child"}, order)
}

func TestEventSucceedResumesWaiters(t *testing.T) {
	env := sim.NewEnvironment(0)
	ev := env.NewEvent()

	var resumedAt int64
	env.Process("waiter", func(p *sim.Process) error {
		if err := p.Wait(ev); err != nil {
			return err
		}
		resumedAt = p.Env().Now()
		return nil
	})
	env.ScheduleCall(7, sim.PriorityNormal, func() {
		require.NoError(t, ev.Succeed())
	})

	env.Run(-1)

	assert.Equal(t, int64(7), resumedAt)
	assert.True(t, ev.Processed())
	assert.ErrorIs(t, ev.Succeed(), sim.ErrEventScheduled)
}

func TestInterruptDeliversCauseAtCurrentInstant(t *testing.T) {
	env := sim.NewEnvironment(0)

	var (
		interrupted bool
		cause       any
		resumedAt   int64
	)
	target := env.Process("waiter", func(p *sim.Process) error {
		err := p.Timeout(100)
		interrupted = sim.IsInterrupt(err)
		cause = sim.InterruptCause(err)
		resumedAt = p.Env().Now()
		return nil
	})
	env.Process("interrupter", func(p *sim.Process) error {
		if err := p.Timeout(5); err != nil {
			return err
		}
		p.Env().InterruptProcess(target, "new offer")
		return nil
	})

	env.Run(-1)

	assert.True(t, interrupted)
	assert.Equal(t, "new offer", cause)
	assert.Equal(t, int64(5), resumedAt)
}

func TestDuplicateInterruptIsDropped(t *testing.T) {
	env := sim.NewEnvironment(0)

	var (
		interrupts int
		second     error
	)
	target := env.Process("waiter", func(p *sim.Process) error {
		if err := p.Timeout(100); sim.IsInterrupt(err) {
			interrupts++
		}
		second = p.Timeout(10)
		return nil
	})
	env.Process("interrupter", func(p *sim.Process) error {
		if err := p.Timeout(5); err != nil {
			return err
		}
		p.Env().InterruptProcess(target, "a")
		p.Env().InterruptProcess(target, "b")
		return nil
	})

	env.Run(-1)

	assert.Equal(t, 1, interrupts)
	assert.NoError(t, second)
	assert.Equal(t, int64(15), env.Now())
}

func TestInterruptIgnoresFinishedProcess(t *testing.T) {
	env := sim.NewEnvironment(0)
	short := env.Process("short", func(p *sim.Process) error { return nil })

	env.Run(-1)
	env.InterruptProcess(short, "late")

	assert.False(t, short.Alive())
	assert.NoError(t, short.Err())
}

func TestWaitForProcessCompletion(t *testing.T) {
	env := sim.NewEnvironment(0)

	first := env.Process("first", func(p *sim.Process) error {
		return p.Timeout(3)
	})
	var resumedAt int64
	env.Process("second", func(p *sim.Process) error {
		if err := p.Wait(first.Done()); err != nil {
			return err
		}
		resumedAt = p.Env().Now()
		return nil
	})

	env.Run(-1)

	assert.Equal(t, int64(3), resumedAt)
	assert.False(t, first.Alive())
}

func TestRunHonorsHorizon(t *testing.T) {
	env := sim.NewEnvironment(0)

	var fired []int64
	env.ScheduleCall(40, sim.PriorityNormal, func() { fired = append(fired, env.Now()) })
	env.ScheduleCall(100, sim.PriorityNormal, func() { fired = append(fired, env.Now()) })

	env.Run(50)
	require.Equal(t, []int64{40}, fired)
	assert.Equal(t, int64(50), env.Now())

	env.Run(-1)
	assert.Equal(t, []int64{40, 100}, fired)
}

func TestShutdownUnwindsParkedProcesses(t *testing.T) {
	env := sim.NewEnvironment(0)

	var got error
	env.Process("parked", func(p *sim.Process) error {
		got = p.Timeout(1000)
		return got
	})

	env.Run(10)
	env.Shutdown()

	assert.ErrorIs(t, got, sim.ErrShutdown)
}

func TestShutdownFromInsideProcessBody(t *testing.T) {
	env := sim.NewEnvironment(0)

	var parkedErr error
	env.Process("parked", func(p *sim.Process) error {
		parkedErr = p.Timeout(1000)
		return parkedErr
	})
	watchdog := env.Process("watchdog", func(p *sim.Process) error {
		if err := p.Timeout(5); err != nil {
			return err
		}
		p.Env().Shutdown()
		return fmt.Errorf("aborted")
	})

	env.Run(-1)

	assert.ErrorIs(t, parkedErr, sim.ErrShutdown)
	assert.False(t, watchdog.Alive())
	assert.EqualError(t, watchdog.Err(), "aborted")
	assert.Equal(t, int64(5), env.Now())
}

func TestPanicInBodyBecomesProcessError(t *testing.T) {
	env := sim.NewEnvironment(0)

	p := env.Process("bad", func(p *sim.Process) error {
		panic("boom")
	})

	env.Run(-1)

	require.Error(t, p.Err())
	assert.Contains(t, p.Err().Error(), "boom")
	assert.Equal(t, int64(0), env.Now())
}

func TestDeterministicInterleaving(t *testing.T) {
	trace := func(seed int64) []string {
		env := sim.NewEnvironment(0)
		rng := rand.New(rand.NewSource(seed))
		var log []string
		for i := 0; i < 5; i++ {
			name := fmt.Sprintf("proc-%d", i)
			delays := []int64{int64(rng.Intn(20)), int64(rng.Intn(20)), int64(rng.Intn(20))}
			env.Process(name, func(p *sim.Process) error {
				for _, d := range delays {
					if err := p.Timeout(d); err != nil {
						return err
					}
					log = append(log, fmt.Sprintf("%s@%d", name, p.Env().Now()))
				}
				return nil
			})
		}
		env.Run(-1)
		return log
	}

	assert.Equal(t, trace(99), trace(99))
}
