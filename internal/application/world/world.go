package world

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/deliverysim-go/internal/domain/courier"
	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/dispatch"
	"github.com/andrescamacho/deliverysim-go/internal/domain/routing"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
	"github.com/andrescamacho/deliverysim-go/internal/domain/user"
	"github.com/andrescamacho/deliverysim-go/internal/infrastructure/config"
	"github.com/andrescamacho/deliverysim-go/internal/sim"
)

// progressInterval is the cadence of the world's progress log line, in
// simulated seconds.
const progressInterval = 60

// InstanceSource feeds the world its per-tick order and courier arrivals.
type InstanceSource interface {
	OrdersPlacedAt(ctx context.Context, instanceID int, t int64) []persistence.OrderInstance
	CouriersLoggingOnAt(ctx context.Context, instanceID int, t int64) []persistence.CourierInstance
}

// ResultsSink persists the finished run.
type ResultsSink interface {
	SaveRun(ctx context.Context, record persistence.RunRecord) error
}

// ShiftObserver receives per-courier shift metrics after the run.
type ShiftObserver interface {
	ObserveCourierShift(utilizationRatio, earnings float64)
}

// Params wires a World. Results, Recorder and Shifts are optional.
type Params struct {
	Config     *config.Config
	InstanceID int

	Instances InstanceSource
	Results   ResultsSink
	Routing   routing.Client

	Recorder dispatch.Recorder
	Shifts   ShiftObserver

	Logger logrus.FieldLogger
}

// World drives one simulation run: it advances the virtual clock, spawns
// users and couriers from instance data, and collects the results.
type World struct {
	ctx context.Context
	env *sim.Environment
	cfg *config.Config
	log logrus.FieldLogger
	rng *rand.Rand

	runID      string
	instanceID int
	seed       int64
	window     config.SimulationWindow

	instances InstanceSource
	results   ResultsSink
	client    routing.Client
	recorder  dispatch.Recorder
	shifts    ShiftObserver

	policies   *policySet
	dispatcher *dispatch.Dispatcher

	users      []*user.User
	couriers   []*courier.Courier
	lostOrders []*delivery.Order

	ordersPlaced int
	integrityErr error
}

// New builds the world and its dispatcher. The simulation does not advance
// until Run is called.
func New(ctx context.Context, p Params) (*World, error) {
	window, err := p.Config.Simulation.Window()
	if err != nil {
		return nil, err
	}

	seed := p.Config.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	policies, err := buildPolicies(p.Config, p.Routing)
	if err != nil {
		return nil, err
	}

	w := &World{
		ctx:        ctx,
		env:        sim.NewEnvironment(window.SimulateFrom),
		cfg:        p.Config,
		rng:        rand.New(rand.NewSource(seed)),
		runID:      uuid.NewString(),
		instanceID: p.InstanceID,
		seed:       seed,
		window:     window,
		instances:  p.Instances,
		results:    p.Results,
		client:     p.Routing,
		recorder:   p.Recorder,
		shifts:     p.Shifts,
		policies:   policies,
	}
	w.log = p.Logger.WithFields(logrus.Fields{
		"run_id":   w.runID,
		"instance": p.InstanceID,
	})

	w.dispatcher = dispatch.New(ctx, w.env, dispatch.Config{
		Buffering:                policies.buffering,
		Matching:                 policies.matching,
		Cancellation:             policies.cancellation,
		Prepositioning:           policies.prepositioning,
		PrepositioningEvaluation: policies.prepoEvaluation,
		DemandManagement:         policies.demandManagement,
		DensityThreshold:         p.Config.Dispatcher.DensityThreshold,
		LimitRadius:              p.Config.Dispatcher.LimitRadius,
		Recorder:                 p.Recorder,
		Logger:                   p.Logger,
	})

	w.env.Process("world-ticker", w.tick)
	return w, nil
}

// Run advances the simulation to simulate_until, settles open shifts,
// filters the warm-up window and persists the results.
func (w *World) Run() (*RunReport, error) {
	started := time.Now()
	w.log.WithFields(logrus.Fields{
		"from": shared.FormatClock(w.window.SimulateFrom),
		"to":   shared.FormatClock(w.window.SimulateUntil),
		"seed": w.seed,
	}).Info("simulation starting")

	w.env.Run(w.window.SimulateUntil)

	if w.integrityErr != nil {
		return nil, fmt.Errorf("failed integrity check: %w", w.integrityErr)
	}

	w.settleShifts()
	w.dispatcher.DropWarmUpWindow(w.window.WarmUpEnd)
	w.dropWarmUpLostOrders()
	w.observeShifts()

	report := w.buildReport(started, time.Now())

	if w.results != nil {
		if err := w.results.SaveRun(w.ctx, w.buildRecord(report)); err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
	}

	w.log.WithFields(logrus.Fields{
		"placed":    report.OrdersPlaced,
		"fulfilled": report.OrdersFulfilled,
		"canceled":  report.OrdersCanceled,
		"lost":      report.OrdersLost,
	}).Info("simulation finished")
	return report, nil
}

// tick is the world's per-second loop: arrivals first, then the integrity
// check, then the progress line.
func (w *World) tick(p *sim.Process) error {
	for {
		t := w.env.Now()
		if t >= w.window.SimulateUntil {
			return nil
		}

		if t >= w.window.CreateUsersFrom && t < w.window.CreateUsersUntil {
			w.spawnOrders(t)
		}
		if t >= w.window.CreateCouriersFrom && t < w.window.CreateCouriersUntil {
			w.spawnCouriers(t)
		}

		if w.cfg.Dispatcher.IntegrityChecks {
			if err := w.dispatcher.VerifyIntegrity(); err != nil {
				w.integrityErr = err
				w.log.WithError(err).Error("aborting run")
				w.env.Shutdown()
				return err
			}
		}

		if t%progressInterval == 0 {
			w.logProgress(t)
		}

		if err := p.Timeout(1); err != nil {
			return err
		}
	}
}

// spawnOrders runs the admission flow for every order placed at t. A
// rejected order with an alternate pick-up location is re-submitted from
// there with probability substitution_probability — the substituted order is
// not screened a second time; orders rejected for good are recorded as lost
// and never reach the dispatcher.
func (w *World) spawnOrders(t int64) {
	for _, row := range w.instances.OrdersPlacedAt(w.ctx, w.instanceID, t) {
		params := row.Params
		u := user.New(w.env, w.dispatcher, w.policies.userCancellation, params.UserID, w.rng, w.log)
		w.users = append(w.users, u)

		admitted := w.dispatcher.EvaluateDemandManagement(params.PickUpAt, params.DropOffAt)
		if !admitted && row.HasAlternatePickUp() && w.rng.Float64() < w.cfg.Dispatcher.SubstitutionProbability {
			params.PickUpAt = row.AlternatePickUpAt
			admitted = true
		}

		if !admitted {
			w.lostOrders = append(w.lostOrders, u.SaveLostOrder(params))
			if w.recorder != nil {
				w.recorder.OrderLost()
			}
			continue
		}

		u.SubmitOrder(params)
		w.ordersPlaced++
	}
}

func (w *World) spawnCouriers(t int64) {
	cfg := w.cfg.Courier
	for _, row := range w.instances.CouriersLoggingOnAt(w.ctx, w.instanceID, t) {
		rate := cfg.MinAcceptanceRate + w.rng.Float64()*(cfg.MaxAcceptanceRate-cfg.MinAcceptanceRate)
		c := courier.New(courier.Params{
			Env:                w.env,
			Dispatcher:         w.dispatcher,
			Acceptance:         w.policies.acceptance,
			Movement:           w.policies.movement,
			MovementEvaluation: w.policies.moveEval,

			ID:             row.CourierID,
			Vehicle:        row.Vehicle,
			Location:       row.OnLocation,
			OnTime:         row.OnTime,
			OffTime:        row.OffTime,
			AcceptanceRate: rate,
			WaitToMove:     cfg.WaitToMove,

			EarningsPerOrder: decimal.NewFromFloat(cfg.EarningsPerOrder),
			EarningsPerHour:  decimal.NewFromFloat(cfg.EarningsPerHour),

			RNG:    w.rng,
			Logger: w.log,
		})
		w.couriers = append(w.couriers, c)
	}
}

// settleShifts logs off couriers still on shift when the clock stops, so
// every shift has an end and utilization is well defined.
func (w *World) settleShifts() {
	end := w.env.Now()
	forced := false
	for _, c := range w.couriers {
		if c.Condition() == courier.ConditionLoggedOff {
			continue
		}
		c.SetOffTime(end)
		c.LogOff()
		forced = true
	}
	if forced {
		// Drain the log-off interrupts scheduled at the current instant.
		w.env.Run(end)
	}
}

func (w *World) dropWarmUpLostOrders() {
	kept := w.lostOrders[:0]
	for _, o := range w.lostOrders {
		if o.PlacementTime() >= w.window.WarmUpEnd {
			kept = append(kept, o)
		}
	}
	w.lostOrders = kept
}

func (w *World) observeShifts() {
	if w.shifts == nil {
		return
	}
	for _, c := range w.couriers {
		m := c.Metrics()
		w.shifts.ObserveCourierShift(m.Utilization, m.Earnings.InexactFloat64())
	}
}

func (w *World) logProgress(t int64) {
	counts := w.dispatcher.Counts()
	w.log.WithFields(logrus.Fields{
		"sim_time":   shared.FormatClock(t),
		"unassigned": counts.Unassigned,
		"scheduled":  counts.Scheduled,
		"picking_up": counts.PickingUp,
		"fulfilled":  counts.Fulfilled,
		"canceled":   counts.Canceled,
		"lost":       len(w.lostOrders),
		"idle":       counts.Idle,
		"moving":     counts.Moving,
		"busy":       counts.Busy,
		"logged_off": counts.LoggedOff,
	}).Info("progress")
}

// Env exposes the simulation clock, mainly for tests.
func (w *World) Env() *sim.Environment { return w.env }

// Dispatcher exposes the run's dispatcher, mainly for tests.
func (w *World) Dispatcher() *dispatch.Dispatcher { return w.dispatcher }

// Couriers returns every courier spawned during the run.
func (w *World) Couriers() []*courier.Courier { return w.couriers }

// LostOrders returns the admission-rejected orders outside the warm-up
// window.
func (w *World) LostOrders() []*delivery.Order { return w.lostOrders }
