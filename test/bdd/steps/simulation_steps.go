package steps

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/deliverysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/deliverysim-go/internal/adapters/routing"
	"github.com/andrescamacho/deliverysim-go/internal/application/world"
	"github.com/andrescamacho/deliverysim-go/internal/domain/courier"
	"github.com/andrescamacho/deliverysim-go/internal/domain/delivery"
	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
	"github.com/andrescamacho/deliverysim-go/internal/infrastructure/config"
	"github.com/andrescamacho/deliverysim-go/test/helpers"
)

const scenarioInstanceID = 1

type courierSpec struct {
	id       int64
	vehicle  shared.Vehicle
	location shared.Location
	onTime   int64
	offTime  int64
}

type orderSpec struct {
	id        int64
	placed    int64
	ready     int64
	pickUp    shared.Location
	dropOff   shared.Location
	alternate shared.Location
}

type simulationContext struct {
	fromSec  int64
	untilSec int64
	warmUp   int64
	seed     int64

	rejectAll       bool
	cancelAfter     int64
	dynamicMovement bool
	limitRadius     float64
	substitution    float64

	couriers []courierSpec
	orders   []orderSpec

	lastWorld  *world.World
	lastReport *world.RunReport
	durations  []int64
}

func (sc *simulationContext) reset() {
	*sc = simulationContext{warmUp: 1, substitution: -1}
}

// staticInstanceSource replays the scenario tables, shifted by offset
// seconds.
type staticInstanceSource struct {
	spec   *simulationContext
	offset int64
}

func (s *staticInstanceSource) OrdersPlacedAt(_ context.Context, _ int, t int64) []persistence.OrderInstance {
	var rows []persistence.OrderInstance
	for _, o := range s.spec.orders {
		if o.placed+s.offset != t {
			continue
		}
		rows = append(rows, persistence.OrderInstance{
			Params: delivery.OrderParams{
				ID:                 o.id,
				UserID:             o.id,
				PickUpAt:           o.pickUp,
				DropOffAt:          o.dropOff,
				PlacementTime:      o.placed + s.offset,
				ReadyTime:          o.ready + s.offset,
				PickUpServiceTime:  120,
				DropOffServiceTime: 60,
			},
			AlternatePickUpAt: o.alternate,
		})
	}
	return rows
}

func (s *staticInstanceSource) CouriersLoggingOnAt(_ context.Context, _ int, t int64) []persistence.CourierInstance {
	var rows []persistence.CourierInstance
	for _, c := range s.spec.couriers {
		if c.onTime+s.offset != t {
			continue
		}
		rows = append(rows, persistence.CourierInstance{
			CourierID:  c.id,
			Vehicle:    c.vehicle,
			OnLocation: c.location,
			OnTime:     c.onTime + s.offset,
			OffTime:    c.offTime + s.offset,
		})
	}
	return rows
}

// --- givens -----------------------------------------------------------------

func (sc *simulationContext) aSimulationWindow(from, until string, seed int64) error {
	var err error
	if sc.fromSec, err = shared.ParseClock(from); err != nil {
		return err
	}
	if sc.untilSec, err = shared.ParseClock(until); err != nil {
		return err
	}
	sc.seed = seed
	return nil
}

func (sc *simulationContext) couriersRejectEveryOffer() error {
	sc.rejectAll = true
	return nil
}

func (sc *simulationContext) usersCancelAfter(seconds int64) error {
	sc.cancelAfter = seconds
	return nil
}

func (sc *simulationContext) speedCoefficientApplied() error {
	sc.dynamicMovement = true
	return nil
}

func (sc *simulationContext) admissionLimitedTo(radius float64) error {
	sc.limitRadius = radius
	return nil
}

func (sc *simulationContext) rejectedOrdersRetried() error {
	sc.substitution = 1
	return nil
}

func (sc *simulationContext) rejectedOrdersNeverRetried() error {
	sc.substitution = 0
	return nil
}

func (sc *simulationContext) warmUpLasts(minutes int64) error {
	sc.warmUp = minutes * 60
	return nil
}

func (sc *simulationContext) courierTable(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		id, err := strconv.ParseInt(row.Cells[0].Value, 10, 64)
		if err != nil {
			return err
		}
		vehicle, err := shared.ParseVehicle(row.Cells[1].Value)
		if err != nil {
			return err
		}
		location, err := parseLocation(row.Cells[2].Value)
		if err != nil {
			return err
		}
		onTime, err := shared.ParseClock(row.Cells[3].Value)
		if err != nil {
			return err
		}
		offTime, err := shared.ParseClock(row.Cells[4].Value)
		if err != nil {
			return err
		}
		sc.couriers = append(sc.couriers, courierSpec{
			id: id, vehicle: vehicle, location: location, onTime: onTime, offTime: offTime,
		})
	}
	return nil
}

func (sc *simulationContext) orderTable(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		id, err := strconv.ParseInt(row.Cells[0].Value, 10, 64)
		if err != nil {
			return err
		}
		placed, err := shared.ParseClock(row.Cells[1].Value)
		if err != nil {
			return err
		}
		pickUp, err := parseLocation(row.Cells[2].Value)
		if err != nil {
			return err
		}
		dropOff, err := parseLocation(row.Cells[3].Value)
		if err != nil {
			return err
		}
		ready, err := shared.ParseClock(row.Cells[4].Value)
		if err != nil {
			return err
		}
		spec := orderSpec{id: id, placed: placed, ready: ready, pickUp: pickUp, dropOff: dropOff}
		if len(row.Cells) > 5 && row.Cells[5].Value != "" {
			if spec.alternate, err = parseLocation(row.Cells[5].Value); err != nil {
				return err
			}
		}
		sc.orders = append(sc.orders, spec)
	}
	return nil
}

// --- whens ------------------------------------------------------------------

func (sc *simulationContext) theSimulationRuns() error {
	return sc.runShifted(0)
}

func (sc *simulationContext) identicalRunTenHoursLater() error {
	return sc.runShifted(10 * 3600)
}

func (sc *simulationContext) runShifted(offset int64) error {
	cfg := sc.buildConfig(offset)

	w, err := world.New(context.Background(), world.Params{
		Config:     cfg,
		InstanceID: scenarioInstanceID,
		Instances:  &staticInstanceSource{spec: sc, offset: offset},
		Routing:    routing.NewMockClient(),
		Logger:     helpers.QuietLogger(),
	})
	if err != nil {
		return err
	}

	report, err := w.Run()
	if err != nil {
		return err
	}
	sc.lastWorld = w
	sc.lastReport = report

	// Record the approach span of the first order when it was fulfilled, so
	// runs at different hours can be compared.
	if o, ok := w.Dispatcher().FulfilledOrders()[sc.orders[0].id]; ok {
		sc.durations = append(sc.durations, o.InStoreTime()-o.AcceptanceTime())
	}
	return nil
}

func (sc *simulationContext) buildConfig(offset int64) *config.Config {
	cfg := &config.Config{}
	cfg.Simulation.SimulateFrom = shared.FormatClock(sc.fromSec + offset)
	cfg.Simulation.SimulateUntil = shared.FormatClock(sc.untilSec + offset)
	cfg.Simulation.WarmUpTime = sc.warmUp
	cfg.Simulation.Seed = sc.seed
	cfg.Courier.MinAcceptanceRate = 1
	cfg.Courier.MaxAcceptanceRate = 1
	cfg.Dispatcher.IntegrityChecks = true
	config.SetDefaults(cfg)

	cfg.Policy.UserCancellation = "never"
	if sc.cancelAfter > 0 {
		cfg.Policy.UserCancellation = "random"
		cfg.User.CancellationMinWait = sc.cancelAfter
		cfg.User.CancellationMaxWait = sc.cancelAfter
	}
	if sc.rejectAll {
		cfg.Courier.MinAcceptanceRate = 0
		cfg.Courier.MaxAcceptanceRate = 0
	}
	if sc.dynamicMovement {
		cfg.Policy.Movement = "osrm_dynamic"
	}
	if sc.limitRadius > 0 {
		cfg.Policy.DemandManagement = "radius"
		cfg.Dispatcher.LimitRadius = sc.limitRadius
		cfg.Dispatcher.DensityThreshold = 0
	}
	if sc.substitution >= 0 {
		cfg.Dispatcher.SubstitutionProbability = sc.substitution
	}
	return cfg
}

// --- thens ------------------------------------------------------------------

func (sc *simulationContext) orderDroppedOff(id int64) error {
	if _, ok := sc.lastWorld.Dispatcher().FulfilledOrders()[id]; !ok {
		return fmt.Errorf("order %d was not dropped off", id)
	}
	return nil
}

func (sc *simulationContext) orderCanceled(id int64) error {
	if _, ok := sc.lastWorld.Dispatcher().CanceledOrders()[id]; !ok {
		return fmt.Errorf("order %d was not canceled", id)
	}
	return nil
}

func (sc *simulationContext) orderLost(id int64) error {
	for _, o := range sc.lastWorld.LostOrders() {
		if o.ID() == id {
			return nil
		}
	}
	return fmt.Errorf("order %d is not among the lost orders", id)
}

func (sc *simulationContext) orderNeverReachedDispatcher(id int64) error {
	d := sc.lastWorld.Dispatcher()
	if _, ok := d.FulfilledOrders()[id]; ok {
		return fmt.Errorf("order %d was fulfilled", id)
	}
	if _, ok := d.CanceledOrders()[id]; ok {
		return fmt.Errorf("order %d was canceled by the dispatcher", id)
	}
	if _, ok := d.UnassignedOrders()[id]; ok {
		return fmt.Errorf("order %d sits in the unassigned registry", id)
	}
	counts := d.Counts()
	if counts.Scheduled != 0 || counts.PickingUp != 0 {
		return fmt.Errorf("dispatcher still holds in-flight orders: %+v", counts)
	}
	return nil
}

func (sc *simulationContext) findCourier(id int64) (*courier.Courier, error) {
	for _, c := range sc.lastWorld.Couriers() {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("courier %d never logged on", id)
}

func (sc *simulationContext) courierFulfilled(id int64, n int) error {
	c, err := sc.findCourier(id)
	if err != nil {
		return err
	}
	if got := len(c.FulfilledOrders()); got != n {
		return fmt.Errorf("courier %d fulfilled %d orders, want %d", id, got, n)
	}
	return nil
}

func (sc *simulationContext) courierBusyFromAcceptanceToDropOff(id int64) error {
	c, err := sc.findCourier(id)
	if err != nil {
		return err
	}
	o, ok := sc.lastWorld.Dispatcher().FulfilledOrders()[sc.orders[0].id]
	if !ok {
		return fmt.Errorf("order %d was not fulfilled", sc.orders[0].id)
	}
	want := o.DropOffTime() - o.AcceptanceTime()
	if c.UtilizationTime() != want {
		return fmt.Errorf("courier %d utilization is %ds, want %ds", id, c.UtilizationTime(), want)
	}
	return nil
}

func (sc *simulationContext) droppedOffAfterScheduledOffTime(id int64) error {
	o, ok := sc.lastWorld.Dispatcher().FulfilledOrders()[id]
	if !ok {
		return fmt.Errorf("order %d was not fulfilled", id)
	}
	c, err := sc.findCourier(o.CourierID())
	if err != nil {
		return err
	}
	if o.DropOffTime() <= c.OffTime() {
		return fmt.Errorf("drop-off at %d does not trail the off time %d", o.DropOffTime(), c.OffTime())
	}
	return nil
}

func (sc *simulationContext) courierEndsLoggedOff(id int64) error {
	c, err := sc.findCourier(id)
	if err != nil {
		return err
	}
	if c.Condition() != courier.ConditionLoggedOff {
		return fmt.Errorf("courier %d ends in condition %q", id, c.Condition())
	}
	return nil
}

func (sc *simulationContext) pickedUpAtAlternate(id int64) error {
	o, ok := sc.lastWorld.Dispatcher().FulfilledOrders()[id]
	if !ok {
		return fmt.Errorf("order %d was not fulfilled", id)
	}
	want := sc.orders[0].alternate
	if o.PickUpAt() != want {
		return fmt.Errorf("order %d was picked up at %+v, want the alternate %+v", id, o.PickUpAt(), want)
	}
	return nil
}

func (sc *simulationContext) reportCounts(fulfilled, placed int) error {
	if sc.lastReport.OrdersFulfilled != fulfilled {
		return fmt.Errorf("report counts %d fulfilled, want %d", sc.lastReport.OrdersFulfilled, fulfilled)
	}
	if sc.lastReport.OrdersPlaced != placed {
		return fmt.Errorf("report counts %d placed, want %d", sc.lastReport.OrdersPlaced, placed)
	}
	return nil
}

func (sc *simulationContext) middayTakesAboutTimes(factor float64) error {
	if len(sc.durations) != 2 {
		return fmt.Errorf("want two measured runs, have %d", len(sc.durations))
	}
	ratio := float64(sc.durations[0]) / float64(sc.durations[1])
	if math.Abs(ratio-factor) > 0.05 {
		return fmt.Errorf("duration ratio is %.3f, want about %.2f", ratio, factor)
	}
	return nil
}

func parseLocation(s string) (shared.Location, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return shared.Location{}, fmt.Errorf("invalid location %q: want lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return shared.Location{}, fmt.Errorf("invalid latitude in %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return shared.Location{}, fmt.Errorf("invalid longitude in %q", s)
	}
	return shared.Location{Lat: lat, Lng: lng}, nil
}

// InitializeSimulationScenario registers the simulation feature steps.
func InitializeSimulationScenario(ctx *godog.ScenarioContext) {
	sc := &simulationContext{}
	sc.reset()

	ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
		sc.reset()
		return c, nil
	})

	ctx.Step(`^a simulation from "([^"]+)" to "([^"]+)" with seed (\d+)$`, sc.aSimulationWindow)
	ctx.Step(`^couriers reject every offer$`, sc.couriersRejectEveryOffer)
	ctx.Step(`^users cancel unserved orders after (\d+) seconds$`, sc.usersCancelAfter)
	ctx.Step(`^the time-of-day speed coefficient is applied$`, sc.speedCoefficientApplied)
	ctx.Step(`^admission is limited to a radius of (\d+) meters$`, sc.admissionLimitedTo)
	ctx.Step(`^rejected orders are retried from their alternate pick-up$`, sc.rejectedOrdersRetried)
	ctx.Step(`^rejected orders are never retried$`, sc.rejectedOrdersNeverRetried)
	ctx.Step(`^the warm-up period lasts (\d+) minutes$`, sc.warmUpLasts)
	ctx.Step(`^a courier on shift:$`, sc.courierTable)
	ctx.Step(`^these orders are placed:$`, sc.orderTable)

	ctx.Step(`^the simulation runs$`, sc.theSimulationRuns)
	ctx.Step(`^an identical simulation runs ten hours later$`, sc.identicalRunTenHoursLater)

	ctx.Step(`^order (\d+) should be dropped off$`, sc.orderDroppedOff)
	ctx.Step(`^order (\d+) should be canceled$`, sc.orderCanceled)
	ctx.Step(`^order (\d+) should be lost$`, sc.orderLost)
	ctx.Step(`^order (\d+) should never reach the dispatcher$`, sc.orderNeverReachedDispatcher)
	ctx.Step(`^courier (\d+) should have fulfilled (\d+) orders?$`, sc.courierFulfilled)
	ctx.Step(`^courier (\d+) should be busy from acceptance to drop-off$`, sc.courierBusyFromAcceptanceToDropOff)
	ctx.Step(`^order (\d+) should be dropped off after the courier's scheduled off time$`, sc.droppedOffAfterScheduledOffTime)
	ctx.Step(`^courier (\d+) should end the run logged off$`, sc.courierEndsLoggedOff)
	ctx.Step(`^order (\d+) should have been picked up at its alternate location$`, sc.pickedUpAtAlternate)
	ctx.Step(`^the report should count (\d+) fulfilled out of (\d+) placed orders$`, sc.reportCounts)
	ctx.Step(`^the midday approach should take about (\d+\.\d+) times the late-night approach$`, sc.middayTakesAboutTimes)
}
