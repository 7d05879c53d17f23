package config

import (
	"fmt"

	"github.com/andrescamacho/deliverysim-go/internal/domain/shared"
)

// SimulationConfig holds the virtual-time boundaries of a run. Clock-of-day
// values are "HH:MM:SS" strings converted to seconds after midnight at load
// time via Window().
type SimulationConfig struct {
	// Virtual time at which the run starts and stops
	SimulateFrom  string `mapstructure:"simulate_from" validate:"required,clock"`
	SimulateUntil string `mapstructure:"simulate_until" validate:"required,clock"`

	// Orders fulfilled or canceled before simulate_from + warm_up_time
	// are dropped from the results (seconds)
	WarmUpTime int64 `mapstructure:"warm_up_time" validate:"min=0"`

	// Window within which instance orders spawn users
	CreateUsersFrom  string `mapstructure:"create_users_from" validate:"required,clock"`
	CreateUsersUntil string `mapstructure:"create_users_until" validate:"required,clock"`

	// Window within which instance couriers log on
	CreateCouriersFrom  string `mapstructure:"create_couriers_from" validate:"required,clock"`
	CreateCouriersUntil string `mapstructure:"create_couriers_until" validate:"required,clock"`

	// RNG seed; zero means seed from wall-clock time
	Seed int64 `mapstructure:"seed"`
}

// SimulationWindow is SimulationConfig with every clock string parsed to
// seconds after midnight.
type SimulationWindow struct {
	SimulateFrom  int64
	SimulateUntil int64
	WarmUpEnd     int64

	CreateUsersFrom  int64
	CreateUsersUntil int64

	CreateCouriersFrom  int64
	CreateCouriersUntil int64
}

// Window parses the clock-of-day strings into a SimulationWindow.
func (c SimulationConfig) Window() (SimulationWindow, error) {
	var w SimulationWindow

	fields := []struct {
		name  string
		value string
		dst   *int64
	}{
		{"simulate_from", c.SimulateFrom, &w.SimulateFrom},
		{"simulate_until", c.SimulateUntil, &w.SimulateUntil},
		{"create_users_from", c.CreateUsersFrom, &w.CreateUsersFrom},
		{"create_users_until", c.CreateUsersUntil, &w.CreateUsersUntil},
		{"create_couriers_from", c.CreateCouriersFrom, &w.CreateCouriersFrom},
		{"create_couriers_until", c.CreateCouriersUntil, &w.CreateCouriersUntil},
	}
	for _, f := range fields {
		sec, err := shared.ParseClock(f.value)
		if err != nil {
			return SimulationWindow{}, fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
		*f.dst = sec
	}

	if w.SimulateUntil <= w.SimulateFrom {
		return SimulationWindow{}, fmt.Errorf("simulate_until %q must be after simulate_from %q",
			c.SimulateUntil, c.SimulateFrom)
	}
	w.WarmUpEnd = w.SimulateFrom + c.WarmUpTime

	return w, nil
}
