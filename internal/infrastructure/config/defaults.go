package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "deliverysim.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "deliverysim"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "deliverysim"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Simulation defaults: a lunch-peak window
	if cfg.Simulation.SimulateFrom == "" {
		cfg.Simulation.SimulateFrom = "11:00:00"
	}
	if cfg.Simulation.SimulateUntil == "" {
		cfg.Simulation.SimulateUntil = "15:00:00"
	}
	if cfg.Simulation.WarmUpTime == 0 {
		cfg.Simulation.WarmUpTime = 1800
	}
	if cfg.Simulation.CreateUsersFrom == "" {
		cfg.Simulation.CreateUsersFrom = cfg.Simulation.SimulateFrom
	}
	if cfg.Simulation.CreateUsersUntil == "" {
		cfg.Simulation.CreateUsersUntil = cfg.Simulation.SimulateUntil
	}
	if cfg.Simulation.CreateCouriersFrom == "" {
		cfg.Simulation.CreateCouriersFrom = cfg.Simulation.SimulateFrom
	}
	if cfg.Simulation.CreateCouriersUntil == "" {
		cfg.Simulation.CreateCouriersUntil = cfg.Simulation.SimulateUntil
	}

	// Courier defaults
	if cfg.Courier.WaitToMove == 0 {
		cfg.Courier.WaitToMove = 60
	}
	if cfg.Courier.MinAcceptanceRate == 0 {
		cfg.Courier.MinAcceptanceRate = 0.4
	}
	if cfg.Courier.MaxAcceptanceRate == 0 {
		cfg.Courier.MaxAcceptanceRate = 1.0
	}
	if cfg.Courier.EarningsPerOrder == 0 {
		cfg.Courier.EarningsPerOrder = 5
	}
	if cfg.Courier.EarningsPerHour == 0 {
		cfg.Courier.EarningsPerHour = 12
	}

	// Dispatcher defaults
	if cfg.Dispatcher.BufferInterval == 0 {
		cfg.Dispatcher.BufferInterval = 60
	}
	if cfg.Dispatcher.ProspectsMaxDistance == 0 {
		cfg.Dispatcher.ProspectsMaxDistance = 4000
	}
	if cfg.Dispatcher.DensityThreshold == 0 {
		cfg.Dispatcher.DensityThreshold = 4
	}
	if cfg.Dispatcher.LimitRadius == 0 {
		cfg.Dispatcher.LimitRadius = 2000
	}
	if cfg.Dispatcher.SubstitutionProbability == 0 {
		cfg.Dispatcher.SubstitutionProbability = 0.5
	}
	if cfg.Dispatcher.PrepositionInterval == 0 {
		cfg.Dispatcher.PrepositionInterval = 600
	}
	if cfg.Dispatcher.PrepositionMinDistance == 0 {
		cfg.Dispatcher.PrepositionMinDistance = 1000
	}
	if cfg.Dispatcher.PrepositionMaxCouriers == 0 {
		cfg.Dispatcher.PrepositionMaxCouriers = 3
	}

	// User defaults
	if cfg.User.CancellationMinWait == 0 {
		cfg.User.CancellationMinWait = 900
	}
	if cfg.User.CancellationMaxWait == 0 {
		cfg.User.CancellationMaxWait = 5400
	}

	// Policy defaults
	if cfg.Policy.Matching == "" {
		cfg.Policy.Matching = "nearest"
	}
	if cfg.Policy.Buffering == "" {
		cfg.Policy.Buffering = "rolling"
	}
	if cfg.Policy.Acceptance == "" {
		cfg.Policy.Acceptance = "absolute"
	}
	if cfg.Policy.AcceptanceMinWait == 0 {
		cfg.Policy.AcceptanceMinWait = 30
	}
	if cfg.Policy.AcceptanceMaxWait == 0 {
		cfg.Policy.AcceptanceMaxWait = 120
	}
	if cfg.Policy.Movement == "" {
		cfg.Policy.Movement = "osrm"
	}
	if cfg.Policy.MovementEvaluation == "" {
		cfg.Policy.MovementEvaluation = "still"
	}
	if cfg.Policy.NeighborsCellSize == 0 {
		cfg.Policy.NeighborsCellSize = 0.005
	}
	if cfg.Policy.UserCancellation == "" {
		cfg.Policy.UserCancellation = "random"
	}
	if cfg.Policy.DispatchCancellation == "" {
		cfg.Policy.DispatchCancellation = "static"
	}
	if cfg.Policy.DemandManagement == "" {
		cfg.Policy.DemandManagement = "none"
	}
	if cfg.Policy.Prepositioning == "" {
		cfg.Policy.Prepositioning = "none"
	}
	if cfg.Policy.PrepositioningEvaluation == "" {
		cfg.Policy.PrepositioningEvaluation = "never"
	}

	// Routing defaults
	if cfg.Routing.Mode == "" {
		cfg.Routing.Mode = "mock"
	}
	if cfg.Routing.BaseURL == "" {
		cfg.Routing.BaseURL = "http://localhost:5000"
	}
	if cfg.Routing.RequestsPerSecond == 0 {
		cfg.Routing.RequestsPerSecond = 10
	}
	if cfg.Routing.Retry.MaxAttempts == 0 {
		cfg.Routing.Retry.MaxAttempts = 3
	}
	if cfg.Routing.Retry.BackoffBase == 0 {
		cfg.Routing.Retry.BackoffBase = 500 * time.Millisecond
	}
	if cfg.Routing.Cache.MaxRoutes == 0 {
		cfg.Routing.Cache.MaxRoutes = 4096
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
