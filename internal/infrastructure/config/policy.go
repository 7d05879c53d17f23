package config

// PolicyConfig selects the pluggable behaviour of a run. Each selector names
// a registered policy; the world wires unsupported names to an error before
// the run starts.
type PolicyConfig struct {
	// Order-to-courier matching: nearest (haversine) or greedy (routing
	// estimates)
	Matching string `mapstructure:"matching" validate:"required,oneof=nearest greedy"`

	// Order buffering between matching rounds
	Buffering string `mapstructure:"buffering" validate:"required,oneof=rolling"`

	// Courier offer acceptance: absolute decides immediately, uniform
	// waits a random span first
	Acceptance        string `mapstructure:"acceptance" validate:"required,oneof=absolute uniform"`
	AcceptanceMinWait int64  `mapstructure:"acceptance_min_wait" validate:"min=0"`
	AcceptanceMaxWait int64  `mapstructure:"acceptance_max_wait" validate:"min=0,gtefield=AcceptanceMinWait"`

	// Courier movement: osrm uses constant vehicle speed, osrm_dynamic
	// applies hour-of-day speed coefficients
	Movement string `mapstructure:"movement" validate:"required,oneof=osrm osrm_dynamic"`

	// Idle courier repositioning: still stays put, neighbors wanders to
	// an adjacent grid cell
	MovementEvaluation string  `mapstructure:"movement_evaluation" validate:"required,oneof=still neighbors"`
	NeighborsCellSize  float64 `mapstructure:"neighbors_cell_size" validate:"min=0"`

	// User-initiated cancellation of unserved orders
	UserCancellation string `mapstructure:"user_cancellation" validate:"required,oneof=never random"`

	// Dispatcher-side cancellation admissibility
	DispatchCancellation string `mapstructure:"dispatch_cancellation" validate:"required,oneof=static"`

	// Demand management applied to incoming orders
	DemandManagement string `mapstructure:"demand_management" validate:"required,oneof=none radius"`

	// Idle courier prepositioning towards demand hotspots, and when to
	// evaluate it
	Prepositioning           string `mapstructure:"prepositioning" validate:"required,oneof=none hotspot"`
	PrepositioningEvaluation string `mapstructure:"prepositioning_evaluation" validate:"required,oneof=never periodic"`
}
