package config

// DispatcherConfig holds matching and demand-management tuning
type DispatcherConfig struct {
	// Seconds between matching rounds (rolling buffering policy)
	BufferInterval int64 `mapstructure:"buffer_interval" validate:"min=1"`

	// Maximum courier-to-pick-up distance considered by matching (meters)
	ProspectsMaxDistance float64 `mapstructure:"prospects_max_distance" validate:"min=0"`

	// Radius demand management: restrict to limit_radius while
	// unassigned orders >= density_threshold * idle couriers
	DensityThreshold float64 `mapstructure:"density_threshold" validate:"min=0"`
	LimitRadius      float64 `mapstructure:"limit_radius" validate:"min=0"`

	// Probability that a radius-rejected order is retried from its
	// alternate pick-up location
	SubstitutionProbability float64 `mapstructure:"substitution_probability" validate:"min=0,max=1"`

	// Run registry integrity verification every tick and abort on failure
	IntegrityChecks bool `mapstructure:"integrity_checks"`

	// Prepositioning: relocate up to max_couriers idle couriers that sit
	// further than min_distance from the recent-pick-up hotspot, evaluated
	// every interval seconds
	PrepositionInterval    int64   `mapstructure:"preposition_interval" validate:"min=1"`
	PrepositionMinDistance float64 `mapstructure:"preposition_min_distance" validate:"min=0"`
	PrepositionMaxCouriers int     `mapstructure:"preposition_max_couriers" validate:"min=1"`
}
