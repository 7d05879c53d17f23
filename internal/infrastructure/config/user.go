package config

// UserConfig holds behaviour shared by every simulated user
type UserConfig struct {
	// Patience window for the random cancellation policy: an unserved
	// order is canceled after a wait drawn uniformly from [min, max]
	// seconds
	CancellationMinWait int64 `mapstructure:"cancellation_min_wait" validate:"min=0"`
	CancellationMaxWait int64 `mapstructure:"cancellation_max_wait" validate:"min=0,gtefield=CancellationMinWait"`
}
