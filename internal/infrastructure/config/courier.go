package config

// CourierConfig holds behaviour shared by every simulated courier
type CourierConfig struct {
	// Seconds an idle courier waits before consulting its movement
	// evaluator again
	WaitToMove int64 `mapstructure:"wait_to_move" validate:"min=1"`

	// Acceptance rate drawn uniformly from [min, max] per courier
	MinAcceptanceRate float64 `mapstructure:"min_acceptance_rate" validate:"min=0,max=1"`
	MaxAcceptanceRate float64 `mapstructure:"max_acceptance_rate" validate:"min=0,max=1,gtefield=MinAcceptanceRate"`

	// Compensation scheme: per delivered order versus the hourly guarantee
	EarningsPerOrder float64 `mapstructure:"earnings_per_order" validate:"min=0"`
	EarningsPerHour  float64 `mapstructure:"earnings_per_hour" validate:"min=0"`
}
