package config

import "time"

// RoutingConfig holds routing client configuration
type RoutingConfig struct {
	// Client mode: "osrm" talks to a real OSRM server, "mock" computes
	// straight-line routes locally
	Mode string `mapstructure:"mode" validate:"required,oneof=osrm mock"`

	// OSRM server base URL (required in osrm mode)
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`

	// Maximum requests per second against the OSRM server
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`

	// Retry configuration for failed requests
	Retry RetryConfig `mapstructure:"retry"`

	// Route cache in front of the client
	Cache RouteCacheConfig `mapstructure:"cache"`
}

// RetryConfig holds retry configuration for failed requests
type RetryConfig struct {
	// Maximum number of retry attempts
	MaxAttempts int `mapstructure:"max_attempts" validate:"min=0"`

	// Base duration for exponential backoff
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// RouteCacheConfig holds route cache configuration
type RouteCacheConfig struct {
	// Enable the cache
	Enabled bool `mapstructure:"enabled"`

	// Maximum number of cached routes
	MaxRoutes int64 `mapstructure:"max_routes" validate:"min=1"`
}
