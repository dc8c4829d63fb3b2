package config

import "time"

// DaemonConfig holds daemon service configuration
type DaemonConfig struct {
	// PID file location
	PIDFile string `mapstructure:"pid_file"`

	// How often the sweep recalculates priorities, expires claims, and
	// completes elapsed production queues
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"required"`

	// Minimum spacing between sweep runs; manual triggers are paced to this
	SweepMinSpacing time.Duration `mapstructure:"sweep_min_spacing"`

	// How long a claim holds before the sweep reverts it
	ClaimTimeout time.Duration `mapstructure:"claim_timeout" validate:"required"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}

// IngestConfig holds inventory-event ingestion configuration
type IngestConfig struct {
	// Websocket event source URL (empty disables the websocket source)
	WebsocketURL string `mapstructure:"websocket_url"`

	// Reconnect delay after a dropped websocket connection
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`

	// Event buffer size between the source and the propagation engine
	BufferSize int `mapstructure:"buffer_size" validate:"min=1"`
}

// MetricsConfig holds prometheus endpoint configuration
type MetricsConfig struct {
	// Enable the /metrics HTTP endpoint
	Enabled bool `mapstructure:"enabled"`

	// Listen address for the metrics endpoint
	Address string `mapstructure:"address"`
}
