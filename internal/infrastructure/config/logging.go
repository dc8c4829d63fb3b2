package config

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Output destination: stdout, stderr, database
	Output string `mapstructure:"output" validate:"required,oneof=stdout stderr database"`
}
