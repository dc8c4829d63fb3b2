package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "quartermaster"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "quartermaster"
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

	// Daemon defaults
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/quartermaster-daemon.pid"
	}
	if cfg.Daemon.SweepInterval == 0 {
		cfg.Daemon.SweepInterval = 1 * time.Minute
	}
	if cfg.Daemon.SweepMinSpacing == 0 {
		cfg.Daemon.SweepMinSpacing = 10 * time.Second
	}
	if cfg.Daemon.ClaimTimeout == 0 {
		cfg.Daemon.ClaimTimeout = 30 * time.Minute
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30 * time.Second
	}

	// Priority defaults reproducing the documented curve
	if cfg.Priority.TimeFactor == 0 {
		cfg.Priority.TimeFactor = 0.1
	}
	if cfg.Priority.MaxMultiplier == 0 {
		cfg.Priority.MaxMultiplier = 5.0
	}
	if cfg.Priority.BubbleFraction == 0 {
		cfg.Priority.BubbleFraction = 0.5
	}

	// Ingest defaults
	if cfg.Ingest.ReconnectDelay == 0 {
		cfg.Ingest.ReconnectDelay = 5 * time.Second
	}
	if cfg.Ingest.BufferSize == 0 {
		cfg.Ingest.BufferSize = 256
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "localhost:9090"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}
