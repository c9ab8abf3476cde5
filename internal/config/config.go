package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	StaleAfter        time.Duration `mapstructure:"stale_after" yaml:"stale_after"`
}

// Default returns configuration with reasonable starter defaults.
// The stale threshold is deliberately shorter than the sweep interval,
// so every stale participant is caught on the next tick.
func Default() Config {
	return Config{
		Addr:              ":4000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "batepapo.db",
		LogLevel:          "info",
		SweepInterval:     15 * time.Second,
		StaleAfter:        10 * time.Second,
	}
}
