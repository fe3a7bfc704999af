package config

import "time"

// Config represents the complete application configuration. Values are
// layered: built-in defaults, then the config file, then PANELKIT_*
// environment variables, then command-line flags.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Loader   LoaderConfig   `mapstructure:"loader"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Menu     MenuConfig     `mapstructure:"menu"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Environment is stamped on every server log record
	Environment string `mapstructure:"environment"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated exporter port; /metrics on the main server
	// proxies to it
	Port int `mapstructure:"port"`
}

// LoaderConfig selects how overlapping requests drive the busy indicator
type LoaderConfig struct {
	// Policy is "counted" (reference count) or "flag" (single boolean)
	Policy string `mapstructure:"policy"`
}

// FetchConfig configures the guarded fetch client
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	UserAgent string        `mapstructure:"user_agent"`
}

// UpstreamConfig configures the API proxied under /v1/upstream
type UpstreamConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	NotifyOnError bool   `mapstructure:"notify_on_error"`
}

// MenuConfig points at an optional YAML menu overriding the built-in one
type MenuConfig struct {
	Path string `mapstructure:"path"`
}
