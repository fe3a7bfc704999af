// Package config provides centralized configuration management for panelkit.
// Settings are read through viper (defaults, config file, PANELKIT_*
// environment, bound flags) and decoded into a typed Config with
// mapstructure.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/panelkit/panelkit/internal/loader"
)

// EnvPrefix is prepended to every environment override, e.g.
// PANELKIT_SERVER_PORT or PANELKIT_LOADER_POLICY.
const EnvPrefix = "PANELKIT"

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers every known key on v. Keys without a default are
// invisible to environment overrides, so new settings must be added here.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.environment", "production")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Loading indicator
	v.SetDefault("loader.policy", string(loader.PolicyCounted))

	// Guarded fetch
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.rate_limit", 0.0)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("fetch.user_agent", "panelkit")

	// Upstream proxy
	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.notify_on_error", true)

	// Menu override
	v.SetDefault("menu.path", "")
}

// BindEnv enables PANELKIT_* overrides on v, mapping dots to underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		// Defaults are static; a failure here is a programming error.
		panic(fmt.Sprintf("config: invalid built-in defaults: %v", err))
	}
	return cfg
}

// Load decodes and validates the settings held by v. Callers are expected
// to have applied SetDefaults, BindEnv and any config file beforehand.
//
// This function is safe to call multiple times (e.g., for config reload)
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, errors.New("config: nil viper instance")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	if _, err := loader.ParsePolicy(c.Loader.Policy); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative")
	}
	if c.Fetch.RateLimit < 0 {
		return fmt.Errorf("fetch.rate_limit must not be negative")
	}
	if c.Fetch.RateLimit > 0 && c.Fetch.Burst < 1 {
		return fmt.Errorf("fetch.burst must be at least 1 when rate limiting")
	}

	if raw := strings.TrimSpace(c.Upstream.BaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("upstream.base_url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("upstream.base_url %q must be an absolute http(s) URL", raw)
		}
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}
