package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoad(t *testing.T) {
	t.Run("LoadDefaults", func(t *testing.T) {
		cfg, err := Load(newViper(t))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify server defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		// Verify logging and metrics defaults
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)

		// Verify domain defaults
		assert.Equal(t, "counted", cfg.Loader.Policy)
		assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
		assert.Zero(t, cfg.Fetch.RateLimit)
		assert.Equal(t, 1, cfg.Fetch.Burst)
		assert.Empty(t, cfg.Upstream.BaseURL)
		assert.True(t, cfg.Upstream.NotifyOnError)
		assert.Empty(t, cfg.Menu.Path)

		assert.Same(t, cfg, GetConfig())
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("PANELKIT_SERVER_PORT", "3000")
		t.Setenv("PANELKIT_LOADER_POLICY", "flag")
		t.Setenv("PANELKIT_FETCH_TIMEOUT", "5s")
		t.Setenv("PANELKIT_FETCH_RATE_LIMIT", "2.5")
		t.Setenv("PANELKIT_UPSTREAM_BASE_URL", "https://api.example.test/v2")

		cfg, err := Load(newViper(t))
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, "flag", cfg.Loader.Policy)
		assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
		assert.Equal(t, 2.5, cfg.Fetch.RateLimit)
		assert.Equal(t, "https://api.example.test/v2", cfg.Upstream.BaseURL)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
loader:
  policy: flag
fetch:
  rate_limit: 4
  burst: 2
menu:
  path: /etc/panelkit/menu.yaml
`), 0o600))

		v := newViper(t)
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "flag", cfg.Loader.Policy)
		assert.Equal(t, 4.0, cfg.Fetch.RateLimit)
		assert.Equal(t, 2, cfg.Fetch.Burst)
		assert.Equal(t, "/etc/panelkit/menu.yaml", cfg.Menu.Path)

		// Non-overridden values remain default
		assert.Equal(t, "localhost", cfg.Server.Host)
	})

	t.Run("NilViper", func(t *testing.T) {
		_, err := Load(nil)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown policy":     func(c *Config) { c.Loader.Policy = "semaphore" },
		"port out of range":  func(c *Config) { c.Server.Port = 70000 },
		"negative timeout":   func(c *Config) { c.Fetch.Timeout = -time.Second },
		"negative rate":      func(c *Config) { c.Fetch.RateLimit = -1 },
		"zero burst":         func(c *Config) { c.Fetch.RateLimit = 1; c.Fetch.Burst = 0 },
		"relative upstream":  func(c *Config) { c.Upstream.BaseURL = "/api" },
		"ftp upstream":       func(c *Config) { c.Upstream.BaseURL = "ftp://files.example.test" },
		"malformed upstream": func(c *Config) { c.Upstream.BaseURL = "http://[::1" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
