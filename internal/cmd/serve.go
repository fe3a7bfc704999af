package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/panelkit/panelkit/internal/app"
	"github.com/panelkit/panelkit/internal/config"
	errwrap "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/metrics"
	"github.com/panelkit/panelkit/internal/observability"
	"github.com/panelkit/panelkit/internal/server"
	"github.com/panelkit/panelkit/internal/server/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server exposing the loading state, the notification slot,
the navigation tree and, when upstream.base_url is set, a guarded proxy.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (log level only; restart for anything else)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("upstream", "", "base URL proxied under /v1/upstream")
	serveCmd.Flags().String("loader-policy", "", "loading indicator policy: counted, flag")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("upstream.base_url", serveCmd.Flags().Lookup("upstream"))
	_ = viper.BindPFlag("loader.policy", serveCmd.Flags().Lookup("loader-policy"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	observability.InitServerLogger(AppName, cfg.Logging.Level, cfg.Logging.Environment)
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(AppName, cfg.Metrics.Port); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
		}
		metrics.SetServerStartTime(time.Now().Unix())
	}

	appCtx, err := app.New(cfg)
	if err != nil {
		return errwrap.WrapConfigInvalid(cmd.Context(), err, "application setup failed")
	}

	handlers.SetVersionInfo(versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
	srv := server.New(appCtx, cfg.Server, versionInfo.Version)
	srv.Health().RegisterChecker("telemetry", handlers.CheckerFunc(func(context.Context) error {
		if cfg.Metrics.Enabled && observability.PrometheusExporter == nil {
			return errwrap.NewServiceUnavailableError("metrics exporter not running")
		}
		return nil
	}))

	logger.Info("Initializing server",
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.String("loader_policy", cfg.Loader.Policy),
		zap.String("upstream", appCtx.UpstreamBaseURL))

	// Shutdown handlers run LIFO: the server drains first, the logger flushes last.
	signals.OnShutdown(func(ctx context.Context) error {
		if err := logger.Sync(); err != nil {
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})
	signals.OnReload(func(ctx context.Context) error {
		return reloadLogLevel(ctx)
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 2)
	go func() {
		errChan <- srv.Start()
	}()
	go func() {
		if err := signals.Listen(cmd.Context()); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil && !errors.Is(err, context.Canceled) {
		return errwrap.WrapInternal(cmd.Context(), err, "server error")
	}
	return nil
}

// reloadLogLevel re-reads the config file on SIGHUP. Only the log level is
// applied live; other settings are validated and reported.
func reloadLogLevel(ctx context.Context) error {
	logger := observability.ServerLogger
	v := viper.GetViper()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logger.Info("No config file found - nothing to reload")
			return nil
		}
		logger.Error("Failed to reload config file", zap.String("file", v.ConfigFileUsed()), zap.Error(err))
		return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
	}

	cfg, err := config.Load(v)
	if err != nil {
		logger.Error("Reloaded config is invalid; keeping current settings", zap.Error(err))
		return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
	}

	observability.SetServerLogLevel(cfg.Logging.Level)
	logger.Info("Configuration reloaded",
		zap.String("file", v.ConfigFileUsed()),
		zap.String("log_level", cfg.Logging.Level))
	return nil
}
