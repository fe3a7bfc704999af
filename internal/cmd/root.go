package cmd

import (
	"context"
	"errors"
	"os"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/panelkit/panelkit/internal/config"
	errwrap "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/observability"
)

// AppName is the binary, logger service and metrics namespace.
const AppName = "panelkit"

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootCmd = &cobra.Command{
	Use:   AppName,
	Short: "Global loading indicator and notification coordinator for admin dashboards",
	Long: `panelkit tracks whether any guarded request is in flight, owns the
dashboard's single notification slot and serves its navigation tree.

Use the subcommands to run the HTTP service or to exercise it from a terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Keep gofulmen quiet in one-shot commands; serve installs the real
	// system later.
	observability.DisableTelemetry()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: first found of $XDG_CONFIG_HOME/panelkit/config.yaml, ~/.panelkit/config.yaml, ~/.panelkit.yaml, ./panelkit.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig wires defaults, PANELKIT_* environment and the config file
// into the global viper instance.
func initConfig() {
	observability.InitCLILogger(AppName, verbose)

	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	path := cfgFile
	if path == "" {
		path = findConfigFile(gfconfig.GetAppConfigPaths(AppName))
	}
	if path == "" {
		observability.CLILogger.Debug("No config file found, using defaults and environment variables")
		return
	}
	v.SetConfigFile(path)

	err := v.ReadInConfig()
	if err == nil {
		observability.CLILogger.Debug("Using config file", zap.String("path", v.ConfigFileUsed()))
		return
	}

	var notFound viper.ConfigFileNotFoundError
	switch {
	case errors.As(err, &notFound):
		observability.CLILogger.Debug("No config file found, using defaults and environment variables")
	case cfgFile != "":
		ExitWithCode(observability.CLILogger, exitCodeForConfig(err), "Failed to read config file",
			errwrap.WrapConfigInvalid(context.Background(), err, "config file unreadable"))
	default:
		observability.CLILogger.Warn("Error reading config file", zap.Error(err))
	}
}

// findConfigFile returns the first existing regular file among candidates,
// which are in gofulmen's XDG search order.
func findConfigFile(candidates []string) string {
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}

// loadConfig decodes and validates the merged settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, errwrap.WrapConfigInvalid(context.Background(), err, "invalid configuration")
	}
	return cfg, nil
}
