package observability

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger is used by one-shot commands (SIMPLE profile)
	CLILogger *logging.Logger

	// ServerLogger is used while serving HTTP (STRUCTURED profile)
	ServerLogger *logging.Logger
)

// Logger returns the server logger when serving, otherwise the CLI logger.
// It returns nil before either has been initialized.
func Logger() *logging.Logger {
	if ServerLogger != nil {
		return ServerLogger
	}
	return CLILogger
}

// InitCLILogger initializes the CLI logger. Verbose lowers the level to DEBUG
// so loader transitions and per-request fetch lines become visible.
func InitCLILogger(serviceName string, verbose bool) {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize CLI logger", err)
	}

	if verbose {
		logger.SetLevel(logging.DEBUG)
	}

	CLILogger = logger
}

// InitServerLogger initializes the JSON server logger with correlation IDs.
// The environment lands in every record so dashboards can split staging
// traffic from production.
func InitServerLogger(serviceName, logLevel, environment string) {
	if strings.TrimSpace(environment) == "" {
		environment = "production"
	}

	config := &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: parseLogLevel(logLevel),
		Service:      serviceName,
		Environment:  environment,
		StaticFields: map[string]any{
			"component": "server",
		},
		Middleware: []logging.MiddlewareConfig{
			{
				Name:    "correlation",
				Enabled: true,
				Order:   100,
				Config:  make(map[string]any),
			},
		},
		Sinks: []logging.SinkConfig{
			{
				Type:   "console",
				Format: "json",
				Console: &logging.ConsoleSinkConfig{
					Stream:   "stderr",
					Colorize: false,
				},
			},
		},
		EnableCaller:     true,
		EnableStacktrace: true,
	}

	logger, err := logging.New(config)
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize server logger", err)
	}

	ServerLogger = logger
}

// SetServerLogLevel changes the server logger's level in place.
func SetServerLogLevel(levelStr string) {
	if ServerLogger == nil {
		return
	}

	switch parseLogLevel(levelStr) {
	case "TRACE":
		ServerLogger.SetLevel(logging.TRACE)
	case "DEBUG":
		ServerLogger.SetLevel(logging.DEBUG)
	case "WARN":
		ServerLogger.SetLevel(logging.WARN)
	case "ERROR":
		ServerLogger.SetLevel(logging.ERROR)
	default:
		ServerLogger.SetLevel(logging.INFO)
	}
}

// parseLogLevel maps config level names onto gofulmen severities
func parseLogLevel(levelStr string) string {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "trace":
		return "TRACE"
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}

// exitWithCodeStderr is used when the logger itself could not be built.
func exitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		os.Exit(int(exitCode))
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	os.Exit(info.Code)
}
