package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggerPrefersServerLogger(t *testing.T) {
	origCLI, origServer := CLILogger, ServerLogger
	t.Cleanup(func() {
		CLILogger, ServerLogger = origCLI, origServer
	})

	CLILogger, ServerLogger = nil, nil
	assert.Nil(t, Logger())

	InitCLILogger("panelkit-test", true)
	require.NotNil(t, CLILogger)
	assert.Same(t, CLILogger, Logger())

	InitServerLogger("panelkit-test", "debug", "test")
	require.NotNil(t, ServerLogger)
	assert.Same(t, ServerLogger, Logger())

	Logger().Info("structured log line", zap.String("component", "test"))
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   "TRACE",
		"DEBUG":   "DEBUG",
		" warn ":  "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"info":    "INFO",
		"bogus":   "INFO",
		"":        "INFO",
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLogLevel(in), "level %q", in)
	}
}

func TestResolvePort(t *testing.T) {
	port, err := resolvePort("[::]:9464")
	require.NoError(t, err)
	assert.Equal(t, 9464, port)

	_, err = resolvePort("not-an-addr")
	assert.Error(t, err)
}
