package cmd

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	errwrap "github.com/panelkit/panelkit/internal/errors"
)

// ExitCodeFor maps a command error onto a foundry semantic exit code.
func ExitCodeFor(err error) foundry.ExitCode {
	var envelope *errors.ErrorEnvelope
	if !stderrors.As(err, &envelope) {
		return foundry.ExitFailure
	}

	switch envelope.Code {
	case errwrap.CodeConfigInvalid:
		return foundry.ExitConfigInvalid
	case errwrap.CodeExternalService, errwrap.CodeTimeout, errwrap.CodeServiceUnavailable:
		return foundry.ExitExternalServiceUnavailable
	default:
		return foundry.ExitFailure
	}
}

func exitCodeForConfig(err error) foundry.ExitCode {
	if stderrors.Is(err, fs.ErrNotExist) {
		return foundry.ExitFileNotFound
	}
	return foundry.ExitConfigInvalid
}

// ExitWithCode logs msg with the exit code metadata from the foundry catalog
// and terminates the process. A nil logger falls back to stderr.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger == nil {
		writeFatal(msg, err)
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		os.Exit(info.Code)
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("error_message", envelope.Message),
			zap.String("correlation_id", envelope.CorrelationID),
		)
		if len(envelope.Context) > 0 {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	logger.Error(msg, fields...)
	os.Exit(info.Code)
}

// ExitWithCodeStderr is ExitWithCode for failures before the logger exists.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	ExitWithCode(nil, exitCode, msg, err)
}

func writeFatal(msg string, err error) {
	var envelope *errors.ErrorEnvelope
	switch {
	case err == nil:
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	case stderrors.As(err, &envelope):
		fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %s\n", msg, envelope.Code, envelope.Message)
		if wrapped, ok := envelope.Context["wrapped_error"]; ok {
			fmt.Fprintf(os.Stderr, "Cause: %v\n", wrapped)
		}
	default:
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	}
}
