package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
)

// ErrorHandler turns engine errors into user-facing messages and process
// exit codes.
type ErrorHandler struct {
	verbose bool
}

// NewErrorHandler creates a CLI error handler.
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{verbose: viper.GetBool("verbose")}
}

// HandleError prints the error and returns the exit code for it.
func (h *ErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	engineErr, ok := engerrors.AsEngineError(err)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", engineErr.Message)

	if len(engineErr.Context) > 0 {
		fmt.Fprintln(os.Stderr, "\nContext:")
		for key, value := range engineErr.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if h.verbose && engineErr.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", engineErr.Cause)
	}

	return engineErr.ExitCode()
}
