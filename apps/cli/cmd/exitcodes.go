package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// Exit codes for hitreq CLI
const (
	// ExitSuccess indicates the request completed
	ExitSuccess = 0

	// ExitRequestFailure indicates a failed check: a non-2xx status with
	// --fail, a missing --path value or a --schema violation
	ExitRequestFailure = 1

	// ExitParseError indicates the response body was not valid JSON
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitTimeout indicates the request timed out
	ExitTimeout = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code for err. reported is set when
// the error was already written by a formatter.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExit(code int, err error) error {
	return &exitError{code: code, err: err}
}

func usageErrorf(format string, args ...any) error {
	return withExit(ExitUsageError, fmt.Errorf(format, args...))
}

// callExitCode classifies an error returned by a request.
func callExitCode(err error) int {
	switch {
	case http.IsConfigurationError(err):
		return ExitConfigError
	case http.IsTimeout(err):
		return ExitTimeout
	case http.IsParseError(err):
		return ExitParseError
	default:
		return ExitNetworkError
	}
}

func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if http.IsConfigurationError(err) {
		return ExitConfigError
	}
	return ExitRequestFailure
}

func isReported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.reported
}
