// Package cli holds the shared pieces of the idctl command surface: the
// user-facing error types with their exit-code mapping, environment fallback
// resolution for flags, and table rendering for list output.
package cli

import (
	"errors"
	"fmt"

	"idctl/internal/auth"
)

// Exit codes for CLI commands. These are part of the scripting contract.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates required credentials were missing.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates authentication or authorization failed.
	ExitCodeAuthFailed = 3
)

// CommandError is a user-facing command failure: a single concise line on
// stderr and a non-zero exit, no stack trace unless debug output is on.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string { return e.Message }

// Is allows errors.Is() to match any CommandError.
func (e *CommandError) Is(target error) bool {
	_, ok := target.(*CommandError)
	return ok
}

// Errorf builds a CommandError from a format string.
func Errorf(format string, args ...interface{}) *CommandError {
	return &CommandError{Message: fmt.Sprintf(format, args...)}
}

// MissingCredentialsError indicates a required credential option is absent
// for a command that requires authentication. It is raised before any
// network interaction.
type MissingCredentialsError struct {
	// Flag is the command-line flag that would supply the credential.
	Flag string
	// Env is the environment variable fallback for the flag.
	Env string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("you must provide a value via either --%s or env[%s]", e.Flag, e.Env)
}

// Is allows errors.Is() to match any MissingCredentialsError.
func (e *MissingCredentialsError) Is(target error) bool {
	_, ok := target.(*MissingCredentialsError)
	return ok
}

// ExitCode maps an error to the process exit code. Missing credentials,
// unknown plugins and invalid plugin options exit 2, rejected credentials and
// failed authorization exit 3, everything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var missing *MissingCredentialsError
	if errors.As(err, &missing) {
		return ExitCodeAuthRequired
	}
	var noPlugin *auth.NoMatchingPluginError
	if errors.As(err, &noPlugin) {
		return ExitCodeAuthRequired
	}
	var invalidOpts *auth.InvalidOptionsError
	if errors.As(err, &invalidOpts) {
		return ExitCodeAuthRequired
	}

	var rejected *auth.AuthenticationRejectedError
	if errors.As(err, &rejected) {
		return ExitCodeAuthFailed
	}
	var authFailed *auth.AuthorizationFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}
	if errors.Is(err, auth.ErrNoCredentials) {
		return ExitCodeAuthRequired
	}

	return ExitCodeError
}
