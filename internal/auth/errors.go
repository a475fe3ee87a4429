package auth

import (
	"errors"
	"fmt"
)

// ErrNoCredentials is returned by AuthenticateToken when the plugin has no
// applicable credentials. It is distinct from a rejection: nothing was
// presented, so nothing was refused, and the caller must not retry.
var ErrNoCredentials = errors.New("no credentials available")

// ErrEndpointNotFound is returned by Endpoint when no endpoint matching the
// filter can be resolved from the plugin's catalog or configuration.
var ErrEndpointNotFound = errors.New("endpoint not found")

// NoMatchingPluginError indicates that a plugin name could not be resolved
// through the registry.
type NoMatchingPluginError struct {
	// Name is the plugin identifier that failed to resolve.
	Name string
}

func (e *NoMatchingPluginError) Error() string {
	if e.Name == "" {
		return "no auth plugin name given"
	}
	return fmt.Sprintf("no auth plugin registered with name %q", e.Name)
}

// Is allows errors.Is() to match any NoMatchingPluginError.
func (e *NoMatchingPluginError) Is(target error) bool {
	_, ok := target.(*NoMatchingPluginError)
	return ok
}

// InvalidOptionsError indicates that plugin construction failed because
// required options were missing or contradictory. It is raised before any
// network interaction.
type InvalidOptionsError struct {
	// Plugin is the plugin name the options were meant for.
	Plugin string
	// Reason describes what is wrong with the options.
	Reason string
}

func (e *InvalidOptionsError) Error() string {
	return fmt.Sprintf("invalid options for auth plugin %q: %s", e.Plugin, e.Reason)
}

// Is allows errors.Is() to match any InvalidOptionsError.
func (e *InvalidOptionsError) Is(target error) bool {
	_, ok := target.(*InvalidOptionsError)
	return ok
}

// AuthenticationRejectedError indicates that the identity service explicitly
// refused the presented credentials. This is fatal and never retried.
type AuthenticationRejectedError struct {
	// AuthURL is the endpoint the exchange was attempted against.
	AuthURL string
	// Reason is the underlying failure, if any.
	Reason error
}

func (e *AuthenticationRejectedError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("authentication rejected by %s: %v", e.AuthURL, e.Reason)
	}
	return fmt.Sprintf("authentication rejected by %s", e.AuthURL)
}

func (e *AuthenticationRejectedError) Unwrap() error { return e.Reason }

// Is allows errors.Is() to match any AuthenticationRejectedError.
func (e *AuthenticationRejectedError) Is(target error) bool {
	_, ok := target.(*AuthenticationRejectedError)
	return ok
}

// AuthorizationFailedError is the terminal outcome of the session retry
// policy: a token was rejected mid-session and either re-authentication also
// failed or the plugin reported nothing to invalidate.
type AuthorizationFailedError struct {
	// Endpoint is the URL whose response triggered the failure.
	Endpoint string
	// Reason is the underlying failure, if any.
	Reason error
}

func (e *AuthorizationFailedError) Error() string {
	msg := fmt.Sprintf("authorization failed for %s", e.Endpoint)
	if e.Reason != nil {
		msg += ": " + e.Reason.Error()
	}
	return msg
}

func (e *AuthorizationFailedError) Unwrap() error { return e.Reason }

// Is allows errors.Is() to match any AuthorizationFailedError.
func (e *AuthorizationFailedError) Is(target error) bool {
	_, ok := target.(*AuthorizationFailedError)
	return ok
}
