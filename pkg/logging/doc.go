// Package logging provides the shared structured logger for idctl.
//
// Log lines carry a subsystem tag so output from the auth plugins, the token
// cache and the session layer can be told apart. Token values must never be
// passed to any of the helpers in this package.
package logging
