// Package session binds one authentication plugin to the authenticated
// request lifecycle: attach the current token, and on an unauthorized
// response invalidate the plugin's cached state and retry exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"idctl/internal/access"
	"idctl/internal/auth"
	"idctl/pkg/logging"
)

// defaultTimeout applies when no HTTP client is supplied.
const defaultTimeout = 30 * time.Second

// accessHolder is implemented by plugins that expose their cached Access.
// The session uses it to detect that a concurrent refresh already replaced a
// rejected token, in which case invalidation would discard a token that was
// never actually rejected.
type accessHolder interface {
	Access() *access.Access
}

// Session issues authenticated requests through one plugin. Independent
// sessions share no state; one session is safe for concurrent requests
// because token caching is guarded inside the plugin.
type Session struct {
	plugin    auth.Plugin
	client    *http.Client
	userAgent string
}

// New creates a session around plugin. A nil plugin produces an
// unauthenticated session that sends requests without a token, which is what
// commands marked as not requiring authentication run on. A nil client gets
// a default with a 30-second timeout.
func New(plugin auth.Plugin, client *http.Client) *Session {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Session{
		plugin:    plugin,
		client:    client,
		userAgent: "idctl",
	}
}

// Plugin returns the plugin this session drives, or nil for an
// unauthenticated session.
func (s *Session) Plugin() auth.Plugin { return s.plugin }

// Token obtains the current token from the plugin. An unauthenticated
// session returns the empty token.
func (s *Session) Token(ctx context.Context) (string, error) {
	if s.plugin == nil {
		return "", nil
	}
	return s.plugin.AuthenticateToken(ctx, s.client)
}

// Endpoint resolves a service URL through the plugin's catalog.
func (s *Session) Endpoint(ctx context.Context, f access.EndpointFilter) (string, error) {
	if s.plugin == nil {
		return "", auth.ErrEndpointNotFound
	}
	return s.plugin.Endpoint(ctx, s.client, f)
}

// Do sends req with the current token attached. On a 401 response it
// invalidates the plugin and retries at most once; the bound is enforced
// here by the session, not by trusting the plugin.
//
// Requests with a body must be created so that req.GetBody is set (as
// http.NewRequest does for byte readers), otherwise the retry cannot replay
// the body.
func (s *Session) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	token, err := s.Token(ctx)
	if err != nil {
		// ErrNoCredentials is terminal and is not retried: nothing was
		// rejected, there is simply nothing to authenticate with.
		return nil, err
	}

	resp, err := s.send(ctx, req, token)
	if err != nil {
		// Transport errors (timeouts included) are neither success nor an
		// explicit unauthorized and must not trigger invalidation.
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || s.plugin == nil {
		return resp, nil
	}
	drain(resp)

	logging.Debug("Session", "Request to %s unauthorized, considering one retry", req.URL)

	// If a concurrent refresh already produced a newer token, the rejected
	// one is gone: skip invalidation (last exchange wins) and retry with
	// whatever the plugin holds now.
	refreshed := false
	if holder, ok := s.plugin.(accessHolder); ok {
		if a := holder.Access(); a.Valid() && a.Token != token {
			refreshed = true
		}
	}
	if !refreshed && !s.plugin.Invalidate() {
		// Nothing to invalidate means a retry would not help.
		return nil, &auth.AuthorizationFailedError{
			Endpoint: req.URL.String(),
			Reason:   errors.New("token rejected and plugin has no state to invalidate"),
		}
	}

	token, err = s.Token(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNoCredentials) {
			return nil, &auth.AuthorizationFailedError{Endpoint: req.URL.String(), Reason: err}
		}
		return nil, err
	}

	resp, err = s.send(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		return nil, &auth.AuthorizationFailedError{
			Endpoint: req.URL.String(),
			Reason:   errors.New("token rejected again after re-authentication"),
		}
	}
	return resp, nil
}

// send issues one attempt of req with the given token.
func (s *Session) send(ctx context.Context, req *http.Request, token string) (*http.Response, error) {
	attempt := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to replay request body: %w", err)
		}
		attempt.Body = body
	}

	attempt.Header.Set("User-Agent", s.userAgent)
	attempt.Header.Set("X-Request-Id", uuid.NewString())
	if token != "" {
		attempt.Header.Set("Authorization", "Bearer "+token)
	}

	return s.client.Do(attempt)
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
	resp.Body.Close()
}
