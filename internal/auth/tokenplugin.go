package auth

import (
	"context"

	"idctl/internal/access"
)

// Token is the passthrough plugin: a pre-obtained token and a fixed service
// endpoint, no exchange. Because it holds no cached authentication state,
// Invalidate reports false and a 401 against it is terminal.
type Token struct {
	BasePlugin

	// TokenValue is the pre-obtained bearer token.
	TokenValue string
	// ServiceEndpoint is the endpoint all requests are sent to.
	ServiceEndpoint string
}

// AuthenticateToken returns the static token.
func (p *Token) AuthenticateToken(ctx context.Context, tr Transport) (string, error) {
	if p.TokenValue == "" {
		return "", ErrNoCredentials
	}
	return p.TokenValue, nil
}

// Endpoint returns the configured endpoint regardless of the filter; a
// static plugin has no catalog to consult.
func (p *Token) Endpoint(ctx context.Context, tr Transport, f access.EndpointFilter) (string, error) {
	if p.ServiceEndpoint == "" {
		return "", ErrEndpointNotFound
	}
	return p.ServiceEndpoint, nil
}

type tokenFactory struct{}

func (tokenFactory) Name() string { return "token" }

func (tokenFactory) Options() []Option {
	return []Option{
		{Name: "token", Env: "SERVICE_TOKEN", Required: true, Help: "Pre-obtained bearer token"},
		{Name: "endpoint", Env: "SERVICE_ENDPOINT", Required: true, Help: "Service endpoint to send requests to"},
	}
}

func (f tokenFactory) New(opts map[string]string) (Plugin, error) {
	decl := f.Options()
	opts = applyDefaults(decl, opts)
	if err := checkRequired(f.Name(), decl, opts); err != nil {
		return nil, err
	}
	return &Token{
		TokenValue:      opts["token"],
		ServiceEndpoint: opts["endpoint"],
	}, nil
}

func init() {
	Register(tokenFactory{})
}
