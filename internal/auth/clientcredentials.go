package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"idctl/pkg/logging"
)

// ClientCredentials authenticates through an OAuth2 client-credentials grant
// against a token endpoint. Token caching and refresh are delegated to the
// oauth2 token source; Invalidate drops the source so the next call builds a
// fresh one.
type ClientCredentials struct {
	BasePlugin

	// TokenURL is the OAuth2 token endpoint.
	TokenURL string
	// ClientID and ClientSecret identify this client to the issuer.
	ClientID     string
	ClientSecret string
	// Scopes are the requested token scopes.
	Scopes []string

	// HTTPClient, when set, is used for the token endpoint exchange.
	// The oauth2 package cannot drive an arbitrary transport, so this is
	// the one plugin that takes a concrete client instead of borrowing
	// the session transport.
	HTTPClient *http.Client

	mu     sync.Mutex
	source oauth2.TokenSource
}

// AuthenticateToken returns a token from the grant, reusing the cached token
// source across calls.
func (p *ClientCredentials) AuthenticateToken(ctx context.Context, tr Transport) (string, error) {
	if p.ClientID == "" || p.ClientSecret == "" || p.TokenURL == "" {
		return "", ErrNoCredentials
	}

	if p.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
	}

	p.mu.Lock()
	if p.source == nil {
		cfg := &clientcredentials.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			TokenURL:     p.TokenURL,
			Scopes:       p.Scopes,
		}
		p.source = cfg.TokenSource(ctx)
	}
	source := p.source
	p.mu.Unlock()

	tok, err := source.Token()
	if err != nil {
		if rErr, ok := err.(*oauth2.RetrieveError); ok && rErr.Response != nil &&
			(rErr.Response.StatusCode == http.StatusUnauthorized || rErr.Response.StatusCode == http.StatusForbidden) {
			return "", &AuthenticationRejectedError{AuthURL: p.TokenURL, Reason: err}
		}
		return "", err
	}

	logging.Debug("AuthClientCredentials", "Obtained token from %s for client %s", p.TokenURL, p.ClientID)
	return tok.AccessToken, nil
}

// Invalidate drops the token source so the next call performs a fresh grant.
func (p *ClientCredentials) Invalidate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.source == nil {
		return false
	}
	p.source = nil
	return true
}

type clientCredentialsFactory struct{}

func (clientCredentialsFactory) Name() string { return "clientcredentials" }

func (clientCredentialsFactory) Options() []Option {
	return []Option{
		{Name: "client-id", Env: "OS_CLIENT_ID", Required: true, Help: "OAuth2 client id"},
		{Name: "client-secret", Env: "OS_CLIENT_SECRET", Required: true, Help: "OAuth2 client secret"},
		{Name: "token-url", Env: "OS_TOKEN_URL", Required: true, Help: "OAuth2 token endpoint"},
		{Name: "scopes", Env: "OS_SCOPES", Help: "Comma-separated token scopes"},
	}
}

func (f clientCredentialsFactory) New(opts map[string]string) (Plugin, error) {
	decl := f.Options()
	opts = applyDefaults(decl, opts)
	if err := checkRequired(f.Name(), decl, opts); err != nil {
		return nil, err
	}

	var scopes []string
	if raw := opts["scopes"]; raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				scopes = append(scopes, s)
			}
		}
	}

	return &ClientCredentials{
		TokenURL:     opts["token-url"],
		ClientID:     opts["client-id"],
		ClientSecret: opts["client-secret"],
		Scopes:       scopes,
	}, nil
}

func init() {
	Register(clientCredentialsFactory{})
}
