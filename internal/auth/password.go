package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"idctl/internal/access"
	"idctl/internal/cache"
	"idctl/pkg/logging"
)

// maxTokenResponseBytes caps exchange response reads so a misbehaving server
// cannot consume unbounded memory.
const maxTokenResponseBytes = 1 << 20

// Password authenticates with a username and password against the identity
// service's token endpoint and caches the resulting Access.
//
// The cached Access is replaced copy-on-write through an atomic pointer, so
// readers never observe partial state, and concurrent exchange attempts are
// coalesced through a singleflight group.
type Password struct {
	// AuthURL is the identity service base URL, e.g. "http://idm:5000/v2.0".
	AuthURL string
	// Username and PasswordValue are the credentials to exchange.
	Username      string
	PasswordValue string
	// TenantName or TenantID scope the token to a tenant. At most one may
	// be set.
	TenantName string
	TenantID   string

	// Store, when set, persists the Access across process runs under
	// AuthURL as the cache key.
	Store *cache.Store

	current atomic.Pointer[access.Access]
	group   singleflight.Group
}

// passwordCredentials is the wire shape of the credential exchange request.
type passwordCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passwordAuthRequest struct {
	Auth struct {
		PasswordCredentials passwordCredentials `json:"passwordCredentials"`
		TenantName          string              `json:"tenantName,omitempty"`
		TenantID            string              `json:"tenantId,omitempty"`
	} `json:"auth"`
}

// AuthenticateToken returns the cached token when still valid, otherwise
// performs a credential exchange. Concurrent callers share one exchange.
func (p *Password) AuthenticateToken(ctx context.Context, tr Transport) (string, error) {
	if a := p.loadValid(); a != nil {
		return a.Token, nil
	}

	if p.Username == "" || p.PasswordValue == "" || p.AuthURL == "" {
		return "", ErrNoCredentials
	}

	v, err, _ := p.group.Do("exchange", func() (interface{}, error) {
		// Re-check under the flight: another caller may have finished an
		// exchange between our check and this closure running.
		if a := p.loadValid(); a != nil {
			return a, nil
		}
		a, err := p.exchange(ctx, tr)
		if err != nil {
			return nil, err
		}
		p.current.Store(a)
		if p.Store != nil {
			if err := p.Store.Put(p.AuthURL, a); err != nil {
				logging.Warn("AuthPassword", "Failed to persist access: %v", err)
			}
		}
		return a, nil
	})
	if err != nil {
		return "", err
	}
	return v.(*access.Access).Token, nil
}

// Endpoint resolves a service URL from the catalog of the current Access,
// authenticating first when no valid Access is cached.
func (p *Password) Endpoint(ctx context.Context, tr Transport, f access.EndpointFilter) (string, error) {
	a := p.loadValid()
	if a == nil {
		if _, err := p.AuthenticateToken(ctx, tr); err != nil {
			return "", err
		}
		a = p.loadValid()
		if a == nil {
			return "", ErrEndpointNotFound
		}
	}

	url, ok := a.Catalog.URL(f)
	if !ok {
		return "", ErrEndpointNotFound
	}
	return url, nil
}

// Invalidate discards the cached Access. The compare-and-swap means an
// invalidation racing with a just-completed exchange is a no-op on the newer
// Access: last exchange wins, and the fresh token is not discarded.
func (p *Password) Invalidate() bool {
	cur := p.current.Load()
	if cur == nil {
		return false
	}
	if p.current.CompareAndSwap(cur, nil) && p.Store != nil {
		if err := p.Store.Delete(p.AuthURL); err != nil {
			logging.Warn("AuthPassword", "Failed to drop persisted access: %v", err)
		}
	}
	return true
}

// Access returns the currently cached Access, valid or not. Nil when no
// exchange has happened.
func (p *Password) Access() *access.Access {
	return p.current.Load()
}

// SetAccess seeds the plugin with a previously obtained Access, e.g. one
// restored from the token cache.
func (p *Password) SetAccess(a *access.Access) {
	p.current.Store(a)
}

// loadValid returns the cached Access only when it is still usable,
// consulting the persistent store before giving up.
func (p *Password) loadValid() *access.Access {
	if a := p.current.Load(); a.Valid() {
		return a
	}
	if p.Store != nil && p.AuthURL != "" {
		if a := p.Store.Get(p.AuthURL); a != nil {
			p.current.Store(a)
			return a
		}
	}
	return nil
}

// exchange submits the credentials and parses the resulting Access.
func (p *Password) exchange(ctx context.Context, tr Transport) (*access.Access, error) {
	var reqBody passwordAuthRequest
	reqBody.Auth.PasswordCredentials = passwordCredentials{
		Username: p.Username,
		Password: p.PasswordValue,
	}
	reqBody.Auth.TenantName = p.TenantName
	reqBody.Auth.TenantID = p.TenantID

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential exchange request: %w", err)
	}

	url := strings.TrimRight(p.AuthURL, "/") + "/tokens"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build credential exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tr.Do(req)
	if err != nil {
		// Transport errors (including timeouts) propagate unchanged; they
		// are neither success nor an explicit rejection.
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read credential exchange response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNonAuthoritativeInfo:
		// Fall through to parse.
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthenticationRejectedError{
			AuthURL: p.AuthURL,
			Reason:  fmt.Errorf("server returned %s", resp.Status),
		}
	default:
		return nil, fmt.Errorf("credential exchange against %s failed with %s", p.AuthURL, resp.Status)
	}

	a, err := access.ParseTokenResponse(body)
	if err != nil {
		return nil, err
	}

	logging.Debug("AuthPassword", "Exchanged credentials for user %s (scoped=%t)", p.Username, a.Scoped)
	return a, nil
}

// passwordFactory registers the password plugin.
type passwordFactory struct{}

func (passwordFactory) Name() string { return "password" }

func (passwordFactory) Options() []Option {
	return []Option{
		{Name: "username", Env: "OS_USERNAME", Required: true, Help: "User name to authenticate as"},
		{Name: "password", Env: "OS_PASSWORD", Required: true, Help: "Password to authenticate with"},
		{Name: "auth-url", Env: "OS_AUTH_URL", Required: true, Help: "Identity service URL for the credential exchange"},
		{Name: "tenant-name", Env: "OS_TENANT_NAME", Help: "Tenant name to scope the token to"},
		{Name: "tenant-id", Env: "OS_TENANT_ID", Help: "Tenant id to scope the token to"},
	}
}

func (f passwordFactory) New(opts map[string]string) (Plugin, error) {
	decl := f.Options()
	opts = applyDefaults(decl, opts)
	if err := checkRequired(f.Name(), decl, opts); err != nil {
		return nil, err
	}
	if opts["tenant-name"] != "" && opts["tenant-id"] != "" {
		return nil, &InvalidOptionsError{
			Plugin: f.Name(),
			Reason: "tenant-name and tenant-id are mutually exclusive",
		}
	}

	return &Password{
		AuthURL:       opts["auth-url"],
		Username:      opts["username"],
		PasswordValue: opts["password"],
		TenantName:    opts["tenant-name"],
		TenantID:      opts["tenant-id"],
	}, nil
}

func init() {
	Register(passwordFactory{})
}
