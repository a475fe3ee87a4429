package auth

import (
	"context"
	"sync"

	"idctl/internal/access"
)

// AccessPlugin serves a previously obtained Access, typically one restored
// from a serialized blob. It holds no credentials, so once its Access is
// invalidated or expires it cannot re-authenticate.
type AccessPlugin struct {
	mu sync.Mutex
	a  *access.Access
}

// FromAccess wraps an existing Access in a plugin. This is the path that
// builds a working client purely from a cached auth blob, with no credential
// options at all.
func FromAccess(a *access.Access) *AccessPlugin {
	return &AccessPlugin{a: a}
}

// AuthenticateToken returns the restored token while it remains valid.
func (p *AccessPlugin) AuthenticateToken(ctx context.Context, tr Transport) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.a.Valid() {
		return "", ErrNoCredentials
	}
	return p.a.Token, nil
}

// Endpoint resolves from the restored catalog.
func (p *AccessPlugin) Endpoint(ctx context.Context, tr Transport, f access.EndpointFilter) (string, error) {
	p.mu.Lock()
	a := p.a
	p.mu.Unlock()

	if a == nil {
		return "", ErrEndpointNotFound
	}
	url, ok := a.Catalog.URL(f)
	if !ok {
		return "", ErrEndpointNotFound
	}
	return url, nil
}

// Invalidate drops the restored Access. It reports true once, but with no
// credentials behind it the next AuthenticateToken yields ErrNoCredentials.
func (p *AccessPlugin) Invalidate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.a == nil {
		return false
	}
	p.a = nil
	return true
}

// Access returns the restored Access, or nil after invalidation.
func (p *AccessPlugin) Access() *access.Access {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.a
}
