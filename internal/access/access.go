package access

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExpiryBuffer is the margin applied when checking token validity.
// It accounts for clock skew, network latency and long-running operations.
const ExpiryBuffer = 60 * time.Second

// Access represents the outcome of a successful authentication exchange.
//
// The zero Expiry means the expiry is unknown; such a token is treated as
// valid and must be revalidated by the issuing plugin.
type Access struct {
	// Token is the bearer token value.
	Token string `json:"token"`

	// Expiry is when the token expires. Zero means unknown / non-expiring.
	Expiry time.Time `json:"expiry,omitempty"`

	// Scoped reports whether the token is bound to a tenant.
	Scoped bool `json:"scoped"`

	// Identity the token was issued to. Empty for tokenless flows.
	Username   string `json:"username,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	TenantName string `json:"tenant_name,omitempty"`
	TenantID   string `json:"tenant_id,omitempty"`

	// Catalog is the service catalog returned by the exchange.
	Catalog Catalog `json:"catalog,omitempty"`

	// IssuedAt is when this Access was created locally.
	IssuedAt time.Time `json:"issued_at,omitempty"`

	// Raw is the unmodified response payload of the exchange, kept so
	// callers can read provider-specific fields this package does not model.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Valid reports whether the token can still be used, applying ExpiryBuffer.
// An Access with an unknown expiry is considered valid.
func (a *Access) Valid() bool {
	if a == nil || a.Token == "" {
		return false
	}
	if a.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(ExpiryBuffer).Before(a.Expiry)
}

// ManagementURL returns the admin endpoint of the identity service from the
// catalog, or the empty string if the catalog has none.
func (a *Access) ManagementURL() string {
	url, ok := a.Catalog.URL(EndpointFilter{ServiceType: "identity", Interface: InterfaceAdmin})
	if !ok {
		return ""
	}
	return url
}

// Marshal serializes the Access for persistence. The output is compact so
// Raw, which is stored compacted, survives any number of round trips byte
// for byte.
func (a *Access) Marshal() ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal access: %w", err)
	}
	return data, nil
}

// Unmarshal restores an Access previously produced by Marshal.
func Unmarshal(data []byte) (*Access, error) {
	var a Access
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal access: %w", err)
	}
	return &a, nil
}
