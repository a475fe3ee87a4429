package access

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Wire shapes of the identity service token response. Only the fields this
// client consumes are modeled; the full payload is preserved in Access.Raw.

type tokenResponse struct {
	Access struct {
		Token struct {
			ID      string `json:"id"`
			Expires string `json:"expires"`
			Tenant  *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"tenant"`
		} `json:"token"`
		User struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"user"`
		ServiceCatalog []struct {
			Type      string `json:"type"`
			Name      string `json:"name"`
			Endpoints []struct {
				Region      string `json:"region"`
				PublicURL   string `json:"publicURL"`
				InternalURL string `json:"internalURL"`
				AdminURL    string `json:"adminURL"`
			} `json:"endpoints"`
		} `json:"serviceCatalog"`
	} `json:"access"`
}

// ParseTokenResponse builds an Access from a raw token exchange response
// body. The token is scoped when the response carries a tenant.
func ParseTokenResponse(body []byte) (*Access, error) {
	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if resp.Access.Token.ID == "" {
		return nil, fmt.Errorf("token response contains no token")
	}

	// Raw is stored compacted so its bytes do not depend on how the server
	// formatted the response and stay stable through serialization.
	var raw bytes.Buffer
	if err := json.Compact(&raw, body); err != nil {
		return nil, fmt.Errorf("failed to compact token response: %w", err)
	}

	a := &Access{
		Token:    resp.Access.Token.ID,
		Username: resp.Access.User.Name,
		UserID:   resp.Access.User.ID,
		IssuedAt: time.Now().UTC(),
		Raw:      json.RawMessage(raw.Bytes()),
	}

	if exp := resp.Access.Token.Expires; exp != "" {
		t, err := parseExpiry(exp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse token expiry %q: %w", exp, err)
		}
		a.Expiry = t
	}

	if tenant := resp.Access.Token.Tenant; tenant != nil {
		a.Scoped = true
		a.TenantID = tenant.ID
		a.TenantName = tenant.Name
	}

	for _, svc := range resp.Access.ServiceCatalog {
		entry := Service{Type: svc.Type, Name: svc.Name}
		for _, ep := range svc.Endpoints {
			entry.Endpoints = append(entry.Endpoints, Endpoint{
				Region:      ep.Region,
				PublicURL:   ep.PublicURL,
				InternalURL: ep.InternalURL,
				AdminURL:    ep.AdminURL,
			})
		}
		a.Catalog = append(a.Catalog, entry)
	}

	return a, nil
}

// parseExpiry accepts the timestamp formats the identity service is known to
// emit for token expiry.
func parseExpiry(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format")
}
