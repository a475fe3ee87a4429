// Package identity contains the resource clients for the identity service:
// tenants, users and roles, plus unauthenticated API version discovery. Each
// client issues plain CRUD calls through a Session, which handles token
// attachment and the retry-on-unauthorized policy.
package identity

import (
	"context"
	"fmt"
	"strings"

	"idctl/internal/access"
	"idctl/internal/session"
)

// Client talks to the identity service management API.
type Client struct {
	sess     *session.Session
	endpoint string
}

// NewClient creates a client for the given session. When endpoint is empty
// it is resolved from the session's service catalog (identity service, admin
// interface, optionally narrowed by region).
func NewClient(ctx context.Context, sess *session.Session, endpoint, region string) (*Client, error) {
	if endpoint == "" {
		url, err := sess.Endpoint(ctx, access.EndpointFilter{
			ServiceType: "identity",
			Interface:   access.InterfaceAdmin,
			Region:      region,
		})
		if err != nil {
			return nil, fmt.Errorf("could not resolve identity management endpoint: %w", err)
		}
		endpoint = url
	}
	return &Client{sess: sess, endpoint: strings.TrimRight(endpoint, "/")}, nil
}

// Endpoint returns the management endpoint this client targets.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) url(parts ...string) string {
	return c.endpoint + "/" + strings.Join(parts, "/")
}

// Tenant is a project/tenant record.
type Tenant struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// ListTenants returns all tenants visible to the caller.
func (c *Client) ListTenants(ctx context.Context) ([]Tenant, error) {
	var out struct {
		Tenants []Tenant `json:"tenants"`
	}
	if err := c.sess.GetJSON(ctx, c.url("tenants"), &out); err != nil {
		return nil, err
	}
	return out.Tenants, nil
}

// CreateTenant creates a tenant and returns the stored record.
func (c *Client) CreateTenant(ctx context.Context, t Tenant) (*Tenant, error) {
	in := struct {
		Tenant Tenant `json:"tenant"`
	}{Tenant: t}
	var out struct {
		Tenant Tenant `json:"tenant"`
	}
	if err := c.sess.PostJSON(ctx, c.url("tenants"), in, &out); err != nil {
		return nil, err
	}
	return &out.Tenant, nil
}

// DeleteTenant removes a tenant by id.
func (c *Client) DeleteTenant(ctx context.Context, id string) error {
	return c.sess.Delete(ctx, c.url("tenants", id))
}

// User is a user record.
type User struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Enabled  bool   `json:"enabled"`
	TenantID string `json:"tenantId,omitempty"`
}

// ListUsers returns all users visible to the caller.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
	}
	if err := c.sess.GetJSON(ctx, c.url("users"), &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// CreateUser creates a user. The password travels only in the create request
// and is never part of any serialized state.
func (c *Client) CreateUser(ctx context.Context, u User, password string) (*User, error) {
	in := struct {
		User struct {
			User
			Password string `json:"password,omitempty"`
		} `json:"user"`
	}{}
	in.User.User = u
	in.User.Password = password

	var out struct {
		User User `json:"user"`
	}
	if err := c.sess.PostJSON(ctx, c.url("users"), in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// DeleteUser removes a user by id.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.sess.Delete(ctx, c.url("users", id))
}

// Role is a role record.
type Role struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ListRoles returns all roles visible to the caller.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var out struct {
		Roles []Role `json:"roles"`
	}
	if err := c.sess.GetJSON(ctx, c.url("OS-KSADM", "roles"), &out); err != nil {
		return nil, err
	}
	return out.Roles, nil
}
