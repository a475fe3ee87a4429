package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"idctl/internal/auth"
	"idctl/internal/session"
)

func newIdentityServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2.0/tenants", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tenants": [
		  {"id": "t1", "name": "exampleproject", "enabled": true},
		  {"id": "t2", "name": "otherproject", "enabled": false}
		]}`)
	})
	mux.HandleFunc("POST /v2.0/tenants", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Tenant Tenant `json:"tenant"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		in.Tenant.ID = "t3"
		json.NewEncoder(w).Encode(struct {
			Tenant Tenant `json:"tenant"`
		}{in.Tenant})
	})
	mux.HandleFunc("DELETE /v2.0/tenants/t1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /v2.0/users", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"users": [{"id": "u1", "name": "exampleuser", "enabled": true}]}`)
	})
	mux.HandleFunc("POST /v2.0/users", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			User struct {
				Name     string `json:"name"`
				Password string `json:"password"`
			} `json:"user"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if in.User.Password == "" {
			http.Error(w, "password required", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"user": {"id": "u2", "name": %q, "enabled": true}}`, in.User.Name)
	})
	mux.HandleFunc("GET /v2.0/OS-KSADM/roles", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"roles": [{"id": "r1", "name": "admin"}, {"id": "r2", "name": "member"}]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	sess := session.New(&auth.Token{TokenValue: "tok-1", ServiceEndpoint: srv.URL + "/v2.0"}, srv.Client())
	c, err := NewClient(context.Background(), sess, "", "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestClientEndpointFromPlugin(t *testing.T) {
	srv := newIdentityServer(t)
	c := newTestClient(t, srv)
	if c.Endpoint() != srv.URL+"/v2.0" {
		t.Errorf("endpoint %q", c.Endpoint())
	}
}

func TestListTenants(t *testing.T) {
	srv := newIdentityServer(t)
	c := newTestClient(t, srv)

	tenants, err := c.ListTenants(context.Background())
	if err != nil {
		t.Fatalf("ListTenants failed: %v", err)
	}
	if len(tenants) != 2 {
		t.Fatalf("got %d tenants, want 2", len(tenants))
	}
	if tenants[0].Name != "exampleproject" || !tenants[0].Enabled {
		t.Errorf("unexpected first tenant %+v", tenants[0])
	}
}

func TestCreateTenant(t *testing.T) {
	srv := newIdentityServer(t)
	c := newTestClient(t, srv)

	created, err := c.CreateTenant(context.Background(), Tenant{Name: "newproject", Enabled: true})
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	if created.ID != "t3" || created.Name != "newproject" {
		t.Errorf("unexpected created tenant %+v", created)
	}
}

func TestDeleteTenant(t *testing.T) {
	srv := newIdentityServer(t)
	c := newTestClient(t, srv)

	if err := c.DeleteTenant(context.Background(), "t1"); err != nil {
		t.Fatalf("DeleteTenant failed: %v", err)
	}
	err := c.DeleteTenant(context.Background(), "missing")
	var statusErr *session.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Errorf("expected a 404 StatusError, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	srv := newIdentityServer(t)
	c := newTestClient(t, srv)

	users, err := c.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Name != "exampleuser" {
		t.Errorf("unexpected users %+v", users)
	}
}

func TestCreateUserSendsPassword(t *testing.T) {
	srv := newIdentityServer(t)
	c := newTestClient(t, srv)

	created, err := c.CreateUser(context.Background(), User{Name: "newuser", Enabled: true}, "secret")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.ID != "u2" || created.Name != "newuser" {
		t.Errorf("unexpected created user %+v", created)
	}
}

func TestListRoles(t *testing.T) {
	srv := newIdentityServer(t)
	c := newTestClient(t, srv)

	roles, err := c.ListRoles(context.Background())
	if err != nil {
		t.Fatalf("ListRoles failed: %v", err)
	}
	if len(roles) != 2 || roles[0].Name != "admin" {
		t.Errorf("unexpected roles %+v", roles)
	}
}

func TestDiscover(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMultipleChoices)
		fmt.Fprint(w, `{"versions": {"values": [
		  {"id": "v2.0", "status": "stable", "links": [{"rel": "self", "href": "http://auth:5000/v2.0/"}]},
		  {"id": "v3.0", "status": "experimental"}
		]}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess := session.New(nil, srv.Client())
	versions, err := Discover(context.Background(), sess, srv.URL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(versions) != 2 || versions[0].ID != "v2.0" {
		t.Errorf("unexpected versions %+v", versions)
	}
}
