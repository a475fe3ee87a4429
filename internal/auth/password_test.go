package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"idctl/internal/access"
	"idctl/internal/cache"
)

// newExchangeServer serves a scoped token response and counts exchanges.
func newExchangeServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var exchanges atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/tokens", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req passwordAuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.Auth.PasswordCredentials.Password != "password" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
		  "access": {
		    "token": {
		      "id": "tok-1",
		      "expires": "2030-11-23T16:28:21Z",
		      "tenant": {"id": "t1", "name": "exampleproject"}
		    },
		    "user": {"id": "u1", "name": "exampleuser"},
		    "serviceCatalog": [
		      {"type": "identity", "name": "idm", "endpoints": [
		        {"region": "RegionOne", "publicURL": "http://public:5000/v2.0", "adminURL": "http://admin:35357/v2.0"}
		      ]}
		    ]
		  }
		}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &exchanges
}

func TestPasswordExchange(t *testing.T) {
	srv, _ := newExchangeServer(t)
	p := &Password{AuthURL: srv.URL, Username: "exampleuser", PasswordValue: "password"}

	token, err := p.AuthenticateToken(context.Background(), srv.Client())
	if err != nil {
		t.Fatalf("AuthenticateToken failed: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("unexpected token %q", token)
	}

	a := p.Access()
	if a == nil || !a.Scoped {
		t.Fatalf("expected a scoped access, got %+v", a)
	}
	if a.Username != "exampleuser" {
		t.Errorf("unexpected username %q", a.Username)
	}
}

func TestPasswordIdempotence(t *testing.T) {
	srv, exchanges := newExchangeServer(t)
	p := &Password{AuthURL: srv.URL, Username: "exampleuser", PasswordValue: "password"}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := p.AuthenticateToken(ctx, srv.Client()); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}

	if got := exchanges.Load(); got != 1 {
		t.Errorf("expected exactly one exchange, got %d", got)
	}
}

func TestPasswordConcurrentExchange(t *testing.T) {
	srv, exchanges := newExchangeServer(t)
	p := &Password{AuthURL: srv.URL, Username: "exampleuser", PasswordValue: "password"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.AuthenticateToken(context.Background(), srv.Client()); err != nil {
				t.Errorf("concurrent AuthenticateToken failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := exchanges.Load(); got != 1 {
		t.Errorf("concurrent callers triggered %d exchanges, want 1", got)
	}
}

func TestPasswordRejected(t *testing.T) {
	srv, _ := newExchangeServer(t)
	p := &Password{AuthURL: srv.URL, Username: "exampleuser", PasswordValue: "wrong"}

	_, err := p.AuthenticateToken(context.Background(), srv.Client())
	var rejected *AuthenticationRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected AuthenticationRejectedError, got %v", err)
	}
	if errors.Is(err, ErrNoCredentials) {
		t.Error("a rejection must not look like missing credentials")
	}
}

func TestPasswordNoCredentials(t *testing.T) {
	p := &Password{}
	_, err := p.AuthenticateToken(context.Background(), http.DefaultClient)
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestPasswordInvalidate(t *testing.T) {
	srv, exchanges := newExchangeServer(t)
	p := &Password{AuthURL: srv.URL, Username: "exampleuser", PasswordValue: "password"}
	ctx := context.Background()

	if p.Invalidate() {
		t.Error("invalidate without state must report false")
	}

	if _, err := p.AuthenticateToken(ctx, srv.Client()); err != nil {
		t.Fatalf("AuthenticateToken failed: %v", err)
	}
	if !p.Invalidate() {
		t.Error("invalidate with cached state must report true")
	}
	if p.Invalidate() {
		t.Error("second invalidate must report false")
	}

	if _, err := p.AuthenticateToken(ctx, srv.Client()); err != nil {
		t.Fatalf("re-authentication failed: %v", err)
	}
	if got := exchanges.Load(); got != 2 {
		t.Errorf("expected a fresh exchange after invalidate, got %d total", got)
	}
}

func TestPasswordEndpoint(t *testing.T) {
	srv, _ := newExchangeServer(t)
	p := &Password{AuthURL: srv.URL, Username: "exampleuser", PasswordValue: "password"}
	ctx := context.Background()

	url, err := p.Endpoint(ctx, srv.Client(), access.EndpointFilter{
		ServiceType: "identity",
		Interface:   access.InterfaceAdmin,
	})
	if err != nil {
		t.Fatalf("Endpoint failed: %v", err)
	}
	if url != "http://admin:35357/v2.0" {
		t.Errorf("unexpected endpoint %q", url)
	}

	_, err = p.Endpoint(ctx, srv.Client(), access.EndpointFilter{ServiceType: "object-store"})
	if !errors.Is(err, ErrEndpointNotFound) {
		t.Errorf("expected ErrEndpointNotFound, got %v", err)
	}
}

func TestPasswordPersistence(t *testing.T) {
	srv, exchanges := newExchangeServer(t)
	store, err := cache.NewStore(cache.Config{StorageDir: t.TempDir(), FileMode: true})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	ctx := context.Background()

	p1 := &Password{AuthURL: srv.URL, Username: "exampleuser", PasswordValue: "password", Store: store}
	if _, err := p1.AuthenticateToken(ctx, srv.Client()); err != nil {
		t.Fatalf("first AuthenticateToken failed: %v", err)
	}

	// A second plugin instance sharing the store reuses the persisted
	// access without another exchange.
	p2 := &Password{AuthURL: srv.URL, Username: "exampleuser", PasswordValue: "password", Store: store}
	token, err := p2.AuthenticateToken(ctx, srv.Client())
	if err != nil {
		t.Fatalf("second AuthenticateToken failed: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("unexpected token %q", token)
	}
	if got := exchanges.Load(); got != 1 {
		t.Errorf("persisted access should avoid a second exchange, got %d", got)
	}
}

func TestPasswordFactory(t *testing.T) {
	f, err := Resolve("password")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	t.Run("missing password", func(t *testing.T) {
		_, err := f.New(map[string]string{
			"username": "exampleuser",
			"auth-url": "http://somewhere/",
		})
		var invalid *InvalidOptionsError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidOptionsError, got %v", err)
		}
	})

	t.Run("conflicting tenant options", func(t *testing.T) {
		_, err := f.New(map[string]string{
			"username":    "exampleuser",
			"password":    "password",
			"auth-url":    "http://somewhere/",
			"tenant-name": "a",
			"tenant-id":   "b",
		})
		var invalid *InvalidOptionsError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidOptionsError, got %v", err)
		}
	})

	t.Run("valid options", func(t *testing.T) {
		plugin, err := f.New(map[string]string{
			"username": "exampleuser",
			"password": "password",
			"auth-url": "http://somewhere/",
		})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		pw, ok := plugin.(*Password)
		if !ok {
			t.Fatalf("expected *Password, got %T", plugin)
		}
		if pw.Username != "exampleuser" || pw.AuthURL != "http://somewhere/" {
			t.Errorf("options not applied: %+v", pw)
		}
	})
}
