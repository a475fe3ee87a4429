package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTokenEndpoint(t *testing.T, secret string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var grants atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		id, sec, ok := r.BasicAuth()
		if !ok {
			id = r.PostFormValue("client_id")
			sec = r.PostFormValue("client_secret")
		}
		if id != "client-1" || sec != secret {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": "invalid_client"}`)
			return
		}
		grants.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "tok-oauth", "token_type": "bearer", "expires_in": 3600}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &grants
}

func TestClientCredentials(t *testing.T) {
	srv, grants := newTokenEndpoint(t, "secret")
	p := &ClientCredentials{
		TokenURL:     srv.URL,
		ClientID:     "client-1",
		ClientSecret: "secret",
		HTTPClient:   srv.Client(),
	}
	ctx := context.Background()

	token, err := p.AuthenticateToken(ctx, nil)
	if err != nil {
		t.Fatalf("AuthenticateToken failed: %v", err)
	}
	if token != "tok-oauth" {
		t.Errorf("unexpected token %q", token)
	}

	// The token source caches the unexpired token.
	if _, err := p.AuthenticateToken(ctx, nil); err != nil {
		t.Fatalf("second AuthenticateToken failed: %v", err)
	}
	if got := grants.Load(); got != 1 {
		t.Errorf("expected one grant, got %d", got)
	}
}

func TestClientCredentialsRejected(t *testing.T) {
	srv, _ := newTokenEndpoint(t, "secret")
	p := &ClientCredentials{
		TokenURL:     srv.URL,
		ClientID:     "client-1",
		ClientSecret: "wrong",
		HTTPClient:   srv.Client(),
	}

	_, err := p.AuthenticateToken(context.Background(), nil)
	var rejected *AuthenticationRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected AuthenticationRejectedError, got %v", err)
	}
}

func TestClientCredentialsNoCredentials(t *testing.T) {
	p := &ClientCredentials{}
	if _, err := p.AuthenticateToken(context.Background(), nil); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestClientCredentialsInvalidate(t *testing.T) {
	srv, grants := newTokenEndpoint(t, "secret")
	p := &ClientCredentials{
		TokenURL:     srv.URL,
		ClientID:     "client-1",
		ClientSecret: "secret",
		HTTPClient:   srv.Client(),
	}
	ctx := context.Background()

	if p.Invalidate() {
		t.Error("invalidate without a token source must report false")
	}
	if _, err := p.AuthenticateToken(ctx, nil); err != nil {
		t.Fatalf("AuthenticateToken failed: %v", err)
	}
	if !p.Invalidate() {
		t.Error("invalidate with a token source must report true")
	}
	if _, err := p.AuthenticateToken(ctx, nil); err != nil {
		t.Fatalf("re-authentication failed: %v", err)
	}
	if got := grants.Load(); got != 2 {
		t.Errorf("expected a fresh grant after invalidate, got %d total", got)
	}
}

func TestClientCredentialsFactory(t *testing.T) {
	f, err := Resolve("clientcredentials")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	plugin, err := f.New(map[string]string{
		"client-id":     "client-1",
		"client-secret": "secret",
		"token-url":     "http://issuer/token",
		"scopes":        "read, write,",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	cc, ok := plugin.(*ClientCredentials)
	if !ok {
		t.Fatalf("expected *ClientCredentials, got %T", plugin)
	}
	if len(cc.Scopes) != 2 || cc.Scopes[0] != "read" || cc.Scopes[1] != "write" {
		t.Errorf("scopes not parsed: %v", cc.Scopes)
	}

	_, err = f.New(map[string]string{"client-id": "client-1"})
	var invalid *InvalidOptionsError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidOptionsError, got %v", err)
	}
}
