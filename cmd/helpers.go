package cmd

import (
	"context"
	"net/http"
	"os"
	"time"

	"idctl/internal/auth"
	"idctl/internal/cache"
	"idctl/internal/identity"
	"idctl/internal/session"
)

// httpClient is shared by all sessions a single invocation creates.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// tokenStore opens the persistent token cache.
func tokenStore() (*cache.Store, error) {
	return cache.NewStore(cache.Config{
		StorageDir: cfg.TokenDir,
		FileMode:   true,
	})
}

// hasCachedAccess reports whether a still-valid token is cached for the
// configured auth URL. Used by the credential gate: a cached token means the
// client can be built purely from the cache blob, with no credentials.
func hasCachedAccess() bool {
	if globalOpts.authURL == "" {
		return false
	}
	store, err := tokenStore()
	if err != nil {
		return false
	}
	return store.Get(globalOpts.authURL) != nil
}

// flagOptionValues maps plugin option names to the values of the global
// credential flags. Options a plugin declares beyond these fall back to
// their environment variables.
func flagOptionValues() map[string]string {
	return map[string]string{
		"username":    globalOpts.username,
		"password":    globalOpts.password,
		"auth-url":    globalOpts.authURL,
		"tenant-name": globalOpts.tenantName,
		"tenant-id":   globalOpts.tenantID,
		"token":       globalOpts.token,
		"endpoint":    globalOpts.endpoint,
	}
}

// buildPlugin selects and constructs the authentication plugin from the
// parsed flags, the environment and the token cache, in this order:
// explicit token+endpoint, resolved plugin with credentials, cached access.
func buildPlugin() (auth.Plugin, error) {
	if globalOpts.token != "" && globalOpts.endpoint != "" {
		return &auth.Token{
			TokenValue:      globalOpts.token,
			ServiceEndpoint: globalOpts.endpoint,
		}, nil
	}

	name := globalOpts.pluginName
	if name == "" {
		name = "password"
	}

	// The default password path can run from a cached token alone.
	if name == "password" && (globalOpts.username == "" || globalOpts.password == "") {
		store, err := tokenStore()
		if err != nil {
			return nil, err
		}
		if a := store.Get(globalOpts.authURL); a != nil {
			return auth.FromAccess(a), nil
		}
	}

	factory, err := auth.Resolve(name)
	if err != nil {
		return nil, err
	}

	flagValues := flagOptionValues()
	opts := make(map[string]string)
	for _, o := range factory.Options() {
		if v, ok := flagValues[o.Name]; ok && v != "" {
			opts[o.Name] = v
			continue
		}
		if o.Env != "" {
			opts[o.Name] = os.Getenv(o.Env)
		}
	}

	plugin, err := factory.New(opts)
	if err != nil {
		return nil, err
	}

	// The password plugin persists its access across runs.
	if pw, ok := plugin.(*auth.Password); ok {
		store, err := tokenStore()
		if err != nil {
			return nil, err
		}
		pw.Store = store
	}

	return plugin, nil
}

// newSession builds an authenticated session from the current flags.
func newSession() (*session.Session, error) {
	plugin, err := buildPlugin()
	if err != nil {
		return nil, err
	}
	return session.New(plugin, httpClient), nil
}

// newUnauthSession builds a session that sends requests without a token.
func newUnauthSession() *session.Session {
	return session.New(nil, httpClient)
}

// newIdentityClient builds the resource client, preferring the explicit
// --endpoint flag over catalog resolution.
func newIdentityClient(ctx context.Context) (*identity.Client, error) {
	sess, err := newSession()
	if err != nil {
		return nil, err
	}
	return identity.NewClient(ctx, sess, globalOpts.endpoint, globalOpts.region)
}
