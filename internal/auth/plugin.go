package auth

import (
	"context"
	"net/http"

	"idctl/internal/access"
)

// Transport issues HTTP requests on behalf of a plugin. Plugins borrow the
// transport from the calling session; they never own an HTTP client. The
// transport carries its own timeout policy, which is why the plugin contract
// defines none.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Plugin is the capability every authentication strategy implements.
//
// Implementations must be safe for concurrent use: the session layer may call
// AuthenticateToken from multiple in-flight requests at once, and Invalidate
// may race with an exchange completing. The cached access must therefore be
// replaced atomically, never updated field by field.
type Plugin interface {
	// AuthenticateToken obtains or reuses a token. A still-valid cached
	// access is returned without a network exchange; otherwise the plugin
	// performs its provider-specific exchange and caches the result before
	// returning. ErrNoCredentials means this plugin cannot produce a token
	// under current conditions.
	AuthenticateToken(ctx context.Context, tr Transport) (string, error)

	// Endpoint resolves a service URL from whatever catalog or
	// configuration the plugin has. Best effort: ErrEndpointNotFound when
	// nothing matches, never a fabricated guess.
	Endpoint(ctx context.Context, tr Transport, f access.EndpointFilter) (string, error)

	// Invalidate discards cached authentication state, forcing the next
	// AuthenticateToken call to perform a fresh exchange. The return value
	// is the retry-decision signal: true if state existed and was cleared.
	Invalidate() bool
}

// Option describes one configuration parameter a plugin accepts. Options are
// declared by the factory so CLI flags and config schemas can be generated
// without constructing a plugin.
type Option struct {
	// Name is the option key, e.g. "username".
	Name string
	// Env is the environment variable consulted when the option is unset.
	Env string
	// Required marks options that must be present for construction.
	Required bool
	// Default is the value used when the option is absent and not required.
	Default string
	// Help is the one-line description shown in CLI usage.
	Help string
}

// Factory constructs a Plugin from an options map. One factory is registered
// per plugin name; construction is deferred until after registry resolution.
type Factory interface {
	// Name is the identifier the factory registers under.
	Name() string

	// Options declares the configuration schema of the plugin.
	Options() []Option

	// New builds a plugin from the given options, applying declared
	// defaults and validating required options. Missing or contradictory
	// options yield an *InvalidOptionsError.
	New(opts map[string]string) (Plugin, error)
}

// BasePlugin provides the defaulted half of the Plugin contract. Concrete
// plugins embed it and override only what they need: a plugin with no
// catalog resolves no endpoints, and a plugin with no cached state has
// nothing to invalidate.
type BasePlugin struct{}

// Endpoint reports that no endpoint can be resolved.
func (BasePlugin) Endpoint(context.Context, Transport, access.EndpointFilter) (string, error) {
	return "", ErrEndpointNotFound
}

// Invalidate reports that there was nothing to invalidate.
func (BasePlugin) Invalidate() bool { return false }

// checkRequired validates that every required option is present after
// defaults were applied.
func checkRequired(plugin string, decl []Option, opts map[string]string) error {
	for _, o := range decl {
		if o.Required && opts[o.Name] == "" {
			return &InvalidOptionsError{
				Plugin: plugin,
				Reason: "required option " + o.Name + " is missing",
			}
		}
	}
	return nil
}

// applyDefaults returns a copy of opts with declared defaults filled in for
// absent keys.
func applyDefaults(decl []Option, opts map[string]string) map[string]string {
	out := make(map[string]string, len(opts))
	for k, v := range opts {
		out[k] = v
	}
	for _, o := range decl {
		if o.Default != "" && out[o.Name] == "" {
			out[o.Name] = o.Default
		}
	}
	return out
}
