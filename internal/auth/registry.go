package auth

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps plugin names to factories. It is populated at process start
// and read-only thereafter; resolution is deterministic and side-effect-free.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under its name. Registering the same name twice is
// a programming error and fails loudly rather than silently replacing.
func (r *Registry) Register(f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := f.Name()
	if name == "" {
		return fmt.Errorf("auth plugin factory has no name")
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("auth plugin %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Resolve returns the factory registered under name. An empty or unknown
// name yields a *NoMatchingPluginError so callers can translate it into a
// user-facing "unknown auth method" message.
func (r *Registry) Resolve(name string) (Factory, error) {
	if name == "" {
		return nil, &NoMatchingPluginError{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	if !ok {
		return nil, &NoMatchingPluginError{Name: name}
	}
	return f, nil
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry backs the package-level registration functions.
var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry, panicking on conflicts.
// It is intended for init-time registration of built-in plugins.
func Register(f Factory) {
	if err := defaultRegistry.Register(f); err != nil {
		panic(err)
	}
}

// Resolve looks up a factory in the default registry.
func Resolve(name string) (Factory, error) {
	return defaultRegistry.Resolve(name)
}

// Names lists the plugin names in the default registry.
func Names() []string {
	return defaultRegistry.Names()
}
