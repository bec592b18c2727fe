// Package expand keeps track of the available expansion engines by name.
// Engines are registered as factories because most of them need the template
// tree (for includes) before they can be built.
package expand

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-views/pkg/expand/gotext"
	"github.com/goliatone/go-views/pkg/expand/pongo"
	"github.com/goliatone/go-views/pkg/views"
)

// Engine names registered by Default.
const (
	Pongo  = "pongo"
	GoText = "gotext"
)

// Factory builds an expander for the template tree in fsys.
type Factory func(fsys fs.FS) (views.Expander, error)

// Registry stores expander factories by name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Default returns a registry holding the pongo2 and text/template engines.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister(Pongo, func(fsys fs.FS) (views.Expander, error) {
		return pongo.New(pongo.WithFS(fsys))
	})
	r.MustRegister(GoText, func(fs.FS) (views.Expander, error) {
		return gotext.New(), nil
	})
	return r
}

// Register adds a factory. Duplicate names return an error.
func (r *Registry) Register(name string, factory Factory) error {
	name = normalize(name)
	if name == "" {
		return fmt.Errorf("expand: engine name is required")
	}
	if factory == nil {
		return fmt.Errorf("expand: factory for %q is required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("expand: engine %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Build constructs the named engine for fsys.
func (r *Registry) Build(name string, fsys fs.FS) (views.Expander, error) {
	name = normalize(name)

	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("expand: engine %q not found (available: %s)", name, strings.Join(r.List(), ", "))
	}
	expander, err := factory(fsys)
	if err != nil {
		return nil, fmt.Errorf("expand: build %q: %w", name, err)
	}
	return expander, nil
}

// List returns a sorted list of engine names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether an engine is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[normalize(name)]
	return ok
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
