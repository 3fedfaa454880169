package backend

import (
	"fmt"
	"sort"
	"sync"

	"g2pd/pkg/types"
)

// Factory creates a Predictor for a variant.
type Factory func(v types.Variant, opts Options) (Predictor, error)

// Registry holds named factories for creating predictors.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory to the registry.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Create instantiates the backend named by v.Backend.
func (r *Registry) Create(v types.Variant, opts Options) (Predictor, error) {
	r.mu.RLock()
	f, ok := r.factories[v.Backend]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend %q for variant %q", v.Backend, v.Name)
	}
	return f(v, opts)
}

// Has returns true if the named factory exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered backend names, sorted.
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
