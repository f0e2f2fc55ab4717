package walker

import (
	"fmt"
	"sort"
	"sync"
)

// PolicyFactory constructs a policy instance.
type PolicyFactory func() (Policy, error)

// Registry maintains known policy factories so configuration and plugins
// can assign policies to ladder tiers by identifier.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]PolicyFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]PolicyFactory{}}
}

// Register installs a policy factory. Returns an error if the ID already exists.
func (r *Registry) Register(id string, factory PolicyFactory) error {
	if id == "" {
		return fmt.Errorf("walker: policy id is required")
	}
	if factory == nil {
		return fmt.Errorf("walker: policy factory is required for %s", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("walker: policy %s already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(id string, factory PolicyFactory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a policy by ID.
func (r *Registry) Resolve(id string) (Policy, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("walker: unknown policy %s", id)
	}
	return factory()
}

// IDs returns a sorted list of registered policy identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
