package providers

import (
	"errors"
	"sort"
	"sync"
)

// ErrProviderNotFound is returned when a provider id is not registered.
var ErrProviderNotFound = errors.New("provider not found")

// Registry holds the adapters for all configured providers. Registration
// happens once at startup; lookups are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its provider id, replacing any previous
// registration for that id.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return errors.New("adapter cannot be nil")
	}
	if a.ID() == "" {
		return errors.New("adapter id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.ID()] = a
	return nil
}

// Get retrieves the adapter for a provider id.
func (r *Registry) Get(id string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return a, nil
}

// IDs returns all registered provider ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of registered providers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
