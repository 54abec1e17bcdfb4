package dataset

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a dataset from its catalog configuration.
type Factory func(ctx context.Context, cfg map[string]any) (Any, error)

// Registry maps dataset type names (as written in a catalog's "type" key)
// to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given type name, replacing any previous one.
func (r *Registry) Register(typeName string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = factory
}

// Get retrieves a factory by type name.
func (r *Registry) Get(typeName string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typeName]
	return f, ok
}

// IsRegistered checks if a dataset type is registered.
func (r *Registry) IsRegistered(typeName string) bool {
	_, ok := r.Get(typeName)
	return ok
}

// Types returns all registered type names (sorted).
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a dataset of the given type.
func (r *Registry) New(ctx context.Context, typeName string, cfg map[string]any) (Any, error) {
	if typeName == "" {
		return nil, fmt.Errorf("dataset type not specified")
	}

	factory, ok := r.Get(typeName)
	if !ok {
		return nil, &UnknownTypeError{
			Type:      typeName,
			Available: r.Types(),
		}
	}
	return factory(ctx, cfg)
}

// UnknownTypeError is returned when an unknown dataset type is requested.
type UnknownTypeError struct {
	Type      string
	Available []string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown dataset type %q\nAvailable types: %v\nHint: Check the type key of the entry in your catalog", e.Type, e.Available)
}
