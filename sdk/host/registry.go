// Package host holds the dependency container services are bound into at startup.
package host

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrServiceExists   = errors.New("service already registered")
	ErrServiceNotFound = errors.New("service not found")
)

// Container is the part of a host application that accepts shared services.
type Container interface {
	Provide(name string, service any) error
	// Remove unbinds name. Removing a name that is not bound is a no-op.
	Remove(name string)
}

// Registry is a name-keyed Container.
type Registry struct {
	mu       sync.RWMutex
	services map[string]any
}

func NewRegistry() *Registry {
	return &Registry{services: make(map[string]any)}
}

func (r *Registry) Provide(name string, service any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[name]; ok {
		return fmt.Errorf("%w: %s", ErrServiceExists, name)
	}
	r.services[name] = service
	return nil
}

func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.services, name)
}

func (r *Registry) Resolve(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	service, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return service, nil
}

// Lookup resolves name and asserts it to T.
func Lookup[T any](r *Registry, name string) (T, error) {
	var zero T
	service, err := r.Resolve(name)
	if err != nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("service %s has type %T, want %T", name, service, zero)
	}
	return typed, nil
}
