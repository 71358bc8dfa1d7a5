// Package registry holds the backing service registry and the selector that
// resolves a logical (service, method) pair to an invocable function,
// preferring a configured remote resolver over the local registry.
package registry

import (
	"fmt"
	"sync"

	"restfront-gateway/internal/gateway/mapping"
)

// Service exposes backend operations by method name. A nil return means the
// service does not implement the method.
type Service interface {
	Method(name string) mapping.Invoker
}

// Resolver locates services outside the local registry. A registry entry
// implementing Resolver can serve as the remote-resolver hop.
type Resolver interface {
	LookupService(name string) Service
}

// MethodMap is the simplest Service: a name to invoker table.
type MethodMap map[string]mapping.Invoker

func (m MethodMap) Method(name string) mapping.Invoker {
	return m[name]
}

// Registry is the local name to service table. Registration happens during
// startup wiring; lookups afterwards are read-only.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Service
}

func New() *Registry {
	return &Registry{services: map[string]Service{}}
}

// Register binds a service under name. Re-registering a name is a wiring
// mistake and fails loudly.
func (r *Registry) Register(name string, svc Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[name]; ok {
		return fmt.Errorf("service %q already registered", name)
	}
	r.services[name] = svc
	return nil
}

// LookupService returns the registered service, or nil when unknown.
func (r *Registry) LookupService(name string) Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.services[name]
}
