package registry

import (
	"sync"

	"restfront-gateway/internal/common/logger"
	"restfront-gateway/internal/gateway/mapping"
)

// ResolverState tracks whether the remote resolver is still worth probing.
type ResolverState int

const (
	// ResolverProbing means the resolver has not yet been found missing.
	ResolverProbing ResolverState = iota
	// ResolverUnavailable means a lookup already failed to find the resolver
	// entry; remote resolution is skipped for the rest of the session.
	ResolverUnavailable
)

// Ref is a resolved method reference. A nil Method means neither the remote
// nor the local path produced a callable; callers treat that as "route not
// handled", not as an application error.
type Ref struct {
	Method   mapping.Invoker
	IsRemote bool
}

// Selector resolves (serviceName, methodName) pairs against the registry,
// trying the configured remote resolver first. Resolution runs once per
// mapping at router-build time; the result is captured in the middleware
// closure.
type Selector struct {
	registry     *Registry
	resolverName string
	log          logger.Logger

	mu    sync.Mutex
	state ResolverState
}

// NewSelector builds a selector. An empty resolverName disables the remote
// path entirely.
func NewSelector(reg *Registry, resolverName string, log logger.Logger) *Selector {
	return &Selector{
		registry:     reg,
		resolverName: resolverName,
		log:          log,
		state:        ResolverProbing,
	}
}

// State reports the current resolver state.
func (s *Selector) State() ResolverState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LookupMethod resolves the pair, preferring the remote resolver. When the
// resolver entry itself cannot be found, that is remembered and subsequent
// lookups go straight to the local registry.
func (s *Selector) LookupMethod(serviceName, methodName string) Ref {
	var ref Ref
	if resolver := s.remoteResolver(); resolver != nil {
		if svc := resolver.LookupService(serviceName); svc != nil {
			ref.Method = svc.Method(methodName)
			ref.IsRemote = ref.Method != nil
		}
	}
	if ref.Method == nil {
		ref.IsRemote = false
		if svc := s.registry.LookupService(serviceName); svc != nil {
			ref.Method = svc.Method(methodName)
		}
	}
	if ref.Method == nil {
		s.log.Warn("no invocable method resolved", map[string]interface{}{
			"serviceName": serviceName,
			"methodName":  methodName,
		})
	}
	return ref
}

func (s *Selector) remoteResolver() Resolver {
	if s.resolverName == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == ResolverUnavailable {
		return nil
	}
	entry := s.registry.LookupService(s.resolverName)
	if entry == nil {
		s.state = ResolverUnavailable
		s.log.Warn("remote resolver not found, falling back to local lookups", map[string]interface{}{
			"resolverName": s.resolverName,
		})
		return nil
	}
	resolver, ok := entry.(Resolver)
	if !ok {
		s.state = ResolverUnavailable
		s.log.Warn("registry entry is not a resolver, falling back to local lookups", map[string]interface{}{
			"resolverName": s.resolverName,
		})
		return nil
	}
	return resolver
}
