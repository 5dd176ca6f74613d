// Package adapter holds the source-adapter registry. Concrete adapters live
// in subpackages and register themselves with the orchestrator at wiring time.
package adapter

import (
	"fmt"

	"github.com/mwhitlock/leadforge/internal/leads"
)

// Registry is an ordered collection of source adapters. Order is the fan-out
// order, which matters only for deterministic tests; adapters run
// concurrently in production.
type Registry struct {
	order    []string
	adapters map[string]leads.SourceAdapter
}

// NewRegistry builds a registry from the given adapters. Duplicate names are
// rejected so a misconfigured deployment fails at startup rather than
// silently shadowing a source.
func NewRegistry(adapters ...leads.SourceAdapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]leads.SourceAdapter, len(adapters))}
	for _, a := range adapters {
		name := a.Name()
		if _, dup := r.adapters[name]; dup {
			return nil, fmt.Errorf("duplicate source adapter %q", name)
		}
		r.adapters[name] = a
		r.order = append(r.order, name)
	}
	return r, nil
}

// All returns the registered adapters in registration order.
func (r *Registry) All() []leads.SourceAdapter {
	out := make([]leads.SourceAdapter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.adapters[name])
	}
	return out
}

// Get returns the adapter registered under name, or nil.
func (r *Registry) Get(name string) leads.SourceAdapter {
	return r.adapters[name]
}

// Names returns the registered source names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
