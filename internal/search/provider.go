// Package search aggregates results from multiple web search providers
// with ordered fallback, deduplication, and early stop.
package search

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-agent/internal/model"
)

// Provider is a single web search backend.
type Provider interface {
	// Name identifies the provider in results and logs.
	Name() string

	// Available reports whether the provider can currently serve requests.
	// Unconfigured credentials and a tripped circuit breaker both report
	// false, letting the aggregator skip to the next provider immediately.
	Available() bool

	// Search returns up to limit results for the query. An empty slice
	// with a nil error means the provider answered with nothing.
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
}

// Registry holds named providers. Registration order is preserved so the
// aggregator can walk providers in priority order.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Registering a duplicate name is an error.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return eris.Errorf("search: provider %q already registered", name)
	}
	r.providers[name] = p
	r.order = append(r.order, name)
	return nil
}

// Get returns the provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// List returns providers in registration order.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

// Ordered returns the providers named in names, in that order, skipping
// unknown names.
func (r *Registry) Ordered(names []string) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(names))
	for _, name := range names {
		if p, ok := r.providers[name]; ok {
			out = append(out, p)
		}
	}
	return out
}
