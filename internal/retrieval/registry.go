package retrieval

import (
	"fmt"
	"sort"

	"NewsNarrator/internal/ports"
)

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]ports.NewsProvider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]ports.NewsProvider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(provider ports.NewsProvider) {
	if r.providers == nil {
		r.providers = map[string]ports.NewsProvider{}
	}
	r.providers[provider.Name()] = provider
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.NewsProvider, error) {
	if provider, ok := r.providers[name]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("provider %s is not registered", name)
}

// ResolveAll resolves names in order, failing on the first unknown one.
func (r *Registry) ResolveAll(names []string) ([]ports.NewsProvider, error) {
	out := make([]ports.NewsProvider, 0, len(names))
	for _, name := range names {
		p, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Names lists registered providers alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
