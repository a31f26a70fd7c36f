// ABOUTME: Registry of capability providers keyed by the intents they support.
// ABOUTME: Registration order is stable and decides primary-provider ties.

package capability

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds the registered providers. Lookup order always follows
// registration order, so the first provider registered for an intent is
// its primary handler.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	byName    map[string]Provider
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byName: make(map[string]Provider),
		logger: logger.With("component", "registry"),
	}
}

// Register adds a provider. Duplicate names are rejected.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}

	r.byName[name] = p
	r.providers = append(r.providers, p)
	r.logger.Info("provider registered", "provider", name, "intents", p.SupportedIntents())
	return nil
}

// ProvidersFor returns every provider supporting the intent, in
// registration order.
func (r *Registry) ProvidersFor(intent string) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	for _, p := range r.providers {
		for _, supported := range p.SupportedIntents() {
			if supported == intent {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// PrimaryProviderFor returns the first-registered provider for the intent.
func (r *Registry) PrimaryProviderFor(intent string) (Provider, bool) {
	providers := r.ProvidersFor(intent)
	if len(providers) == 0 {
		return nil, false
	}
	return providers[0], true
}

// Provider returns a provider by name.
func (r *Registry) Provider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// All returns every registered provider in registration order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}
