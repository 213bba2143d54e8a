package providers

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")

	// ErrDuplicatePriority is returned when two providers share a priority
	ErrDuplicatePriority = errors.New("provider priority already in use")
)

// Registry holds the provider set, always iterated in ascending priority
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderID]Provider
	ordered   []Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[ProviderID]Provider),
	}
}

// RegisterProvider registers a provider instance
func (r *Registry) RegisterProvider(provider Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	id := provider.ID()
	if id == "" {
		return errors.New("provider id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("%w: %s", ErrProviderAlreadyRegistered, id)
	}
	for _, p := range r.ordered {
		if p.Priority() == provider.Priority() {
			return fmt.Errorf("%w: %d (%s)", ErrDuplicatePriority, provider.Priority(), p.Name())
		}
	}

	r.providers[id] = provider
	r.ordered = append(r.ordered, provider)
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].Priority() < r.ordered[j].Priority()
	})

	return nil
}

// GetProvider retrieves a provider by id
func (r *Registry) GetProvider(id ProviderID) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[id]
	if !exists {
		return nil, ErrProviderNotFound
	}

	return provider, nil
}

// All returns every registered provider in priority order
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Provider(nil), r.ordered...)
}

// Available returns the configured providers in priority order
func (r *Registry) Available() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	for _, p := range r.ordered {
		if p.IsAvailable() {
			out = append(out, p)
		}
	}
	return out
}

// ListProviders returns all registered provider names in priority order
func (r *Registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ordered))
	for _, p := range r.ordered {
		names = append(names, p.Name())
	}

	return names
}

// GetProviderCount returns the number of registered providers
func (r *Registry) GetProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// ProviderBuilder is a function that creates a provider instance
type ProviderBuilder func(config ProviderConfig) (Provider, error)

// RegistryBuilder helps build a registry with multiple providers
type RegistryBuilder struct {
	registry *Registry
	builders map[ProviderID]ProviderBuilder
}

// NewRegistryBuilder creates a new registry builder
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		registry: NewRegistry(),
		builders: make(map[ProviderID]ProviderBuilder),
	}
}

// WithProviderBuilder registers a provider builder
func (rb *RegistryBuilder) WithProviderBuilder(id ProviderID, builder ProviderBuilder) *RegistryBuilder {
	rb.builders[id] = builder
	return rb
}

// Build creates every provider that has a builder and returns the registry.
// Providers are built in catalogue order so the result does not depend on map iteration.
func (rb *RegistryBuilder) Build(configs map[ProviderID]ProviderConfig) (*Registry, error) {
	for _, d := range catalog {
		builder, ok := rb.builders[d.ID]
		if !ok {
			continue
		}
		provider, err := builder(configs[d.ID])
		if err != nil {
			return nil, fmt.Errorf("failed to build provider %s: %w", d.ID, err)
		}
		if err := rb.registry.RegisterProvider(provider); err != nil {
			return nil, fmt.Errorf("failed to register provider %s: %w", d.ID, err)
		}
	}

	return rb.registry, nil
}
