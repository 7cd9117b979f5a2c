package backend

import (
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
)

// Registry manages connected adapters in enumeration order.
type Registry struct {
	adapters []*Adapter
	mu       sync.RWMutex
}

// NewRegistry creates a new adapter registry.
func NewRegistry(adapters ...*Adapter) *Registry {
	return &Registry{
		adapters: slices.Clone(adapters),
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(a *Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.adapters {
		if existing == a || (a.Handle() != 0 && existing.Handle() == a.Handle()) {
			return errors.Wrapf(ErrAlreadyRegistered, "%s adapter %#x", a.Kind(), uintptr(a.Handle()))
		}
	}

	r.adapters = append(r.adapters, a)
	return nil
}

// Get retrieves the adapter serving kind.
func (r *Registry) Get(kind Kind) (*Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.adapters {
		if a.HasBackend(kind) {
			return a, true
		}
	}
	return nil, false
}

// Lookup is Get returning ErrNotFound when no adapter serves kind.
func (r *Registry) Lookup(kind Kind) (*Adapter, error) {
	if a, ok := r.Get(kind); ok {
		return a, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "backend %s", kind)
}

// List returns a snapshot of the registered adapters.
func (r *Registry) List() []*Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.adapters)
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.adapters)
}

// Close releases every adapter and empties the registry. All adapters are
// released even if some fail; the failures are combined in the result.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs error
	for _, a := range r.adapters {
		if err := a.Release(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	r.adapters = nil

	return errs
}
