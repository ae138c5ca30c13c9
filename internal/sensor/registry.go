package sensor

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps instance names to initialized drivers.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

// Register adds d under d.Name(). Empty and duplicate names are rejected.
func (r *Registry) Register(d Driver) error {
	name := d.Name()
	if name == "" {
		return fmt.Errorf("register driver: empty name: %w", ErrInvalidConfig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drivers[name]; ok {
		return fmt.Errorf("register driver %q: duplicate name: %w", name, ErrInvalidConfig)
	}
	r.drivers[name] = d
	return nil
}

// Lookup returns the driver registered under name.
func (r *Registry) Lookup(name string) (Driver, bool) {
	r.mu.RLock()
	d, ok := r.drivers[name]
	r.mu.RUnlock()
	return d, ok
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.drivers))
	for n := range r.drivers {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of registered drivers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drivers)
}
