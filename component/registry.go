package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

// Factory creates a fresh behavior for one attachment.
// Factories must not do I/O; units acquire resources in OnInit or later.
type Factory func(deps Dependencies) (Behavior, error)

// Registration holds the factory and metadata for a host type tag
type Registration struct {
	Tag         string  // Host type tag (e.g. "mp.slot")
	Kind        Kind    // Closed kind the tag maps to
	Description string  // Human-readable description
	Factory     Factory // Factory function
}

// Registry maps host type tags to unit factories
type Registry struct {
	factories map[string]*Registration
	mu        sync.RWMutex
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*Registration)}
}

// Register adds a factory. Registering the same tag twice is an error.
func (r *Registry) Register(reg Registration) error {
	if reg.Tag == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "tag validation")
	}
	if reg.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "factory function validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[reg.Tag]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("factory %q is already registered", reg.Tag),
			"Registry", "Register", "duplicate factory check")
	}
	r.factories[reg.Tag] = &reg
	return nil
}

// Lookup returns the registration for tag
func (r *Registry) Lookup(tag string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.factories[tag]
	if !ok {
		return Registration{}, false
	}
	return *reg, true
}

// Tags returns the registered tags in sorted order
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Create builds a behavior for tag
func (r *Registry) Create(tag string, deps Dependencies) (Behavior, Kind, error) {
	reg, ok := r.Lookup(tag)
	if !ok {
		return nil, KindOther, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownComponentType, tag),
			"Registry", "Create", "factory lookup")
	}
	b, err := reg.Factory(deps)
	if err != nil {
		return nil, KindOther, errors.Wrap(err, "Registry", "Create", fmt.Sprintf("construct %s", tag))
	}
	if b == nil {
		return nil, KindOther, errors.WrapFatal(
			fmt.Errorf("factory for %q returned nil", tag),
			"Registry", "Create", "construct behavior")
	}
	return b, reg.Kind, nil
}
