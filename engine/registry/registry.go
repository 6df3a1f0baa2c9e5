// Package registry maps variant type tags to factories so that serialized
// triggers and timer jobs can be rebuilt without per-caller type switches.
//
// A registry is populated once at startup and sealed; after Seal it is
// read-only and safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nathoo/trogdor/types"
)

var (
	// ErrUnknownType is returned by Create when no factory is registered
	// under the record's type tag.
	ErrUnknownType = errors.New("unknown type")

	// ErrDuplicate is returned by Register when the tag is already taken.
	ErrDuplicate = errors.New("type already registered")

	// ErrSealed is returned by Register once the registry has been sealed.
	ErrSealed = errors.New("registry is sealed")
)

// Factory rebuilds a value of type T from its serialized record. env carries
// whatever the factory needs to resolve references (entities, runtimes).
type Factory[T any, E any] func(rec types.Record, env E) (T, error)

// Registry is a tag → factory table.
type Registry[T any, E any] struct {
	mu        sync.RWMutex
	name      string
	factories map[string]Factory[T, E]
	sealed    bool
}

// New creates an empty registry. name is used in error messages only.
func New[T any, E any](name string) *Registry[T, E] {
	return &Registry[T, E]{
		name:      name,
		factories: make(map[string]Factory[T, E]),
	}
}

// Register adds a factory under tag. A failed registration leaves the
// registry untouched.
func (r *Registry[T, E]) Register(tag string, f Factory[T, E]) error {
	if tag == "" {
		return fmt.Errorf("%s: cannot register an empty type tag", r.name)
	}
	if f == nil {
		return fmt.Errorf("%s: nil factory for %q", r.name, tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%s: registering %q: %w", r.name, tag, ErrSealed)
	}
	if _, ok := r.factories[tag]; ok {
		return fmt.Errorf("%s: registering %q: %w", r.name, tag, ErrDuplicate)
	}
	r.factories[tag] = f
	return nil
}

// Seal makes the registry read-only.
func (r *Registry[T, E]) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (r *Registry[T, E]) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Has reports whether tag has a factory.
func (r *Registry[T, E]) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// Tags returns the registered tags in sorted order.
func (r *Registry[T, E]) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Create rebuilds a value from rec using the factory registered under
// rec["type"].
func (r *Registry[T, E]) Create(rec types.Record, env E) (T, error) {
	var zero T

	tag := rec.Type()
	if tag == "" {
		return zero, fmt.Errorf("%s: record has no type tag", r.name)
	}

	r.mu.RLock()
	f, ok := r.factories[tag]
	r.mu.RUnlock()

	if !ok {
		return zero, fmt.Errorf("%s: %q: %w", r.name, tag, ErrUnknownType)
	}

	v, err := f(rec, env)
	if err != nil {
		return zero, fmt.Errorf("%s: creating %q: %w", r.name, tag, err)
	}
	return v, nil
}
