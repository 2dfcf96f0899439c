package registry

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Static errors for registry package
var (
	ErrDefinitionNotFound = errors.New("bean definition not found")
	ErrDefinitionExists   = errors.New("bean definition already registered")
	ErrInvalidDefinition  = errors.New("invalid bean definition")
)

// Registry stores bean definitions by name and indexes them by type.
//
// Concrete types and the types of embedded structs and interfaces are indexed
// when a definition is registered. Lookups by an interface that was not
// embedded are answered by checking every definition for an implementation;
// the answer is memoised until the next registration.
type Registry struct {
	mu         sync.RWMutex
	defs       map[string]*Definition
	order      []string
	byType     map[reflect.Type][]string
	ifaceCache map[reflect.Type][]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		defs:       make(map[string]*Definition),
		byType:     make(map[reflect.Type][]string),
		ifaceCache: make(map[reflect.Type][]string),
	}
}

// Register adds a definition and indexes its type hierarchy.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" || def.Type == nil {
		return fmt.Errorf("%w: name and type are required", ErrInvalidDefinition)
	}
	if !def.Scope.IsValid() {
		return fmt.Errorf("%w: %q: %w: %s", ErrInvalidDefinition, def.Name, ErrInvalidScope, def.Scope)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDefinitionExists, def.Name)
	}

	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)

	for _, t := range typeHierarchy(def.Type) {
		r.byType[t] = append(r.byType[t], def.Name)
	}

	// any memoised interface answer may now be incomplete
	clear(r.ifaceCache)
	return nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDefinitionNotFound, name)
	}
	return def, nil
}

// Contains reports whether a definition with the given name exists.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[name]
	return ok
}

// Names returns all definition names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Definitions returns all definitions in registration order.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.defs[name])
	}
	return defs
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// NamesForType returns the names of every definition assignable to t, in
// registration order.
func (r *Registry) NamesForType(t reflect.Type) []string {
	if t == nil {
		return nil
	}

	if t.Kind() != reflect.Interface {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return slices.Clone(r.byType[t])
	}

	r.mu.RLock()
	names, cached := r.ifaceCache[t]
	r.mu.RUnlock()
	if cached {
		return slices.Clone(names)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	names = make([]string, 0)
	for _, name := range r.order {
		if r.defs[name].Type.Implements(t) {
			names = append(names, name)
		}
	}
	r.ifaceCache[t] = names
	return slices.Clone(names)
}

// Clear removes every definition and index entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.defs)
	clear(r.byType)
	clear(r.ifaceCache)
	r.order = nil
}

// typeHierarchy returns t plus every type reachable through embedding: the
// struct behind a pointer, embedded structs (as value and pointer) and
// embedded interfaces.
func typeHierarchy(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	seen := make(map[reflect.Type]bool)

	add := func(t reflect.Type) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	var walk func(reflect.Type)
	walk = func(t reflect.Type) {
		add(t)
		st := t
		if st.Kind() == reflect.Ptr {
			st = st.Elem()
			add(st)
		}
		if st.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < st.NumField(); i++ {
			field := st.Field(i)
			if !field.Anonymous {
				continue
			}
			ft := field.Type
			switch {
			case ft.Kind() == reflect.Interface:
				add(ft)
			case ft.Kind() == reflect.Struct:
				if !seen[ft] {
					walk(reflect.PointerTo(ft))
				}
			case ft.Kind() == reflect.Ptr && ft.Elem().Kind() == reflect.Struct:
				if !seen[ft] {
					walk(ft)
				}
			}
		}
	}

	walk(t)
	return out
}
