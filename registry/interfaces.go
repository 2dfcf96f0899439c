// Package registry holds bean definitions and the type index used for
// type-based bean lookup.
package registry

import (
	"errors"
	"fmt"
	"reflect"
)

// Scope defines how many instances the container creates for a definition.
type Scope string

const (
	// ScopeSingleton creates a single instance that is shared for the lifetime
	// of the container. It is created on first access and cached afterwards.
	ScopeSingleton Scope = "singleton"

	// ScopePrototype creates a new instance every time the bean is requested.
	// Prototype instances are never cached.
	ScopePrototype Scope = "prototype"
)

// ErrInvalidScope indicates that an unknown scope name was supplied.
var ErrInvalidScope = errors.New("invalid bean scope")

// String returns the string representation of the scope.
func (s Scope) String() string {
	return string(s)
}

// IsValid returns true if the scope is one of the defined constants.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeSingleton, ScopePrototype:
		return true
	default:
		return false
	}
}

// IsCacheable returns true if instances of this scope are kept by the
// container after creation.
func (s Scope) IsCacheable() bool {
	return s == ScopeSingleton
}

// ParseScope parses a scope name. The empty string yields the default scope.
func ParseScope(s string) (Scope, error) {
	if s == "" {
		return DefaultScope(), nil
	}
	scope := Scope(s)
	if !scope.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidScope, s)
	}
	return scope, nil
}

// DefaultScope returns the scope used when none is requested explicitly.
func DefaultScope() Scope {
	return ScopeSingleton
}

// Constructor is a candidate constructor function declared for a bean.
type Constructor struct {
	// Func is a function returning the bean pointer, optionally followed by an error.
	Func reflect.Value

	// Autowired marks the constructor as the one to use.
	Autowired bool
}

// NumParams returns the number of parameters the constructor takes.
func (c Constructor) NumParams() int {
	return c.Func.Type().NumIn()
}

// Definition is the registered metadata describing how to create a bean.
// A Definition must not be modified after it has been registered.
type Definition struct {
	Name  string
	Type  reflect.Type
	Scope Scope

	// Constructors lists the declared constructors. An empty list means the
	// zero value of the struct is used as the raw instance.
	Constructors []Constructor

	// Source describes where the definition came from, e.g. the catalog
	// entry or "registered" for pre-built objects.
	Source string
}

// IsSingleton reports whether the definition has singleton scope.
func (d *Definition) IsSingleton() bool {
	return d.Scope.IsCacheable()
}

// IsPrototype reports whether the definition has prototype scope.
func (d *Definition) IsPrototype() bool {
	return d.Scope == ScopePrototype
}
