package beans

import (
	"fmt"
	"reflect"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/GoCodeAlone/beans/registry"
)

// Scope re-exports registry.Scope so callers rarely need the registry package.
type Scope = registry.Scope

const (
	ScopeSingleton = registry.ScopeSingleton
	ScopePrototype = registry.ScopePrototype
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Component is a catalog entry marking a struct type as container managed.
// It is only validated ("loaded") when a scan picks it up.
type Component struct {
	sample   any
	name     string
	scope    Scope
	rawCtors []ctorDecl
}

type ctorDecl struct {
	fn        any
	autowired bool
}

// ComponentOption configures a component declaration.
type ComponentOption func(*Component)

// Named sets the explicit bean name. An empty name keeps the derived one.
func Named(name string) ComponentOption {
	return func(c *Component) {
		c.name = name
	}
}

// WithScope sets the bean scope. The default, also used for an empty
// scope, is ScopeSingleton.
func WithScope(scope Scope) ComponentOption {
	return func(c *Component) {
		c.scope = scope
	}
}

// Prototype is shorthand for WithScope(ScopePrototype).
func Prototype() ComponentOption {
	return WithScope(ScopePrototype)
}

// Constructor declares a candidate constructor. fn must be a function
// returning *T or (*T, error); its parameters are resolved by type.
func Constructor(fn any) ComponentOption {
	return func(c *Component) {
		c.rawCtors = append(c.rawCtors, ctorDecl{fn: fn})
	}
}

// AutowiredConstructor declares the constructor the container must use.
func AutowiredConstructor(fn any) ComponentOption {
	return func(c *Component) {
		c.rawCtors = append(c.rawCtors, ctorDecl{fn: fn, autowired: true})
	}
}

func newComponent(sample any, opts ...ComponentOption) *Component {
	c := &Component{sample: sample, scope: registry.DefaultScope()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the normalised bean type (pointer to struct) or nil when the
// sample is not a struct.
func (c *Component) Type() reflect.Type {
	t := reflect.TypeOf(c.sample)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Struct {
		return reflect.PointerTo(t)
	}
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct {
		return t
	}
	return nil
}

// PkgPath returns the Go package path of the component type. It is known
// for any named sample type, valid or not, so the scanner can report
// components that fail to load.
func (c *Component) PkgPath() string {
	t := reflect.TypeOf(c.sample)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.PkgPath()
}

func (c *Component) String() string {
	if t := c.Type(); t != nil {
		return t.Elem().String()
	}
	return fmt.Sprintf("%T", c.sample)
}

// definition validates the component and builds its bean definition.
func (c *Component) definition(source string) (*registry.Definition, error) {
	t := c.Type()
	if t == nil {
		return nil, fmt.Errorf("%w: %T is not a struct or pointer to struct", ErrInvalidComponent, c.sample)
	}

	name := c.name
	if name == "" {
		name = decapitalize(t.Elem().Name())
	}
	if name == "" {
		return nil, fmt.Errorf("%w: anonymous struct %s needs an explicit name", ErrInvalidComponent, t)
	}

	scope, err := registry.ParseScope(string(c.scope))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidComponent, t, err)
	}

	ctors := make([]registry.Constructor, 0, len(c.rawCtors))
	for i, decl := range c.rawCtors {
		fn := reflect.ValueOf(decl.fn)
		if err := validateConstructor(fn, t); err != nil {
			return nil, fmt.Errorf("%w: %s: constructor #%d: %w", ErrInvalidComponent, t, i, err)
		}
		ctors = append(ctors, registry.Constructor{Func: fn, Autowired: decl.autowired})
	}

	return &registry.Definition{
		Name:         name,
		Type:         t,
		Scope:        scope,
		Constructors: ctors,
		Source:       source,
	}, nil
}

func validateConstructor(fn reflect.Value, beanType reflect.Type) error {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return fmt.Errorf("constructor must be a non-nil function")
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return fmt.Errorf("variadic constructor %s is not supported", ft)
	}
	if ft.NumOut() == 0 || ft.NumOut() > 2 {
		return fmt.Errorf("constructor %s must return (%s) or (%s, error)", ft, beanType, beanType)
	}
	if ft.Out(0) != beanType {
		return fmt.Errorf("constructor %s returns %s, want %s", ft, ft.Out(0), beanType)
	}
	if ft.NumOut() == 2 && ft.Out(1) != errorType {
		return fmt.Errorf("second return value of %s must be error", ft)
	}
	return nil
}

// decapitalize derives a bean name from a type name: the first letter is
// lower-cased unless the first two letters are both upper case, so
// "ServiceA" becomes "serviceA" and "URLResolver" is kept.
func decapitalize(name string) string {
	if name == "" {
		return name
	}
	first, size := utf8.DecodeRuneInString(name)
	if size < len(name) {
		second, _ := utf8.DecodeRuneInString(name[size:])
		if unicode.IsUpper(first) && unicode.IsUpper(second) {
			return name
		}
	}
	return string(unicode.ToLower(first)) + name[size:]
}

// Catalog is an ordered list of component declarations that a Scanner can
// enumerate. Packages normally add to DefaultCatalog from init functions.
type Catalog struct {
	mu         sync.Mutex
	name       string
	components []*Component
}

// DefaultCatalog receives the components declared through Provide.
var DefaultCatalog = NewCatalog("default")

// NewCatalog creates an empty catalog
func NewCatalog(name string) *Catalog {
	return &Catalog{name: name}
}

// Name returns the catalog name used in log output and definition sources.
func (c *Catalog) Name() string {
	return c.name
}

// Provide declares sample's type as a component of the catalog.
//
//	func init() {
//	    beans.Provide((*UserService)(nil), beans.Named("users"))
//	}
func (c *Catalog) Provide(sample any, opts ...ComponentOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components = append(c.components, newComponent(sample, opts...))
}

// Components returns a snapshot of the declared components.
func (c *Catalog) Components() []*Component {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Component, len(c.components))
	copy(out, c.components)
	return out
}

// Provide declares a component in DefaultCatalog.
func Provide(sample any, opts ...ComponentOption) {
	DefaultCatalog.Provide(sample, opts...)
}
