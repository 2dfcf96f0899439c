package beans

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/GoCodeAlone/beans/registry"
)

// Container is a dependency-injection container. It registers components,
// builds object graphs on demand (circular singleton references included)
// and runs lifecycle hooks.
//
// All methods are safe for concurrent use. Creation is serialised by one
// lock shared by every bean; lookups of finished singletons do not lock.
type Container struct {
	cfg       *Config
	logger    Logger
	registry  *registry.Registry
	catalogs  []*Catalog
	observers *observerSet
	engine    *engine
	closed    atomic.Bool

	scanMu  sync.Mutex
	scanned map[*Component]string
}

func newContainer(cfg *Config, logger Logger, catalogs []*Catalog) *Container {
	reg := registry.NewRegistry()
	c := &Container{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		catalogs:  catalogs,
		observers: newObserverSet(logger),
		engine:    newEngine(reg, logger, cfg.LockTimeout),
		scanned:   make(map[*Component]string),
	}
	c.engine.notify = c.emit
	c.engine.factory = func(s *session) BeanFactory {
		return &sessionFactory{c: c, s: s}
	}
	return c
}

// Config returns a copy of the container configuration.
func (c *Container) Config() Config {
	return *c.cfg
}

// Logger returns the container logger.
func (c *Container) Logger() Logger {
	return c.logger
}

// RegisterObserver implements Subject.
func (c *Container) RegisterObserver(observer Observer, eventTypes ...string) error {
	return c.observers.RegisterObserver(observer, eventTypes...)
}

// UnregisterObserver implements Subject.
func (c *Container) UnregisterObserver(observer Observer) error {
	return c.observers.UnregisterObserver(observer)
}

// NotifyObservers implements Subject.
func (c *Container) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	return c.observers.NotifyObservers(ctx, event)
}

// GetObservers implements Subject.
func (c *Container) GetObservers() []ObserverInfo {
	return c.observers.GetObservers()
}

func (c *Container) emit(ctx context.Context, eventType string, data any) {
	if c.observers.empty() {
		return
	}
	event := NewCloudEvent(eventType, c.cfg.EventSource, data, nil)
	if err := c.observers.NotifyObservers(ctx, event); err != nil {
		c.logger.Debug("Failed to notify observers", "event", eventType, "error", err)
	}
}

func (c *Container) checkOpen() error {
	if c.closed.Load() {
		return ErrContainerClosed
	}
	return nil
}

// GetBean returns the bean called name, creating it if needed.
func (c *Container) GetBean(name string) (any, error) {
	return c.GetBeanContext(context.Background(), name)
}

// GetBeanContext is GetBean with a context bounding the wait for the
// creation lock.
func (c *Container) GetBeanContext(ctx context.Context, name string) (any, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	v, err := c.engine.getBean(ctx, name)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// GetBeanByType returns the only bean assignable to t. A struct type is
// treated as a pointer to it.
func (c *Container) GetBeanByType(t reflect.Type) (any, error) {
	return c.GetBeanByTypeContext(context.Background(), t)
}

// GetBeanByTypeContext is GetBeanByType with a context bounding the wait for
// the creation lock.
func (c *Container) GetBeanByTypeContext(ctx context.Context, t reflect.Type) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrInvalidInjectionPoint)
	}
	if t.Kind() == reflect.Struct {
		t = reflect.PointerTo(t)
	}
	v, err := c.getByType(ctx, t)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (c *Container) getByType(ctx context.Context, t reflect.Type) (reflect.Value, error) {
	if err := c.checkOpen(); err != nil {
		return reflect.Value{}, err
	}
	return c.engine.getBeanByType(ctx, t)
}

// Get returns the only bean assignable to T.
//
//	svc, err := beans.Get[*UserService](c)
func Get[T any](c *Container) (T, error) {
	var zero T
	v, err := c.getByType(context.Background(), reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

// GetNamed returns the bean called name viewed as T.
func GetNamed[T any](c *Container, name string) (T, error) {
	var zero T
	if err := c.checkOpen(); err != nil {
		return zero, err
	}
	v, err := c.engine.getBean(context.Background(), name)
	if err != nil {
		return zero, err
	}
	adapted, err := adapt(v, reflect.TypeFor[T]())
	if err != nil {
		return zero, fmt.Errorf("%w: bean %q: %w", ErrBeanNotOfRequiredType, name, err)
	}
	return adapted.Interface().(T), nil
}

// RegisterBean registers an already built object as a singleton. It skips
// injection and post-construct hooks but is indexed by type and takes part
// in the Destroy sweep.
func (c *Container) RegisterBean(name string, instance any) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: empty bean name", ErrInvalidComponent)
	}
	if instance == nil {
		return fmt.Errorf("%w: %s", ErrNilBean, name)
	}
	rv := reflect.ValueOf(instance)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return fmt.Errorf("%w: %s", ErrNilBean, name)
	}

	def := &registry.Definition{
		Name:   name,
		Type:   rv.Type(),
		Scope:  registry.ScopeSingleton,
		Source: "registered",
	}
	if err := c.engine.put(context.Background(), def, rv, c.addDefinition); err != nil {
		return err
	}
	c.registered(def)
	return nil
}

// RegisterComponent registers a component without scanning.
func (c *Container) RegisterComponent(sample any, opts ...ComponentOption) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	def, err := newComponent(sample, opts...).definition("programmatic")
	if err != nil {
		return err
	}
	return c.register(def)
}

func (c *Container) register(def *registry.Definition) error {
	if err := c.addDefinition(def); err != nil {
		return err
	}
	c.registered(def)
	return nil
}

func (c *Container) addDefinition(def *registry.Definition) error {
	if err := c.registry.Register(def); err != nil {
		if errors.Is(err, registry.ErrDefinitionExists) {
			return fmt.Errorf("%w: %s", ErrBeanAlreadyRegistered, def.Name)
		}
		return fmt.Errorf("%w: %w", ErrInvalidComponent, err)
	}
	return nil
}

func (c *Container) registered(def *registry.Definition) {
	c.logger.Debug("Registered bean", "bean", def.Name, "type", def.Type.String(), "scope", def.Scope.String(), "source", def.Source)
	c.emit(context.Background(), EventTypeBeanRegistered, BeanEventData{
		Name:  def.Name,
		Type:  def.Type.String(),
		Scope: def.Scope.String(),
	})
}

// ContainsBean reports whether a bean called name is registered.
func (c *Container) ContainsBean(name string) bool {
	return c.registry.Contains(name)
}

// IsSingleton reports whether the bean called name is a singleton.
func (c *Container) IsSingleton(name string) (bool, error) {
	def, err := c.registry.Get(name)
	if err != nil {
		return false, &NoSuchBeanError{Name: name}
	}
	return def.IsSingleton(), nil
}

// BeanType returns the registered type of the bean called name.
func (c *Container) BeanType(name string) (reflect.Type, error) {
	def, err := c.registry.Get(name)
	if err != nil {
		return nil, &NoSuchBeanError{Name: name}
	}
	return def.Type, nil
}

// BeanNames returns every registered name in registration order.
func (c *Container) BeanNames() []string {
	return c.registry.Names()
}

// BeanNamesForType returns the names of beans assignable to t.
func (c *Container) BeanNamesForType(t reflect.Type) []string {
	if t != nil && t.Kind() == reflect.Struct {
		t = reflect.PointerTo(t)
	}
	return c.registry.NamesForType(t)
}

// Definitions returns every registered definition in registration order.
func (c *Container) Definitions() []*registry.Definition {
	return c.registry.Definitions()
}

// Scan registers the components of the container's catalogs that live
// under roots, or under Config.ScanRoots when no roots are given.
// Components that fail to load are logged and skipped; a component already
// registered by an earlier scan is ignored.
func (c *Container) Scan(ctx context.Context, roots ...string) (ScanResult, error) {
	if err := c.checkOpen(); err != nil {
		return ScanResult{}, err
	}
	if len(roots) == 0 {
		roots = c.cfg.ScanRoots
	}

	scanner, err := NewScanner(c.catalogs, c.cfg.Exclude)
	if err != nil {
		return ScanResult{}, err
	}
	candidates, err := scanner.Candidates(roots...)
	if err != nil {
		return ScanResult{}, err
	}

	c.scanMu.Lock()
	var result ScanResult
	for _, cand := range candidates {
		if _, done := c.scanned[cand.Component]; done {
			continue
		}

		def, err := cand.Component.definition(cand.Catalog)
		if err == nil {
			err = c.register(def)
		}
		if err != nil {
			c.logger.Warn("Skipping component", "component", cand.Component.String(), "catalog", cand.Catalog, "error", err)
			result.Skipped = append(result.Skipped, SkippedComponent{Component: cand.Component.String(), Reason: err})
			continue
		}

		c.scanned[cand.Component] = def.Name
		result.Registered = append(result.Registered, def.Name)
	}
	c.scanMu.Unlock()

	c.logger.Info("Component scan completed", "roots", roots, "registered", len(result.Registered), "skipped", len(result.Skipped))
	c.emit(ctx, EventTypeContainerScanned, ScanEventData{
		Roots:      roots,
		Registered: len(result.Registered),
		Skipped:    len(result.Skipped),
	})

	if c.cfg.EagerSingletons {
		if err := c.PreInstantiateSingletons(ctx); err != nil {
			return result, err
		}
	}
	return result, nil
}

// PreInstantiateSingletons creates every registered singleton in
// registration order and stops at the first failure.
func (c *Container) PreInstantiateSingletons(ctx context.Context) error {
	for _, def := range c.registry.Definitions() {
		if !def.IsSingleton() {
			continue
		}
		if _, err := c.GetBeanContext(ctx, def.Name); err != nil {
			return err
		}
	}
	return nil
}

// Stats is a point-in-time view of the container.
type Stats struct {
	Definitions         int   `json:"definitions"`
	Singletons          int   `json:"singletons"`
	Creations           int64 `json:"creations"`
	PrototypeCreations  int64 `json:"prototypeCreations"`
	CreationFailures    int64 `json:"creationFailures"`
	DestroyFailures     int64 `json:"destroyFailures"`
	PendingDestroyHooks int   `json:"pendingDestroyHooks"`
	Observers           int   `json:"observers"`
}

// Stats returns current counts. Counters are cumulative across Clear.
func (c *Container) Stats() Stats {
	return Stats{
		Definitions:         c.registry.Len(),
		Singletons:          c.engine.singletonCount(),
		Creations:           c.engine.stats.creations.Load(),
		PrototypeCreations:  c.engine.stats.prototypeCreations.Load(),
		CreationFailures:    c.engine.stats.failures.Load(),
		DestroyFailures:     c.engine.stats.destroyFailures.Load(),
		PendingDestroyHooks: c.engine.lifecycle.pending(),
		Observers:           len(c.observers.GetObservers()),
	}
}

// Clear runs every pre-destroy hook and Destroy method, then forgets every
// definition and bean. The container can be used again afterwards. The
// returned error combines all hook failures.
func (c *Container) Clear() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.clear(context.Background())
}

func (c *Container) clear(ctx context.Context) error {
	release, err := c.engine.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	teardownErr := c.engine.teardown(ctx)
	c.registry.Clear()

	c.scanMu.Lock()
	clear(c.scanned)
	c.scanMu.Unlock()

	c.logger.Info("Container cleared")
	c.emit(ctx, EventTypeContainerCleared, nil)
	return teardownErr
}

// Destroy clears the container and closes it. Later calls return
// ErrContainerClosed.
func (c *Container) Destroy() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrContainerClosed
	}
	return c.clear(context.Background())
}

// Close implements io.Closer by calling Destroy.
func (c *Container) Close() error {
	return c.Destroy()
}
