package beans

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoCodeAlone/beans/registry"
)

// session is one top-level lookup holding the creation lock. Nested lookups
// made while building the graph reuse it instead of locking again. Its ctx
// carries the session, so a lookup made with that ctx from a constructor or
// hook joins the session too.
type session struct {
	engine     *engine
	ctx        context.Context
	chain      []string
	prototypes map[string]bool
	done       atomic.Bool
}

type sessionKey struct{}

func newSession(ctx context.Context) *session {
	s := &session{prototypes: make(map[string]bool)}
	s.ctx = context.WithValue(ctx, sessionKey{}, s)
	return s
}

func (s *session) end() {
	s.done.Store(true)
}

func (s *session) active() bool {
	return !s.done.Load()
}

// joined returns the live session of e carried by ctx, if any.
func (e *engine) joined(ctx context.Context) *session {
	s, ok := ctx.Value(sessionKey{}).(*session)
	if !ok || s.engine != e || !s.active() {
		return nil
	}
	return s
}

// session starts a top-level session. The caller holds the creation lock
// and ends the session before releasing it.
func (e *engine) session(ctx context.Context) *session {
	s := newSession(ctx)
	s.engine = e
	return s
}

func (s *session) push(name string) { s.chain = append(s.chain, name) }
func (s *session) pop()             { s.chain = s.chain[:len(s.chain)-1] }

// path renders the resolution chain ending at name, e.g. "a -> b -> a".
func (s *session) path(name string) string {
	return strings.Join(append(slices.Clone(s.chain), name), " -> ")
}

// engineStats are cumulative counters since the engine was created.
type engineStats struct {
	creations          atomic.Int64
	prototypeCreations atomic.Int64
	failures           atomic.Int64
	destroyFailures    atomic.Int64
}

// engine creates beans. Finished singletons live in a sync.Map read without
// locking; everything else is guarded by lock, a one-slot channel so that
// waiting honours contexts and the configured timeout.
type engine struct {
	registry  *registry.Registry
	lifecycle *lifecycleManager
	logger    Logger
	notify    func(ctx context.Context, eventType string, data any)
	// factory builds the BeanFactory handed to beans created in a session
	factory func(s *session) BeanFactory

	lock        chan struct{}
	lockTimeout time.Duration

	// tier 1: finished singletons
	finished sync.Map
	// creation order of finished, guarded by lock
	order []string
	// tier 2: early references handed to circular dependents
	early map[string]reflect.Value
	// tier 3: factories producing the early reference
	factories  map[string]func() reflect.Value
	inCreation map[string]struct{}

	stats engineStats
}

func newEngine(reg *registry.Registry, logger Logger, lockTimeout time.Duration) *engine {
	return &engine{
		registry:    reg,
		lifecycle:   newLifecycleManager(logger),
		logger:      logger,
		notify:      func(context.Context, string, any) {},
		lock:        make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		early:       make(map[string]reflect.Value),
		factories:   make(map[string]func() reflect.Value),
		inCreation:  make(map[string]struct{}),
	}
}

// acquire takes the creation lock, giving up when ctx ends or the lock
// timeout expires.
func (e *engine) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreationLockTimeout, err)
	}

	select {
	case e.lock <- struct{}{}:
		return e.release, nil
	default:
	}

	if e.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.lockTimeout)
		defer cancel()
	}

	select {
	case e.lock <- struct{}{}:
		return e.release, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrCreationLockTimeout, ctx.Err())
	}
}

func (e *engine) release() {
	<-e.lock
}

// lookup returns a finished singleton without locking.
func (e *engine) lookup(name string) (reflect.Value, bool) {
	v, ok := e.finished.Load(name)
	if !ok {
		return reflect.Value{}, false
	}
	return v.(reflect.Value), true
}

// getBean is the top-level entry: fast path on tier 1, otherwise a new
// session under the creation lock.
func (e *engine) getBean(ctx context.Context, name string) (reflect.Value, error) {
	if v, ok := e.lookup(name); ok {
		return v, nil
	}
	if !e.registry.Contains(name) {
		return reflect.Value{}, &NoSuchBeanError{Name: name}
	}
	if s := e.joined(ctx); s != nil {
		return e.ensure(s, name)
	}

	release, err := e.acquire(ctx)
	if err != nil {
		return reflect.Value{}, err
	}
	defer release()

	s := e.session(ctx)
	defer s.end()
	return e.ensure(s, name)
}

// getBeanByType resolves t to a single bean and returns it viewed as t.
func (e *engine) getBeanByType(ctx context.Context, t reflect.Type) (reflect.Value, error) {
	name, err := e.nameForType(t)
	if err != nil {
		return reflect.Value{}, err
	}
	if v, ok := e.lookup(name); ok {
		return adapt(v, t)
	}
	if s := e.joined(ctx); s != nil {
		return e.resolveType(s, t)
	}

	release, err := e.acquire(ctx)
	if err != nil {
		return reflect.Value{}, err
	}
	defer release()

	s := e.session(ctx)
	defer s.end()
	return e.resolveType(s, t)
}

func (e *engine) nameForType(t reflect.Type) (string, error) {
	names := e.registry.NamesForType(t)
	switch len(names) {
	case 0:
		return "", &NoSuchBeanError{Type: t}
	case 1:
		return names[0], nil
	default:
		return "", &AmbiguousBeanError{Type: t, Candidates: names}
	}
}

// resolveType resolves a dependency of type t inside s. A BeanFactory
// dependency is served by a handle bound to s.
func (e *engine) resolveType(s *session, t reflect.Type) (reflect.Value, error) {
	if t == beanFactoryType && e.factory != nil {
		return reflect.ValueOf(e.factory(s)), nil
	}
	name, err := e.nameForType(t)
	if err != nil {
		return reflect.Value{}, err
	}
	v, err := e.ensure(s, name)
	if err != nil {
		return reflect.Value{}, err
	}
	return adapt(v, t)
}

// ensure returns the bean called name, creating it if needed. The caller
// holds the creation lock.
func (e *engine) ensure(s *session, name string) (reflect.Value, error) {
	if v, ok := e.lookup(name); ok {
		return v, nil
	}

	def, err := e.registry.Get(name)
	if err != nil {
		return reflect.Value{}, &NoSuchBeanError{Name: name}
	}

	if def.IsPrototype() {
		return e.createPrototype(s, def)
	}

	if _, creating := e.inCreation[name]; creating {
		return e.earlyReference(s, name)
	}

	return e.createSingleton(s, def)
}

// earlyReference serves a singleton that is still being built to a circular
// dependent, promoting its factory to an early reference on first use.
func (e *engine) earlyReference(s *session, name string) (reflect.Value, error) {
	if v, ok := e.early[name]; ok {
		return v, nil
	}
	if factory, ok := e.factories[name]; ok {
		v := factory()
		e.early[name] = v
		delete(e.factories, name)
		e.logger.Debug("Early reference exposed", "bean", name, "chain", s.path(name))
		return v, nil
	}
	// still inside its own constructor: nothing to hand out yet
	return reflect.Value{}, creationError(name, "",
		fmt.Errorf("%w: %s", ErrBeanCurrentlyInCreation, s.path(name)))
}

func (e *engine) createSingleton(s *session, def *registry.Definition) (_ reflect.Value, err error) {
	name := def.Name

	e.inCreation[name] = struct{}{}
	s.push(name)
	defer func() {
		s.pop()
		delete(e.inCreation, name)
	}()

	defer func() {
		if err != nil {
			e.finished.Delete(name)
			delete(e.early, name)
			delete(e.factories, name)
			err = asCreationError(name, err)
			e.failed(s.ctx, def, err)
		}
	}()

	instance, err := e.instantiate(s, def)
	if err != nil {
		return reflect.Value{}, err
	}

	e.factories[name] = func() reflect.Value { return instance }

	if err := e.injectFields(s, name, instance); err != nil {
		return reflect.Value{}, err
	}

	preDestroy, err := postConstruct(name, instance)
	if err != nil {
		return reflect.Value{}, err
	}

	delete(e.early, name)
	delete(e.factories, name)
	e.finished.Store(name, instance)
	e.order = append(e.order, name)
	e.lifecycle.record(name, preDestroy)

	e.created(s.ctx, def)
	return instance, nil
}

func (e *engine) createPrototype(s *session, def *registry.Definition) (_ reflect.Value, err error) {
	name := def.Name

	if s.prototypes[name] {
		return reflect.Value{}, creationError(name, "",
			fmt.Errorf("%w: %s", ErrPrototypeCycle, s.path(name)))
	}
	s.prototypes[name] = true
	s.push(name)
	defer func() {
		s.pop()
		delete(s.prototypes, name)
	}()

	defer func() {
		if err != nil {
			err = asCreationError(name, err)
			e.failed(s.ctx, def, err)
		}
	}()

	instance, err := e.instantiate(s, def)
	if err != nil {
		return reflect.Value{}, err
	}
	if err := e.injectFields(s, name, instance); err != nil {
		return reflect.Value{}, err
	}
	preDestroy, err := postConstruct(name, instance)
	if err != nil {
		return reflect.Value{}, err
	}
	e.lifecycle.record(name, preDestroy)

	e.stats.prototypeCreations.Add(1)
	e.created(s.ctx, def)
	return instance, nil
}

func (e *engine) created(ctx context.Context, def *registry.Definition) {
	e.stats.creations.Add(1)
	e.logger.Debug("Bean created", "bean", def.Name, "type", def.Type.String(), "scope", def.Scope.String())
	e.notify(ctx, EventTypeBeanCreated, BeanEventData{
		Name:  def.Name,
		Type:  def.Type.String(),
		Scope: def.Scope.String(),
	})
}

func (e *engine) failed(ctx context.Context, def *registry.Definition, err error) {
	e.stats.failures.Add(1)
	e.logger.Error("Bean creation failed", "bean", def.Name, "error", err)
	e.notify(ctx, EventTypeBeanCreationFailed, BeanEventData{
		Name:  def.Name,
		Type:  def.Type.String(),
		Scope: def.Scope.String(),
		Error: err.Error(),
	})
}

// put registers an externally built singleton and writes it into tier 1 in
// one step under the creation lock, so no lookup sees the definition
// without its instance.
func (e *engine) put(ctx context.Context, def *registry.Definition, instance reflect.Value, register func(*registry.Definition) error) error {
	release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := register(def); err != nil {
		return err
	}
	e.finished.Store(def.Name, instance)
	if !slices.Contains(e.order, def.Name) {
		e.order = append(e.order, def.Name)
	}
	return nil
}

// finishedSingletons lists tier 1 in creation order.
func (e *engine) finishedSingletons() []disposable {
	out := make([]disposable, 0, len(e.order))
	for _, name := range e.order {
		if v, ok := e.lookup(name); ok {
			out = append(out, disposable{name: name, instance: v.Interface()})
		}
	}
	return out
}

// teardown runs the destroy sweep and empties every tier. The caller holds
// the creation lock.
func (e *engine) teardown(ctx context.Context) error {
	err := e.lifecycle.teardown(e.finishedSingletons(), func(name string, hookErr error) {
		if hookErr != nil {
			e.stats.destroyFailures.Add(1)
		}
		data := BeanEventData{Name: name}
		if hookErr != nil {
			data.Error = hookErr.Error()
		}
		e.notify(ctx, EventTypeBeanDestroyed, data)
	})

	e.finished.Clear()
	e.order = nil
	clear(e.early)
	clear(e.factories)
	clear(e.inCreation)
	return err
}

// singletonCount returns the number of finished singletons.
func (e *engine) singletonCount() int {
	n := 0
	e.finished.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// adapt returns v viewed as t. A bean embedding the struct behind t is
// narrowed to the address of that embedded struct.
func adapt(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if t.Kind() == reflect.Ptr && v.Kind() == reflect.Ptr {
		if embedded, ok := findEmbedded(v.Elem(), t); ok {
			return embedded, nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrInvalidInjectionPoint, v.Type(), t)
}

// findEmbedded searches the embedding hierarchy of the struct v for a value
// of pointer type t.
func findEmbedded(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	st := v.Type()
	for i := 0; i < st.NumField(); i++ {
		if !st.Field(i).Anonymous {
			continue
		}
		fv := accessible(v.Field(i))
		switch {
		case fv.Kind() == reflect.Struct:
			if fv.Type() == t.Elem() {
				return fv.Addr(), true
			}
			if found, ok := findEmbedded(fv, t); ok {
				return found, true
			}
		case fv.Kind() == reflect.Ptr && fv.Type().Elem().Kind() == reflect.Struct && !fv.IsNil():
			if fv.Type() == t {
				return fv, true
			}
			if found, ok := findEmbedded(fv.Elem(), t); ok {
				return found, true
			}
		}
	}
	return reflect.Value{}, false
}
