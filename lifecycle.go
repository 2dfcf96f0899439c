package beans

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// Lifecycle is a zero-size marker that names a struct's lifecycle hooks.
// Declare it as a blank field; each struct level of a bean may carry one.
//
//	type Cache struct {
//	    _ beans.Lifecycle `postconstruct:"Warm" predestroy:"Flush,Close"`
//	}
//
// Hook methods must be exported, take no arguments and return nothing or a
// single error.
type Lifecycle struct{}

// InitializingBean is implemented by beans that need a callback once their
// dependencies are injected. It runs after every postconstruct hook.
type InitializingBean interface {
	AfterPropertiesSet() error
}

// DisposableBean is implemented by singletons that release resources when
// the container is cleared or destroyed.
type DisposableBean interface {
	Destroy() error
}

const (
	tagPostConstruct = "postconstruct"
	tagPreDestroy    = "predestroy"
)

var lifecycleType = reflect.TypeOf(Lifecycle{})

// hookMethod is a lifecycle method bound to the struct level declaring it.
type hookMethod struct {
	owner reflect.Type
	name  string
	fn    reflect.Value
}

func (h hookMethod) String() string {
	return h.owner.String() + "." + h.name
}

// hooks lists the lifecycle methods of one bean instance, most-derived
// struct level first.
type hooks struct {
	postConstruct []hookMethod
	preDestroy    []hookMethod
}

// discoverHooks reads the Lifecycle markers of every struct level and binds
// the named methods. A missing or badly shaped method is an ErrInvalidHook.
func discoverHooks(instance reflect.Value) (hooks, error) {
	var found hooks

	_, initializing := instance.Interface().(InitializingBean)
	_, disposable := instance.Interface().(DisposableBean)

	for _, level := range structLevels(instance) {
		st := level.value.Type()
		for i := 0; i < st.NumField(); i++ {
			field := st.Field(i)
			if field.Type != lifecycleType {
				continue
			}

			post, err := bindHooks(level.value, field.Tag.Get(tagPostConstruct))
			if err != nil {
				return hooks{}, err
			}
			for _, h := range post {
				// the capability call already covers it
				if initializing && h.name == "AfterPropertiesSet" {
					continue
				}
				found.postConstruct = append(found.postConstruct, h)
			}

			pre, err := bindHooks(level.value, field.Tag.Get(tagPreDestroy))
			if err != nil {
				return hooks{}, err
			}
			for _, h := range pre {
				if disposable && h.name == "Destroy" {
					continue
				}
				found.preDestroy = append(found.preDestroy, h)
			}
		}
	}

	return found, nil
}

func bindHooks(level reflect.Value, tag string) ([]hookMethod, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, nil
	}

	owner := level.Type()
	receiver := level.Addr()

	var bound []hookMethod
	for _, name := range strings.Split(tag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		method := receiver.MethodByName(name)
		if !method.IsValid() {
			return nil, fmt.Errorf("%w: %s has no exported method %s", ErrInvalidHook, owner, name)
		}

		mt := method.Type()
		if mt.NumIn() != 0 {
			return nil, fmt.Errorf("%w: %s.%s must not take parameters", ErrInvalidHook, owner, name)
		}
		if mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
			return nil, fmt.Errorf("%w: %s.%s must return nothing or error", ErrInvalidHook, owner, name)
		}

		bound = append(bound, hookMethod{owner: owner, name: name, fn: method})
	}
	return bound, nil
}

// callHook runs h, turning a returned error or a panic into an error.
func callHook(h hookMethod) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", h, r)
		}
	}()

	out := h.fn.Call(nil)
	if len(out) == 1 && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

func callSafely(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
		}
	}()
	return fn()
}

// postConstruct runs the marked hooks and then AfterPropertiesSet. It
// returns the bean's pre-destroy hooks so the caller can record them once
// the bean is fully created.
func postConstruct(beanName string, instance reflect.Value) ([]hookMethod, error) {
	found, err := discoverHooks(instance)
	if err != nil {
		return nil, creationError(beanName, "", err)
	}

	for _, h := range found.postConstruct {
		if err := callHook(h); err != nil {
			return nil, creationError(beanName, "postconstruct "+h.String(), err)
		}
	}

	if ib, ok := instance.Interface().(InitializingBean); ok {
		if err := callSafely("AfterPropertiesSet", ib.AfterPropertiesSet); err != nil {
			return nil, creationError(beanName, "AfterPropertiesSet", err)
		}
	}

	return found.preDestroy, nil
}

type destroyRecord struct {
	beanName string
	hooks    []hookMethod
}

// disposable is a finished singleton considered for the Destroy sweep.
type disposable struct {
	name     string
	instance any
}

// lifecycleManager holds the pre-destroy hooks recorded at creation time.
type lifecycleManager struct {
	mu      sync.Mutex
	records []destroyRecord
	logger  Logger
}

func newLifecycleManager(logger Logger) *lifecycleManager {
	return &lifecycleManager{logger: logger}
}

func (m *lifecycleManager) record(beanName string, preDestroy []hookMethod) {
	if len(preDestroy) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, destroyRecord{beanName: beanName, hooks: preDestroy})
}

func (m *lifecycleManager) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		n += len(r.hooks)
	}
	return n
}

// teardown runs every recorded pre-destroy hook in registration order, then
// Destroy on each disposable singleton in reverse creation order. Every
// failure is logged and collected; the sweep always runs to the end.
// onDestroyed is called once per prototype instance with hooks and once per
// singleton, singletons last and in reverse creation order.
func (m *lifecycleManager) teardown(singletons []disposable, onDestroyed func(name string, err error)) error {
	m.mu.Lock()
	records := m.records
	m.records = nil
	m.mu.Unlock()

	isSingleton := make(map[string]bool, len(singletons))
	for _, s := range singletons {
		isSingleton[s.name] = true
	}
	perBean := make(map[string]error)

	var errs error
	for _, rec := range records {
		var beanErr error
		for _, h := range rec.hooks {
			if err := callHook(h); err != nil {
				m.logger.Error("Pre-destroy hook failed", "bean", rec.beanName, "hook", h.String(), "error", err)
				beanErr = multierr.Append(beanErr, fmt.Errorf("bean %q: predestroy %s: %w", rec.beanName, h, err))
			}
		}
		errs = multierr.Append(errs, beanErr)
		if isSingleton[rec.beanName] {
			perBean[rec.beanName] = beanErr
			continue
		}
		onDestroyed(rec.beanName, beanErr)
	}

	for i := len(singletons) - 1; i >= 0; i-- {
		s := singletons[i]
		beanErr := perBean[s.name]
		if db, ok := s.instance.(DisposableBean); ok {
			if err := callSafely("Destroy", db.Destroy); err != nil {
				m.logger.Error("Destroy failed", "bean", s.name, "error", err)
				err = fmt.Errorf("bean %q: Destroy: %w", s.name, err)
				errs = multierr.Append(errs, err)
				beanErr = multierr.Append(beanErr, err)
			}
		}
		onDestroyed(s.name, beanErr)
	}

	return errs
}
