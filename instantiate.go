package beans

import (
	"context"
	"fmt"
	"reflect"

	"github.com/GoCodeAlone/beans/registry"
)

// selectConstructor picks the constructor for def:
//  1. the one marked with AutowiredConstructor;
//  2. otherwise the only declared constructor that takes parameters;
//  3. otherwise a declared zero-argument constructor, or the implicit
//     zero-value constructor when none were declared.
//
// A nil constructor with a nil error means the implicit constructor.
func selectConstructor(def *registry.Definition) (*registry.Constructor, error) {
	if len(def.Constructors) == 0 {
		return nil, nil
	}

	var autowired, parameterized, zeroArg []*registry.Constructor
	for i := range def.Constructors {
		c := &def.Constructors[i]
		if c.Autowired {
			autowired = append(autowired, c)
		}
		if c.NumParams() > 0 {
			parameterized = append(parameterized, c)
		} else {
			zeroArg = append(zeroArg, c)
		}
	}

	switch {
	case len(autowired) == 1:
		return autowired[0], nil
	case len(autowired) > 1:
		return nil, fmt.Errorf("%w: %s has %d autowired constructors", ErrNoUsableConstructor, def.Type.Elem(), len(autowired))
	case len(parameterized) == 1:
		return parameterized[0], nil
	case len(zeroArg) > 0:
		return zeroArg[0], nil
	}

	return nil, fmt.Errorf("%w: %s has no autowired constructor, %d parameterized constructors and no zero-argument constructor",
		ErrNoUsableConstructor, def.Type.Elem(), len(parameterized))
}

var contextType = reflect.TypeFor[context.Context]()

// instantiate builds the raw instance of def. Constructor parameters are
// resolved by type within the same session; a context.Context parameter
// receives the session context.
func (e *engine) instantiate(s *session, def *registry.Definition) (reflect.Value, error) {
	ctor, err := selectConstructor(def)
	if err != nil {
		return reflect.Value{}, creationError(def.Name, "", err)
	}
	if ctor == nil {
		return reflect.New(def.Type.Elem()), nil
	}

	ft := ctor.Func.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := range args {
		pt := ft.In(i)
		if pt.Kind() == reflect.Struct {
			return reflect.Value{}, creationError(def.Name, paramDetail(def, i, pt),
				fmt.Errorf("%w: struct values cannot be injected, use %s", ErrInvalidInjectionPoint, reflect.PointerTo(pt)))
		}
		if pt == contextType {
			args[i] = reflect.ValueOf(s.ctx)
			continue
		}
		arg, err := e.resolveType(s, pt)
		if err != nil {
			return reflect.Value{}, creationError(def.Name, paramDetail(def, i, pt), err)
		}
		args[i] = arg
	}

	instance, err := callConstructor(ctor.Func, args)
	if err != nil {
		return reflect.Value{}, creationError(def.Name, "constructor "+ft.String(), err)
	}
	return instance, nil
}

func paramDetail(def *registry.Definition, index int, t reflect.Type) string {
	return fmt.Sprintf("%s constructor parameter %d of type %s", def.Type.Elem(), index, t)
}

func callConstructor(fn reflect.Value, args []reflect.Value) (instance reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructor panicked: %v", r)
		}
	}()

	out := fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	if out[0].IsNil() {
		return reflect.Value{}, ErrNilInstance
	}
	return out[0], nil
}
