package beans

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unsafe"
)

const tagInject = "inject"

// structLevel is one struct in a bean's embedding hierarchy. value is
// addressable and writable even when reached through unexported fields.
type structLevel struct {
	value reflect.Value
}

// structLevels returns the bean struct followed by every embedded struct,
// depth-first in field order. Nil embedded pointers are skipped.
func structLevels(instance reflect.Value) []structLevel {
	var levels []structLevel
	seen := make(map[uintptr]map[reflect.Type]bool)

	var walk func(v reflect.Value)
	walk = func(v reflect.Value) {
		addr := v.UnsafeAddr()
		if seen[addr][v.Type()] {
			return
		}
		if seen[addr] == nil {
			seen[addr] = make(map[reflect.Type]bool)
		}
		seen[addr][v.Type()] = true

		levels = append(levels, structLevel{value: v})

		st := v.Type()
		for i := 0; i < st.NumField(); i++ {
			field := st.Field(i)
			if !field.Anonymous {
				continue
			}
			if _, tagged := field.Tag.Lookup(tagInject); tagged {
				continue
			}
			fv := accessible(v.Field(i))
			switch {
			case fv.Kind() == reflect.Struct && fv.Type() != lifecycleType:
				walk(fv)
			case fv.Kind() == reflect.Ptr && fv.Type().Elem().Kind() == reflect.Struct && !fv.IsNil():
				walk(fv.Elem())
			}
		}
	}

	walk(instance.Elem())
	return levels
}

// accessible returns a writable view of an addressable field, including
// unexported ones.
func accessible(field reflect.Value) reflect.Value {
	if field.CanSet() {
		return field
	}
	return reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
}

// injectOptions is the parsed form of an `inject` tag.
type injectOptions struct {
	required bool
}

// parseInjectTag accepts "", "optional", "required", "required=true" and
// "required=false".
func parseInjectTag(tag string) (injectOptions, error) {
	opts := injectOptions{required: true}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "optional":
			opts.required = false
		case part == "required":
			opts.required = true
		case strings.HasPrefix(part, "required="):
			v, err := strconv.ParseBool(strings.TrimPrefix(part, "required="))
			if err != nil {
				return opts, fmt.Errorf("%w: bad required value in %q", ErrInvalidInjectionPoint, tag)
			}
			opts.required = v
		default:
			return opts, fmt.Errorf("%w: unknown option %q", ErrInvalidInjectionPoint, part)
		}
	}
	return opts, nil
}

func isInjectable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Ptr:
		return t.Elem().Kind() == reflect.Struct
	default:
		return false
	}
}

// injectFields resolves every `inject` tagged field of the bean, most-derived
// struct first, and writes the result into the field.
func (e *engine) injectFields(s *session, beanName string, instance reflect.Value) error {
	for _, level := range structLevels(instance) {
		st := level.value.Type()
		for i := 0; i < st.NumField(); i++ {
			field := st.Field(i)
			tag, ok := field.Tag.Lookup(tagInject)
			if !ok {
				continue
			}

			detail := "field " + st.String() + "." + field.Name
			opts, err := parseInjectTag(tag)
			if err != nil {
				return creationError(beanName, detail, err)
			}
			if !isInjectable(field.Type) {
				return creationError(beanName, detail,
					fmt.Errorf("%w: %s must be a pointer to struct or an interface", ErrInvalidInjectionPoint, field.Type))
			}

			value, err := e.resolveType(s, field.Type)
			if err != nil {
				if !opts.required {
					e.logger.Debug("Optional dependency skipped", "bean", beanName, "field", field.Name, "type", field.Type.String(), "error", err)
					continue
				}
				return creationError(beanName, detail, err)
			}

			accessible(level.value.Field(i)).Set(value)
		}
	}
	return nil
}
