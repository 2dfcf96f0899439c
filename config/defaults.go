package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

const (
	tagDefault  = "default"
	tagRequired = "required"
)

var durationType = reflect.TypeOf(time.Duration(0))

// ProcessDefaults sets every zero field carrying a `default:"value"` tag.
// Nested structs are walked; nil struct pointers are left alone.
//
//	type Config struct {
//	    Roots   []string      `default:"github.com/acme"`
//	    Timeout time.Duration `default:"30s"`
//	}
func ProcessDefaults(cfg any) error {
	v, err := structValue(cfg)
	if err != nil {
		return err
	}
	return processStructDefaults(v)
}

func processStructDefaults(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := processStructDefaults(field); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if !field.IsNil() {
				if err := processStructDefaults(field.Elem()); err != nil {
					return err
				}
			}
			continue
		}

		defaultVal, hasDefault := fieldType.Tag.Lookup(tagDefault)
		if !hasDefault || !field.IsZero() {
			continue
		}

		if err := setDefaultValue(field, defaultVal); err != nil {
			return fmt.Errorf("failed to set default value for %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

// setDefaultValue converts a tag string into the field's type.
func setDefaultValue(field reflect.Value, defaultVal string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(defaultVal)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", defaultVal, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.Slice:
		parts := strings.Split(defaultVal, ",")
		slice := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, part := range parts {
			elem, err := castValue(strings.TrimSpace(part), field.Type().Elem())
			if err != nil {
				return err
			}
			slice = reflect.Append(slice, elem)
		}
		field.Set(slice)
		return nil
	case reflect.Map, reflect.Struct, reflect.Chan, reflect.Func, reflect.Interface,
		reflect.Array, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return fmt.Errorf("%w: %s", ErrUnsupportedDefaultType, field.Kind())
	default:
		value, err := castValue(defaultVal, field.Type())
		if err != nil {
			return err
		}
		field.Set(value)
		return nil
	}
}

func castValue(raw string, t reflect.Type) (reflect.Value, error) {
	if t == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		return reflect.ValueOf(d), nil
	}

	converted, err := cast.FromType(raw, t)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("cannot convert %q to %s: %w", raw, t, err)
	}
	return reflect.ValueOf(converted).Convert(t), nil
}

// ValidateRequired checks every field tagged `required:"true"` is non-zero.
func ValidateRequired(cfg any) error {
	v, err := structValue(cfg)
	if err != nil {
		return err
	}

	var missing []string
	validateRequiredFields(v, "", &missing)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigRequiredFieldMissing, strings.Join(missing, ", "))
	}
	return nil
}

func validateRequiredFields(v reflect.Value, prefix string, missing *[]string) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		fieldName := fieldType.Name
		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			validateRequiredFields(field, fieldName, missing)
			continue
		}

		required := fieldType.Tag.Get(tagRequired) == "true"
		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct && !field.IsNil() {
			validateRequiredFields(field.Elem(), fieldName, missing)
			continue
		}

		if required && field.IsZero() {
			*missing = append(*missing, fieldName)
		}
	}
}

// Validate applies defaults, checks required fields and then calls the
// target's own Validate method if it has one.
func Validate(cfg any) error {
	if err := ProcessDefaults(cfg); err != nil {
		return err
	}
	if err := ValidateRequired(cfg); err != nil {
		return err
	}
	if validator, ok := cfg.(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrConfigValidationFailed, err)
		}
	}
	return nil
}

func structValue(cfg any) (reflect.Value, error) {
	if cfg == nil {
		return reflect.Value{}, ErrConfigNil
	}
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, ErrConfigNotPointer
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, ErrConfigNotStruct
	}
	return v, nil
}
