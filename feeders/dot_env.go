package feeders

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
	"github.com/joho/godotenv"
)

// DotEnvFeeder reads a .env file and populates fields tagged `env:"NAME"`.
// Variables already present in the process environment win over the file.
type DotEnvFeeder struct {
	Path   string
	logger interface {
		Debug(msg string, args ...any)
	}
}

// NewDotEnvFeeder creates a new DotEnvFeeder that reads from the specified .env file
func NewDotEnvFeeder(filePath string) *DotEnvFeeder {
	return &DotEnvFeeder{Path: filePath}
}

// SetLogger enables debug output for every populated field.
func (f *DotEnvFeeder) SetLogger(logger interface{ Debug(msg string, args ...any) }) {
	f.logger = logger
}

// Location returns the file path.
func (f *DotEnvFeeder) Location() string {
	return f.Path
}

// Feed parses the file and populates structure.
func (f *DotEnvFeeder) Feed(structure any) error {
	vars, err := godotenv.Read(f.Path)
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", f.Path, err)
	}

	rv := reflect.ValueOf(structure)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return wrapDotEnvStructureError(structure)
	}

	return f.populate(rv.Elem(), vars)
}

func (f *DotEnvFeeder) populate(rv reflect.Value, vars map[string]string) error {
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rt.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct && fieldType.Type != reflect.TypeOf(time.Time{}) {
			if err := f.populate(field, vars); err != nil {
				return err
			}
			continue
		}

		name, ok := fieldType.Tag.Lookup("env")
		if !ok || name == "" || name == "-" {
			continue
		}

		value, found := os.LookupEnv(name)
		if !found {
			value, found = vars[name]
		}
		if !found {
			continue
		}

		if err := setField(field, value); err != nil {
			return fmt.Errorf("field %s: %w", fieldType.Name, err)
		}
		if f.logger != nil {
			f.logger.Debug("DotEnvFeeder: populated field", "field", fieldType.Name, "env", name)
		}
	}

	return nil
}

func setField(field reflect.Value, value string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.Slice:
		parts := strings.Split(value, ",")
		slice := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, part := range parts {
			converted, err := cast.FromType(strings.TrimSpace(part), field.Type().Elem())
			if err != nil {
				return fmt.Errorf("cannot convert %q: %w", part, err)
			}
			slice = reflect.Append(slice, reflect.ValueOf(converted).Convert(field.Type().Elem()))
		}
		field.Set(slice)
		return nil
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		converted, err := cast.FromType(value, field.Type())
		if err != nil {
			return fmt.Errorf("cannot convert %q: %w", value, err)
		}
		field.Set(reflect.ValueOf(converted).Convert(field.Type()))
		return nil
	default:
		return wrapDotEnvUnsupportedTypeError(field.Type().String(), field.Kind().String())
	}
}
