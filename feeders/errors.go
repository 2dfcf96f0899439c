package feeders

import (
	"errors"
	"fmt"
)

// DotEnv feeder errors
var (
	ErrDotEnvInvalidStructureType = errors.New("expected pointer to struct")
	ErrDotEnvUnsupportedType      = errors.New("unsupported type")
)

func wrapDotEnvStructureError(got any) error {
	return fmt.Errorf("%w, got %T", ErrDotEnvInvalidStructureType, got)
}

func wrapDotEnvUnsupportedTypeError(field, typeName string) error {
	return fmt.Errorf("%w: %s (%s)", ErrDotEnvUnsupportedType, typeName, field)
}
