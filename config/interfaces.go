// Package config loads container configuration from a chain of feeders.
//
// Feeders are applied in the order they were added, so later feeders override
// earlier ones. After feeding, `default:"..."` tags fill zero fields,
// `required:"true"` tags are checked and, when the target implements
// Validator, its Validate method is called.
package config

import (
	"errors"
	"time"

	"github.com/golobby/config/v3"
)

// Static errors for configuration package
var (
	ErrConfigNil                  = errors.New("config is nil")
	ErrConfigNotPointer           = errors.New("config must be a pointer")
	ErrConfigNotStruct            = errors.New("config must be a struct")
	ErrConfigRequiredFieldMissing = errors.New("required field is missing")
	ErrConfigValidationFailed     = errors.New("config validation failed")
	ErrConfigFeederError          = errors.New("config feeder error")
	ErrUnsupportedDefaultType     = errors.New("unsupported type for default value")
)

// Feeder populates a struct. It is the golobby/config feeder contract, so the
// stock golobby feeders can be used directly.
type Feeder = config.Feeder

// ComplexFeeder can populate a struct from a single top-level key of its
// source, which lets one file carry several configuration sections.
type ComplexFeeder interface {
	Feeder
	FeedKey(key string, target any) error
}

// Validator is implemented by configuration structs that check themselves
// after defaults have been applied.
type Validator interface {
	Validate() error
}

// Source describes one feeder that took part in a load.
type Source struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Location string    `json:"location,omitempty"`
	Loaded   bool      `json:"loaded"`
	LoadedAt time.Time `json:"loadedAt"`
	Error    string    `json:"error,omitempty"`
}
