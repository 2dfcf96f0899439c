package feeders

import (
	"encoding/json"
	"fmt"

	"github.com/golobby/config/v3/pkg/feeder"
)

// Feeder interface for common operations
type Feeder interface {
	Feed(target any) error
}

// feedKey extracts one top-level key from a config file and decodes it into
// target. A missing key leaves target untouched.
func feedKey(
	f Feeder,
	key string,
	target any,
	marshalFunc func(any) ([]byte, error),
	unmarshalFunc func([]byte, any) error,
	fileType string,
) error {
	var allData map[string]any
	if err := f.Feed(&allData); err != nil {
		return fmt.Errorf("failed to read %s: %w", fileType, err)
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	// remarshal so the target's own tags drive decoding
	valueBytes, err := marshalFunc(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s data: %w", fileType, err)
	}
	if err = unmarshalFunc(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s data: %w", fileType, err)
	}
	return nil
}

// JSONFeeder reads JSON files.
type JSONFeeder struct {
	feeder.Json
}

// NewJSONFeeder creates a JSONFeeder for the given file.
func NewJSONFeeder(filePath string) JSONFeeder {
	return JSONFeeder{feeder.Json{Path: filePath}}
}

// Feed decodes the whole file into target.
func (j JSONFeeder) Feed(target any) error {
	if err := j.Json.Feed(target); err != nil {
		return fmt.Errorf("json feed error: %w", err)
	}
	return nil
}

// FeedKey decodes a single top-level key into target.
func (j JSONFeeder) FeedKey(key string, target any) error {
	return feedKey(j, key, target, json.Marshal, json.Unmarshal, "JSON file")
}

// Location returns the file path.
func (j JSONFeeder) Location() string {
	return j.Path
}
