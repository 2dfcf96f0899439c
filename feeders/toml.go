package feeders

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/golobby/config/v3/pkg/feeder"
)

// TomlFeeder is a feeder that reads TOML files
type TomlFeeder struct {
	feeder.Toml
}

func NewTomlFeeder(filePath string) TomlFeeder {
	return TomlFeeder{feeder.Toml{Path: filePath}}
}

// Feed decodes the whole file into target.
func (t TomlFeeder) Feed(target any) error {
	if err := t.Toml.Feed(target); err != nil {
		return fmt.Errorf("toml feed error: %w", err)
	}
	return nil
}

// FeedKey reads a TOML file and extracts a specific key
func (t TomlFeeder) FeedKey(key string, target any) error {
	return feedKey(t, key, target, toml.Marshal, toml.Unmarshal, "TOML file")
}

// Location returns the file path.
func (t TomlFeeder) Location() string {
	return t.Path
}
