package config

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/config/v3"
)

// Loader combines feeders and applies defaults and validation after feeding.
type Loader struct {
	*config.Config
	sections map[string]any
	order    []string
	sources  []*Source
}

// NewLoader creates a loader without feeders.
func NewLoader() *Loader {
	return &Loader{
		Config:   config.New(),
		sections: make(map[string]any),
	}
}

// AddFeeder appends feeders. Feeders added later override earlier values.
func (l *Loader) AddFeeder(feeders ...Feeder) *Loader {
	l.Config.AddFeeder(feeders...)
	return l
}

// AddSection registers target to be fed from the top-level key of every
// ComplexFeeder. Plain feeders are applied to it as a whole.
func (l *Loader) AddSection(key string, target any) *Loader {
	if _, exists := l.sections[key]; !exists {
		l.order = append(l.order, key)
	}
	l.sections[key] = target
	return l
}

// Load feeds target from every feeder, then feeds the registered sections,
// and validates each result.
func (l *Loader) Load(ctx context.Context, target any) error {
	if target == nil {
		return ErrConfigNil
	}

	l.sources = l.sources[:0]
	for _, f := range l.Feeders {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("config load cancelled: %w", err)
		}

		src := describeFeeder(f)
		err := f.Feed(target)
		src.LoadedAt = time.Now()
		if err != nil {
			src.Error = err.Error()
			l.sources = append(l.sources, src)
			return fmt.Errorf("%w: %s: %w", ErrConfigFeederError, src.Name, err)
		}
		src.Loaded = true
		l.sources = append(l.sources, src)
	}

	if err := Validate(target); err != nil {
		return err
	}

	for _, key := range l.order {
		section := l.sections[key]
		for _, f := range l.Feeders {
			cf, ok := f.(ComplexFeeder)
			if !ok {
				continue
			}
			if err := cf.FeedKey(key, section); err != nil {
				return fmt.Errorf("%w: section %s: %w", ErrConfigFeederError, key, err)
			}
		}
		if err := Validate(section); err != nil {
			return fmt.Errorf("config validation error for %s: %w", key, err)
		}
	}

	return nil
}

// Sources returns the feeders used by the last Load, in application order.
func (l *Loader) Sources() []*Source {
	out := make([]*Source, len(l.sources))
	copy(out, l.sources)
	return out
}

type locatable interface {
	Location() string
}

func describeFeeder(f Feeder) *Source {
	t := reflect.TypeOf(f)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	src := &Source{
		Name: t.String(),
		Type: strings.ToLower(strings.TrimSuffix(t.Name(), "Feeder")),
	}
	if loc, ok := f.(locatable); ok {
		src.Location = loc.Location()
	}
	return src
}
