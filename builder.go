package beans

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Option represents a functional option for configuring containers
type Option func(*ContainerBuilder) error

// ObserverFunc is a functional observer that can be registered with the container
type ObserverFunc func(ctx context.Context, event cloudevents.Event) error

type observerEntry struct {
	observer   Observer
	eventTypes []string
}

// ContainerBuilder collects options and builds a Container.
type ContainerBuilder struct {
	logger         Logger
	config         *Config
	catalogs       []*Catalog
	skipDefault    bool
	observers      []observerEntry
	lockTimeout    *time.Duration
	observerFuncID int
}

// NewContainerBuilder creates an empty builder.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{}
}

// NewContainer creates a new container with the provided options.
// WithLogger is required.
func NewContainer(opts ...Option) (*Container, error) {
	builder := NewContainerBuilder()
	for _, opt := range opts {
		if err := opt(builder); err != nil {
			return nil, err
		}
	}
	return builder.Build()
}

// Build constructs the container.
func (b *ContainerBuilder) Build() (*Container, error) {
	if b.logger == nil {
		return nil, ErrLoggerNotSet
	}

	cfg := b.config
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		copied := *cfg
		cfg = &copied
	}
	if b.lockTimeout != nil {
		cfg.LockTimeout = *b.lockTimeout
	}
	if cfg.EventSource == "" {
		cfg.EventSource = DefaultConfig().EventSource
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid container config: %w", err)
	}

	var catalogs []*Catalog
	if !b.skipDefault {
		catalogs = append(catalogs, DefaultCatalog)
	}
	catalogs = append(catalogs, b.catalogs...)

	c := newContainer(cfg, b.logger, catalogs)
	for _, entry := range b.observers {
		if err := c.RegisterObserver(entry.observer, entry.eventTypes...); err != nil {
			return nil, fmt.Errorf("failed to register observer: %w", err)
		}
	}
	return c, nil
}

// WithLogger sets the logger. It is required.
func WithLogger(logger Logger) Option {
	return func(b *ContainerBuilder) error {
		b.logger = logger
		return nil
	}
}

// WithConfig sets the container configuration. The value is copied.
func WithConfig(cfg *Config) Option {
	return func(b *ContainerBuilder) error {
		b.config = cfg
		return nil
	}
}

// WithCatalog adds catalogs scanned in addition to DefaultCatalog.
func WithCatalog(catalogs ...*Catalog) Option {
	return func(b *ContainerBuilder) error {
		b.catalogs = append(b.catalogs, catalogs...)
		return nil
	}
}

// WithoutDefaultCatalog stops Scan from looking at DefaultCatalog.
func WithoutDefaultCatalog() Option {
	return func(b *ContainerBuilder) error {
		b.skipDefault = true
		return nil
	}
}

// WithObserver registers an observer for the given event types, or for all
// events when none are given.
func WithObserver(observer Observer, eventTypes ...string) Option {
	return func(b *ContainerBuilder) error {
		b.observers = append(b.observers, observerEntry{observer: observer, eventTypes: eventTypes})
		return nil
	}
}

// WithObserverFunc registers plain functions as observers of every event.
func WithObserverFunc(observers ...ObserverFunc) Option {
	return func(b *ContainerBuilder) error {
		for _, fn := range observers {
			b.observerFuncID++
			id := fmt.Sprintf("observer-func-%d", b.observerFuncID)
			b.observers = append(b.observers, observerEntry{observer: NewFunctionalObserver(id, fn)})
		}
		return nil
	}
}

// WithLockTimeout overrides Config.LockTimeout.
func WithLockTimeout(timeout time.Duration) Option {
	return func(b *ContainerBuilder) error {
		b.lockTimeout = &timeout
		return nil
	}
}
