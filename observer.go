// Package beans provides Observer pattern interfaces for container lifecycle
// events. Events use the CloudEvents specification so they can be forwarded
// to external systems unchanged.
package beans

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Observer is notified of container events it subscribed to.
type Observer interface {
	// OnEvent is called synchronously on the goroutine that caused the event.
	// It may run while the creation lock is held, so it must not request
	// beans that are not created yet.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	ObserverID() string
}

// Subject is implemented by objects that emit events to observers.
type Subject interface {
	// RegisterObserver adds an observer. With no eventTypes the observer
	// receives every event.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. It is idempotent.
	UnregisterObserver(observer Observer) error

	// NotifyObservers delivers an event to every interested observer.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers returns information about registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo provides information about a registered observer.
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// CloudEvent types emitted by the container.
const (
	EventTypeBeanRegistered     = "com.beans.bean.registered"
	EventTypeBeanCreated        = "com.beans.bean.created"
	EventTypeBeanCreationFailed = "com.beans.bean.creation_failed"
	EventTypeBeanDestroyed      = "com.beans.bean.destroyed"
	EventTypeContainerScanned   = "com.beans.container.scanned"
	EventTypeContainerCleared   = "com.beans.container.cleared"
)

// BeanEventData is the payload of bean events.
type BeanEventData struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Scope string `json:"scope,omitempty"`
	Error string `json:"error,omitempty"`
}

// ScanEventData is the payload of container.scanned events.
type ScanEventData struct {
	Roots      []string `json:"roots"`
	Registered int      `json:"registered"`
	Skipped    int      `json:"skipped"`
}

// ErrInvalidObserver is returned when a nil observer or one without an ID is registered.
var ErrInvalidObserver = errors.New("observer must be non-nil and have an ID")

// FunctionalObserver adapts a function to the Observer interface.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer backed by handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{id: id, handler: handler}
}

// OnEvent implements Observer.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements Observer.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

// NewCloudEvent creates a CloudEvent with a time-ordered id.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	for key, value := range metadata {
		event.SetExtension(key, value)
	}
	return event
}

// generateEventID returns a UUIDv7, falling back to v4.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

// observerSet implements Subject. Delivery is synchronous and in
// registration order.
type observerSet struct {
	mu        sync.RWMutex
	observers map[string]*observerRegistration
	order     []string
	logger    Logger
}

func newObserverSet(logger Logger) *observerSet {
	return &observerSet{
		observers: make(map[string]*observerRegistration),
		logger:    logger,
	}
}

func (s *observerSet) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil || observer.ObserverID() == "" {
		return ErrInvalidObserver
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	types := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = true
	}

	id := observer.ObserverID()
	if _, exists := s.observers[id]; !exists {
		s.order = append(s.order, id)
	}
	s.observers[id] = &observerRegistration{
		observer:     observer,
		eventTypes:   types,
		registeredAt: time.Now(),
	}

	s.logger.Debug("Observer registered", "observerID", id, "eventTypes", eventTypes)
	return nil
}

func (s *observerSet) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := observer.ObserverID()
	if _, exists := s.observers[id]; exists {
		delete(s.observers, id)
		s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
		s.logger.Debug("Observer unregistered", "observerID", id)
	}
	return nil
}

func (s *observerSet) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}

	s.mu.RLock()
	targets := make([]*observerRegistration, 0, len(s.order))
	for _, id := range s.order {
		reg := s.observers[id]
		if len(reg.eventTypes) > 0 && !reg.eventTypes[event.Type()] {
			continue
		}
		targets = append(targets, reg)
	}
	s.mu.RUnlock()

	for _, reg := range targets {
		s.deliver(ctx, reg.observer, event)
	}
	return nil
}

func (s *observerSet) deliver(ctx context.Context, observer Observer, event cloudevents.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Observer panicked", "observerID", observer.ObserverID(), "event", event.Type(), "panic", r)
		}
	}()

	if err := observer.OnEvent(ctx, event); err != nil {
		s.logger.Error("Observer error", "observerID", observer.ObserverID(), "event", event.Type(), "error", err)
	}
}

func (s *observerSet) GetObservers() []ObserverInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := make([]ObserverInfo, 0, len(s.order))
	for _, id := range s.order {
		reg := s.observers[id]
		types := make([]string, 0, len(reg.eventTypes))
		for t := range reg.eventTypes {
			types = append(types, t)
		}
		slices.Sort(types)
		info = append(info, ObserverInfo{ID: id, EventTypes: types, RegisteredAt: reg.registeredAt})
	}
	return info
}

func (s *observerSet) empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order) == 0
}
