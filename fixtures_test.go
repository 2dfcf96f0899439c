package beans

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixturePkg = "github.com/GoCodeAlone/beans"

// newTestContainer builds a container that ignores DefaultCatalog.
func newTestContainer(t *testing.T, opts ...Option) *Container {
	t.Helper()
	opts = append([]Option{WithLogger(&logger{t}), WithoutDefaultCatalog()}, opts...)
	c, err := NewContainer(opts...)
	require.NoError(t, err)
	return c
}

type plainBean struct {
	Value int
}

// ServiceA and ServiceB reference each other through fields.
type ServiceA struct {
	B *ServiceB `inject:""`
}

type ServiceB struct {
	A *ServiceA `inject:""`
}

// callLog records calls in order across beans.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Greeting is implemented by two beans to provoke ambiguity.
type Greeting interface {
	Greet() string
}

type englishGreeting struct{}

func (englishGreeting) Greet() string { return "hello" }

type frenchGreeting struct{}

func (frenchGreeting) Greet() string { return "bonjour" }

var errBoom = errors.New("boom")
