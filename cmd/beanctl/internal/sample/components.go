// Package sample declares the demo components bundled with beanctl.
package sample

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/GoCodeAlone/beans"
)

func init() {
	beans.Provide((*Clock)(nil))
	beans.Provide((*Greeter)(nil), beans.AutowiredConstructor(NewGreeter))
	beans.Provide((*ServiceA)(nil))
	beans.Provide((*ServiceB)(nil))
	beans.Provide((*RequestContext)(nil), beans.Prototype(), beans.Named("request"))
}

// Clock reports the time the container created it.
type Clock struct {
	_ beans.Lifecycle `postconstruct:"Start"`

	started time.Time
}

func (c *Clock) Start() {
	c.started = time.Now()
}

// Started returns when the clock was initialized.
func (c *Clock) Started() time.Time {
	return c.started
}

// Greeter is built through its constructor.
type Greeter struct {
	clock *Clock
}

func NewGreeter(clock *Clock) *Greeter {
	return &Greeter{clock: clock}
}

func (g *Greeter) Greet(name string) string {
	return fmt.Sprintf("hello %s, up since %s", name, g.clock.Started().Format(time.RFC3339))
}

// ServiceA and ServiceB depend on each other.
type ServiceA struct {
	B *ServiceB `inject:""`
}

type ServiceB struct {
	A *ServiceA `inject:""`
}

var requests atomic.Int64

// RequestContext is created anew for each lookup.
type RequestContext struct {
	Greeter *Greeter `inject:""`

	ID int64
}

func (r *RequestContext) AfterPropertiesSet() error {
	r.ID = requests.Add(1)
	return nil
}
