package beans

import (
	"context"
	"reflect"
)

// BeanFactory looks up beans. Container implements it, and a field or
// constructor parameter of type BeanFactory is injected with a handle bound
// to the creation in progress:
//
//	type Reporter struct {
//	    Beans beans.BeanFactory `inject:""`
//	}
//
//	func (r *Reporter) AfterPropertiesSet() error {
//	    _, err := r.Beans.GetBean("formatter")
//	    return err
//	}
//
// While the bean is being built, lookups through the handle join that
// creation instead of waiting for the creation lock, so constructors and
// hooks can reach other beans, circular references included. Those lookups
// must happen on the creating goroutine. Once creation finishes the handle
// behaves like the container.
type BeanFactory interface {
	GetBean(name string) (any, error)
	GetBeanByType(t reflect.Type) (any, error)
	ContainsBean(name string) bool
}

var (
	_ BeanFactory = (*Container)(nil)
	_ BeanFactory = (*sessionFactory)(nil)

	beanFactoryType = reflect.TypeFor[BeanFactory]()
)

type sessionFactory struct {
	c *Container
	s *session
}

// ctx returns the session context while the session is live.
func (f *sessionFactory) ctx() context.Context {
	if f.s.active() {
		return f.s.ctx
	}
	return context.Background()
}

func (f *sessionFactory) GetBean(name string) (any, error) {
	return f.c.GetBeanContext(f.ctx(), name)
}

func (f *sessionFactory) GetBeanByType(t reflect.Type) (any, error) {
	return f.c.GetBeanByTypeContext(f.ctx(), t)
}

func (f *sessionFactory) ContainsBean(name string) bool {
	return f.c.ContainsBean(name)
}
