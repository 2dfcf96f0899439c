package beans

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookedReporter struct {
	Beans BeanFactory `inject:""`

	helper *plainBean
	self   any
}

func (r *hookedReporter) AfterPropertiesSet() error {
	helper, err := r.Beans.GetBean("plainBean")
	if err != nil {
		return err
	}
	r.helper = helper.(*plainBean)

	r.self, err = r.Beans.GetBean("hookedReporter")
	return err
}

func TestBeanFactoryLookupsFromHooksJoinTheCreation(t *testing.T) {
	c := newTestContainer(t, WithLockTimeout(200*time.Millisecond))
	require.NoError(t, c.RegisterComponent((*plainBean)(nil)))
	require.NoError(t, c.RegisterComponent((*hookedReporter)(nil)))

	start := time.Now()
	reporter, err := Get[*hookedReporter](c)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
	assert.Same(t, reporter, reporter.self)

	helper, err := c.GetBean("plainBean")
	require.NoError(t, err)
	assert.Same(t, helper, reporter.helper)

	again, err := reporter.Beans.GetBean("plainBean")
	require.NoError(t, err)
	assert.Same(t, helper, again)

	byType, err := reporter.Beans.GetBeanByType(reflect.TypeFor[*plainBean]())
	require.NoError(t, err)
	assert.Same(t, helper, byType)

	assert.True(t, reporter.Beans.ContainsBean("plainBean"))
	assert.False(t, reporter.Beans.ContainsBean("missing"))
}

func TestBeanFactoryHandleUsableAfterCreationFromOtherGoroutines(t *testing.T) {
	c := newTestContainer(t, WithLockTimeout(time.Second))
	require.NoError(t, c.RegisterComponent((*plainBean)(nil)))
	require.NoError(t, c.RegisterComponent((*hookedReporter)(nil)))

	reporter, err := Get[*hookedReporter](c)
	require.NoError(t, err)

	require.NoError(t, c.RegisterComponent((*ServiceA)(nil)))
	require.NoError(t, c.RegisterComponent((*ServiceB)(nil)))

	done := make(chan any)
	go func() {
		a, err := reporter.Beans.GetBean("serviceA")
		assert.NoError(t, err)
		done <- a
	}()

	a, ok := (<-done).(*ServiceA)
	require.True(t, ok)
	assert.Same(t, a, a.B.A)
}

type ctxBuilt struct {
	helper *plainBean
}

func TestConstructorContextJoinsTheCreation(t *testing.T) {
	c := newTestContainer(t, WithLockTimeout(200*time.Millisecond))
	require.NoError(t, c.RegisterComponent((*plainBean)(nil)))
	require.NoError(t, c.RegisterComponent((*ctxBuilt)(nil), Constructor(func(ctx context.Context) (*ctxBuilt, error) {
		helper, err := c.GetBeanContext(ctx, "plainBean")
		if err != nil {
			return nil, err
		}
		return &ctxBuilt{helper: helper.(*plainBean)}, nil
	})))

	built, err := Get[*ctxBuilt](c)
	require.NoError(t, err)
	require.NotNil(t, built.helper)

	helper, err := Get[*plainBean](c)
	require.NoError(t, err)
	assert.Same(t, helper, built.helper)
}

type selfLookup struct{}

func TestReentrantLookupOfBeanInConstructionFailsFast(t *testing.T) {
	c := newTestContainer(t, WithLockTimeout(5*time.Second))
	require.NoError(t, c.RegisterComponent((*selfLookup)(nil), Constructor(func(ctx context.Context) (*selfLookup, error) {
		if _, err := c.GetBeanContext(ctx, "selfLookup"); err != nil {
			return nil, err
		}
		return &selfLookup{}, nil
	})))

	start := time.Now()
	_, err := c.GetBean("selfLookup")
	assert.ErrorIs(t, err, ErrBeanCurrentlyInCreation)
	assert.NotErrorIs(t, err, ErrCreationLockTimeout)
	assert.ErrorContains(t, err, "selfLookup -> selfLookup")
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, c.engine.inCreation)
}
