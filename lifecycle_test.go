package beans

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderLog = &callLog{}

type orderedBase struct {
	_ Lifecycle `postconstruct:"BaseInit" predestroy:"BaseStop"`
}

func (o *orderedBase) BaseInit() { orderLog.add("base.postconstruct") }

func (o *orderedBase) BaseStop() error {
	orderLog.add("base.predestroy")
	return nil
}

type orderedBean struct {
	orderedBase
	_ Lifecycle `postconstruct:"Init,Ready" predestroy:"Stop"`

	Dep *plainBean `inject:""`
}

func (o *orderedBean) Init() {
	if o.Dep == nil {
		orderLog.add("init-before-injection")
		return
	}
	orderLog.add("postconstruct.init")
}

func (o *orderedBean) Ready() error {
	orderLog.add("postconstruct.ready")
	return nil
}

func (o *orderedBean) AfterPropertiesSet() error {
	orderLog.add("afterPropertiesSet")
	return nil
}

func (o *orderedBean) Stop() { orderLog.add("predestroy.stop") }

func (o *orderedBean) Destroy() error {
	orderLog.add("destroy")
	return nil
}

func TestLifecycleOrdering(t *testing.T) {
	orderLog = &callLog{}
	c := newTestContainer(t)
	require.NoError(t, c.RegisterComponent((*plainBean)(nil)))
	require.NoError(t, c.RegisterComponent((*orderedBean)(nil)))

	_, err := c.GetBean("orderedBean")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"postconstruct.init",
		"postconstruct.ready",
		"base.postconstruct",
		"afterPropertiesSet",
	}, orderLog.list())

	require.NoError(t, c.Clear())
	assert.Equal(t, []string{
		"postconstruct.init",
		"postconstruct.ready",
		"base.postconstruct",
		"afterPropertiesSet",
		"predestroy.stop",
		"base.predestroy",
		"destroy",
	}, orderLog.list())
}

var teardownLog = &callLog{}

type hookA struct {
	_ Lifecycle `predestroy:"Close"`
}

func (h *hookA) Close() error {
	teardownLog.add("a.close")
	return nil
}

type hookFailing struct {
	_ Lifecycle `predestroy:"Close,After"`
}

func (h *hookFailing) Close() error {
	teardownLog.add("failing.close")
	return errBoom
}

func (h *hookFailing) After() { teardownLog.add("failing.after") }

type hookPanicking struct {
	_ Lifecycle `predestroy:"Close"`
}

func (h *hookPanicking) Close() {
	teardownLog.add("panicking.close")
	panic("kaboom")
}

type disposableOne struct{}

func (d *disposableOne) Destroy() error {
	teardownLog.add("one.destroy")
	return nil
}

type disposableTwo struct{}

func (d *disposableTwo) Destroy() error {
	teardownLog.add("two.destroy")
	return errors.New("two failed")
}

func TestTeardownCompleteness(t *testing.T) {
	teardownLog = &callLog{}
	rec := &recordingLogger{}
	c, err := NewContainer(WithLogger(rec), WithoutDefaultCatalog())
	require.NoError(t, err)

	for _, sample := range []any{(*hookA)(nil), (*hookFailing)(nil), (*hookPanicking)(nil), (*disposableOne)(nil), (*disposableTwo)(nil)} {
		require.NoError(t, c.RegisterComponent(sample))
	}
	require.NoError(t, c.PreInstantiateSingletons(t.Context()))
	assert.Equal(t, 4, c.Stats().PendingDestroyHooks)

	err = c.Clear()
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Contains(t, err.Error(), "two failed")

	assert.Equal(t, []string{
		"a.close",
		"failing.close",
		"failing.after",
		"panicking.close",
		"two.destroy",
		"one.destroy",
	}, teardownLog.list())

	assert.Equal(t, 3, rec.count("error", "Pre-destroy hook failed")+rec.count("error", "Destroy failed"))
	assert.EqualValues(t, 3, c.Stats().DestroyFailures)
	assert.Equal(t, 0, c.Stats().PendingDestroyHooks)

	// every hook runs exactly once
	require.NoError(t, c.Clear())
	assert.Len(t, teardownLog.list(), 6)
}

type badHookParams struct {
	_ Lifecycle `postconstruct:"Init"`
}

func (b *badHookParams) Init(x int) {}

type badPreDestroy struct {
	_ Lifecycle `predestroy:"Stop"`
}

func (b *badPreDestroy) Stop() (int, error) { return 0, nil }

type missingHook struct {
	_ Lifecycle `postconstruct:"nothere"`
}

func TestInvalidHooksFailCreation(t *testing.T) {
	tests := []struct {
		name   string
		sample any
		bean   string
		msg    string
	}{
		{"parameters", (*badHookParams)(nil), "badHookParams", "must not take parameters"},
		{"predestroy checked at creation", (*badPreDestroy)(nil), "badPreDestroy", "must return nothing or error"},
		{"missing method", (*missingHook)(nil), "missingHook", "no exported method nothere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContainer(t)
			require.NoError(t, c.RegisterComponent(tt.sample))

			_, err := c.GetBean(tt.bean)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBeanCreation)
			assert.ErrorIs(t, err, ErrInvalidHook)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

type panickingPostConstruct struct {
	_ Lifecycle `postconstruct:"Init"`
}

func (p *panickingPostConstruct) Init() { panic("init exploded") }

func TestPostConstructPanicIsCreationError(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.RegisterComponent((*panickingPostConstruct)(nil)))

	_, err := c.GetBean("panickingPostConstruct")
	require.Error(t, err)

	var bce *BeanCreationError
	require.ErrorAs(t, err, &bce)
	assert.True(t, strings.HasPrefix(bce.Detail, "postconstruct "))
	assert.Contains(t, err.Error(), "init exploded")
}

type protoWithHook struct {
	_ Lifecycle `predestroy:"Stop"`
}

var protoStops int

func (p *protoWithHook) Stop() { protoStops++ }

func TestPrototypePreDestroyRecordedPerInstance(t *testing.T) {
	protoStops = 0
	c := newTestContainer(t)
	require.NoError(t, c.RegisterComponent((*protoWithHook)(nil), Prototype()))

	for i := 0; i < 3; i++ {
		_, err := c.GetBean("protoWithHook")
		require.NoError(t, err)
	}
	require.NoError(t, c.Clear())
	assert.Equal(t, 3, protoStops)
}
