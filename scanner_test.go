package beans

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func()

type URLResolver struct{}

func TestCompileRoot(t *testing.T) {
	tests := []struct {
		root  string
		pkg   string
		match bool
	}{
		{"github.com/acme/app", "github.com/acme/app", true},
		{"github.com/acme/app", "github.com/acme/app/internal/db", true},
		{"github.com/acme/app/", "github.com/acme/app/db", true},
		{"github.com/acme/app", "github.com/acme/application", false},
		{"github.com/acme/*", "github.com/acme/app", true},
		{"github.com/acme/*", "github.com/acme/app/db", false},
		{"github.com/acme/**", "github.com/acme/app/db", true},
		{"github.com/*/app/{db,cache}", "github.com/acme/app/cache", true},
		{"github.com/*/app/{db,cache}", "github.com/acme/app/web", false},
	}
	for _, tt := range tests {
		m, err := compileRoot(tt.root)
		require.NoError(t, err, tt.root)
		assert.Equal(t, tt.match, m.Match(tt.pkg), "%s vs %s", tt.root, tt.pkg)
	}

	_, err := compileRoot("  ")
	assert.ErrorIs(t, err, ErrInvalidScanRoot)
	_, err = compileRoot("github.com/[acme")
	assert.ErrorIs(t, err, ErrInvalidScanRoot)
}

func TestScanRegistersComponentsUnderRoots(t *testing.T) {
	catalog := NewCatalog("test")
	catalog.Provide((*ServiceA)(nil))
	catalog.Provide(ServiceB{})
	catalog.Provide((*URLResolver)(nil))
	catalog.Provide((*plainBean)(nil), Named("plain"), Prototype())
	catalog.Provide((*bytes.Buffer)(nil))

	c := newTestContainer(t, WithCatalog(catalog))
	result, err := c.Scan(t.Context(), fixturePkg)
	require.NoError(t, err)
	assert.Equal(t, []string{"serviceA", "serviceB", "URLResolver", "plain"}, result.Registered)
	assert.Empty(t, result.Skipped)

	singleton, err := c.IsSingleton("plain")
	require.NoError(t, err)
	assert.False(t, singleton)
	assert.False(t, c.ContainsBean("buffer"))

	a, err := Get[*ServiceA](c)
	require.NoError(t, err)
	assert.Same(t, a, a.B.A)

	// a second scan of the same roots changes nothing
	again, err := c.Scan(t.Context(), fixturePkg)
	require.NoError(t, err)
	assert.Empty(t, again.Registered)
	assert.Empty(t, again.Skipped)

	other, err := c.Scan(t.Context(), "bytes")
	require.NoError(t, err)
	assert.Equal(t, []string{"buffer"}, other.Registered)

	defs := c.Definitions()
	require.Len(t, defs, 5)
	assert.Equal(t, "test", defs[0].Source)
}

func TestScanSkipsComponentsThatFailToLoad(t *testing.T) {
	catalog := NewCatalog("broken")
	catalog.Provide((*plainBean)(nil))
	catalog.Provide(handlerFunc(nil))
	catalog.Provide((*repo)(nil), Constructor(func() *cache { return nil }))
	catalog.Provide((*cache)(nil), Named("plainBean"))
	catalog.Provide((*ServiceA)(nil), WithScope("request"))
	catalog.Provide((*ServiceB)(nil))

	rec := &recordingLogger{}
	c, err := NewContainer(WithLogger(rec), WithCatalog(catalog), WithoutDefaultCatalog())
	require.NoError(t, err)

	result, err := c.Scan(t.Context(), fixturePkg)
	require.NoError(t, err, "load failures never abort the scan")
	assert.Equal(t, []string{"plainBean", "serviceB"}, result.Registered)
	require.Len(t, result.Skipped, 4)
	assert.ErrorIs(t, result.Skipped[0].Reason, ErrInvalidComponent)
	assert.ErrorIs(t, result.Skipped[2].Reason, ErrBeanAlreadyRegistered)
	assert.Equal(t, 4, rec.count("warn", "Skipping component"))
}

func TestScanGlobRootsAndExclude(t *testing.T) {
	catalog := NewCatalog("glob")
	catalog.Provide((*plainBean)(nil))
	catalog.Provide((*bytes.Buffer)(nil))
	catalog.Provide((*strings.Builder)(nil))

	c := newTestContainer(t, WithCatalog(catalog), WithConfig(&Config{
		ScanRoots: []string{"github.com/*/beans", "{bytes,strings}"},
		Exclude:   []string{"strings"},
	}))

	result, err := c.Scan(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"plainBean", "buffer"}, result.Registered)
}

func TestScanWithoutRoots(t *testing.T) {
	c := newTestContainer(t)
	_, err := c.Scan(t.Context())
	assert.ErrorIs(t, err, ErrInvalidScanRoot)
}

func TestScanEagerSingletons(t *testing.T) {
	catalog := NewCatalog("eager")
	catalog.Provide((*ServiceA)(nil))
	catalog.Provide((*ServiceB)(nil))

	c := newTestContainer(t, WithCatalog(catalog), WithConfig(&Config{EagerSingletons: true}))
	_, err := c.Scan(t.Context(), fixturePkg)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Stats().Singletons)
}

func TestDecapitalize(t *testing.T) {
	tests := map[string]string{
		"ServiceA":    "serviceA",
		"URLResolver": "URLResolver",
		"X":           "x",
		"already":     "already",
		"":            "",
		"Ünicode":     "ünicode",
	}
	for in, want := range tests {
		assert.Equal(t, want, decapitalize(in), in)
	}
}
