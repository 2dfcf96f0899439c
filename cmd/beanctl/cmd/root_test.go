package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/beans"
	_ "github.com/GoCodeAlone/beans/cmd/beanctl/internal/sample"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, PrintVersion()+"\n", out)
	assert.Contains(t, out, "beanctl vdev")
}

func TestListCommand(t *testing.T) {
	out, stderr, err := execute(t, "list")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{"NAME", "SCOPE", "TYPE", "SOURCE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"clock", "singleton", "*sample.Clock", "default"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"request", "prototype", "*sample.RequestContext", "default"}, strings.Fields(lines[5]))
}

func TestListCommandWithRootOverride(t *testing.T) {
	out, _, err := execute(t, "list", "--root", "github.com/acme/nothing")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"), "only the header is printed")
}

func TestGetCommand(t *testing.T) {
	out, _, err := execute(t, "get", "serviceA")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "serviceA (*sample.ServiceA) singleton=true\n"))
	assert.Contains(t, out, "B: *sample.ServiceB@0x")

	out, _, err = execute(t, "get", "request")
	require.NoError(t, err)
	assert.Contains(t, out, "singleton=false")
	assert.Contains(t, out, "Greeter: *sample.Greeter@0x")

	_, _, err = execute(t, "get", "missing")
	assert.ErrorIs(t, err, beans.ErrNoSuchBean)

	_, _, err = execute(t, "get")
	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	out, _, err := execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "beans_definitions 5\n")
	assert.Contains(t, out, "beans_singletons 4\n")
	assert.Contains(t, out, `beans_created_total{scope="singleton"} 4`)
	assert.Contains(t, out, `beans_created_total{scope="prototype"} 0`)

	out, _, err = execute(t, "stats", "--json")
	require.NoError(t, err)
	var stats beans.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 5, stats.Definitions)
	assert.Equal(t, 4, stats.Singletons)
}

func TestConfigFileAndEnvFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "beans.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("scanRoots: [github.com/acme/nothing]\n"), 0600))

	out, _, err := execute(t, "list", "-c", yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("BEANS_SCAN_ROOTS=github.com/acme/nothing\n"), 0600))
	out, _, err = execute(t, "list", "--env-file", envPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))

	_, _, err = execute(t, "list", "-c", filepath.Join(dir, "beans.ini"))
	assert.ErrorContains(t, err, "unsupported config file type")
}

func TestConfigFeedersOrder(t *testing.T) {
	list, err := configFeeders(&rootOptions{configFile: "app.toml", envFile: ".env"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "app.toml", list[0].(interface{ Location() string }).Location())
	assert.Equal(t, ".env", list[1].(interface{ Location() string }).Location())
}

func TestDescribeFields(t *testing.T) {
	type target struct{}
	type bean struct {
		_     beans.Lifecycle
		Set   *target
		Unset *target
		Count int
	}
	lines := describeFields(&bean{Set: &target{}})
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Set: *cmd.target@0x"))
	assert.Equal(t, "Unset: <nil>", lines[1])
	assert.Nil(t, describeFields(42))
}
