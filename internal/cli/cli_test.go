package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kotlinMain = "fun main() { var x = 5 }"

// isolate keeps config discovery away from the developer's files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, k := range []string{"IRSCOPE_ADDR", "IRSCOPE_LANGUAGE", "IRSCOPE_LOG_LEVEL", "IRSCOPE_LIBRARY_ROOTS"} {
		t.Setenv(k, "")
	}
	t.Chdir(dir)
	return dir
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	captureStatus(t)
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootRegistersCommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"convert", "serve", "explore", "highlight", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestConfigFlagIsLoaded(t *testing.T) {
	dir := isolate(t)
	cfg := writeFile(t, filepath.Join(dir, "custom.toml"), "log_level = \"debug\"\n[analysis]\nmax_nodes = 2\n")
	src := writeFile(t, filepath.Join(dir, "main.kt"), kotlinMain)

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"--config", cfg, "convert", src, "-o", filepath.Join(dir, "out.mmd")})
	captureStatus(t)
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, 2, c.Config.Analysis.MaxNodes)
	assert.Equal(t, LogDebug, c.Logger.GetLevel())
}

func TestMissingConfigFails(t *testing.T) {
	dir := isolate(t)
	src := writeFile(t, filepath.Join(dir, "main.kt"), kotlinMain)
	_, err := runCLI(t, "--config", filepath.Join(dir, "nope.toml"), "convert", src)
	require.Error(t, err)
}

func TestVerboseOverridesConfig(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "irscope.toml"), "log_level = \"error\"\n")
	src := writeFile(t, filepath.Join(dir, "main.kt"), kotlinMain)

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"-v", "convert", src, "-o", filepath.Join(dir, "out.mmd")})
	captureStatus(t)
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, LogDebug, c.Logger.GetLevel())
}
