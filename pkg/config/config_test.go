package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/irscope/pkg/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "irscope.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// isolate points default lookups at an empty directory and clears overrides.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{EnvAddr, EnvLanguage, EnvLogLevel, EnvLibraryRoots} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "kotlin", cfg.Analysis.Language)
	assert.Zero(t, cfg.Analysis.Timeout)
	assert.Zero(t, cfg.Analysis.MaxNodes)
	assert.Equal(t, 3*time.Second, cfg.Explorer.Debounce)
	assert.Equal(t, log.InfoLevel, cfg.Level())
}

func TestLoadWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, `
log_level = "debug"

[server]
addr = ":9090"
read_timeout = "5s"

[analysis]
language = "go"
library_roots = ["/a", "/b"]
timeout = "10s"
max_nodes = 500

[diagnostics]
deny = ["is never used"]

[explorer]
debounce = "500ms"
server = "http://localhost:9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "go", cfg.Analysis.Language)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Analysis.LibraryRoots)
	assert.Equal(t, 10*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, 500, cfg.Analysis.MaxNodes)
	assert.Equal(t, []string{"is never used"}, cfg.Diagnostics.Deny)
	assert.Equal(t, 500*time.Millisecond, cfg.Explorer.Debounce)
	assert.Equal(t, "http://localhost:9090", cfg.Explorer.Server)
	assert.Equal(t, log.DebugLevel, cfg.Level())
}

func TestLoadDefaultPath(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("irscope.toml", []byte("[server]\naddr = \":7070\"\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	path := writeFile(t, "[server]\naddr = \":9090\"\n")
	t.Setenv(EnvAddr, ":1234")
	t.Setenv(EnvLanguage, "go")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLibraryRoots, "/x"+string(os.PathListSeparator)+"/y")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.Server.Addr)
	assert.Equal(t, "go", cfg.Analysis.Language)
	assert.Equal(t, log.WarnLevel, cfg.Level())
	assert.Equal(t, []string{"/x", "/y"}, cfg.Analysis.LibraryRoots)
}

func TestDotenv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte(EnvAddr+"=:5555\n"), 0o644))
	os.Unsetenv(EnvAddr)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5555", cfg.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	isolate(t)
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"syntax", "[server\naddr = 1", errors.ErrCodeInvalidConfig},
		{"unknown key", "[server]\nport = 80\n", errors.ErrCodeInvalidConfig},
		{"negative nodes", "[analysis]\nmax_nodes = -1\n", errors.ErrCodeInvalidConfig},
		{"negative timeout", "[analysis]\ntimeout = \"-1s\"\n", errors.ErrCodeInvalidConfig},
		{"bad language", "[analysis]\nlanguage = \"../x\"\n", errors.ErrCodeInvalidConfig},
		{"bad server url", "[explorer]\nserver = \"ftp://x\"\n", errors.ErrCodeInvalidConfig},
		{"bad level", "log_level = \"loud\"\n", errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), "error = %v", err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}
