package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/irscope/pkg/errors"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("converted") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("stage done") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("stage done") }, true},
		{"info at warn level", log.WarnLevel, func(l *log.Logger) { l.Info("converted") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			assert.Equal(t, tt.wantLog, buf.Len() > 0)
		})
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Converted main.kt")

	assert.Contains(t, buf.String(), "Converted main.kt (")
	assert.Contains(t, buf.String(), "s)")
}

func TestLoggerContext(t *testing.T) {
	assert.Same(t, log.Default(), loggerFromContext(context.Background()))

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	got := loggerFromContext(withLogger(context.Background(), custom))
	require.Same(t, custom, got)

	got.Info("served")
	assert.Contains(t, buf.String(), "served")
}

func TestLogLevelResolution(t *testing.T) {
	tests := []struct {
		name      string
		config    string
		env       string
		verbose   bool
		want      log.Level
		wantDebug bool
	}{
		{name: "default", want: log.InfoLevel},
		{name: "config file", config: "log_level = \"debug\"\n", want: log.DebugLevel, wantDebug: true},
		{name: "env", env: "warn", want: log.WarnLevel},
		{name: "env over config", config: "log_level = \"debug\"\n", env: "error", want: log.ErrorLevel},
		{name: "verbose over env", env: "warn", verbose: true, want: log.DebugLevel, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			t.Setenv("IRSCOPE_LOG_LEVEL", tt.env)
			src := writeFile(t, filepath.Join(dir, "main.kt"), kotlinMain)

			args := []string{"convert", src, "-o", filepath.Join(dir, "out.mmd")}
			if tt.config != "" {
				cfg := writeFile(t, filepath.Join(dir, "irscope.toml"), tt.config)
				args = append([]string{"--config", cfg}, args...)
			}
			if tt.verbose {
				args = append([]string{"-v"}, args...)
			}

			var buf bytes.Buffer
			c := New(&buf, LogInfo)
			root := c.RootCommand()
			root.SetArgs(args)
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			captureStatus(t)
			require.NoError(t, root.ExecuteContext(context.Background()))

			assert.Equal(t, tt.want, c.Logger.GetLevel())
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("configuration loaded")))
		})
	}
}

func TestInvalidLogLevelIsConfigError(t *testing.T) {
	dir := isolate(t)
	t.Setenv("IRSCOPE_LOG_LEVEL", "loud")
	src := writeFile(t, filepath.Join(dir, "main.kt"), kotlinMain)

	_, err := runCLI(t, "convert", src)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))
}
