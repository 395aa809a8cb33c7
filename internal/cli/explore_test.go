package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/irscope/pkg/diagnostics"
	"github.com/matzehuels/irscope/pkg/explorer"
	"github.com/matzehuels/irscope/pkg/pipeline"
)

// fixedConverter answers every conversion with the same response.
type fixedConverter struct{ resp *pipeline.Response }

func (f fixedConverter) Convert(context.Context, []byte) (*pipeline.Response, error) {
	return f.resp, nil
}

func localModel(t *testing.T, text string) exploreModel {
	t.Helper()
	conv := explorer.Local{Runner: pipeline.NewRunner(nil, nil, log.New(io.Discard)), Language: "kotlin"}
	return newExploreModel(context.Background(), "main.kt", text, explorer.NewScheduler(conv), time.Millisecond)
}

// step feeds msg to m and runs the returned command, if any, once.
func step(t *testing.T, m exploreModel, msg tea.Msg) (exploreModel, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	var out tea.Msg
	if cmd != nil {
		out = cmd()
	}
	return next.(exploreModel), out
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestExploreInitialConversion(t *testing.T) {
	m := localModel(t, kotlinMain)

	msg := m.Init()()
	m, out := step(t, m, msg)
	require.IsType(t, outcomeMsg{}, out)
	assert.True(t, m.state.Pending())

	m, _ = step(t, m, out)
	assert.False(t, m.state.Pending())
	assert.True(t, m.state.HasGraph())
	assert.Contains(t, m.View(), "main.kt")
}

func TestExploreDebouncesEdits(t *testing.T) {
	m := localModel(t, kotlinMain)

	m, first := step(t, m, runes("x"))
	require.IsType(t, debounceMsg{}, first)
	m, second := step(t, m, key(tea.KeyBackspace))
	require.IsType(t, debounceMsg{}, second)
	assert.Equal(t, kotlinMain, m.state.Text())

	// Only the latest edit's timer triggers a conversion.
	m, out := step(t, m, first)
	assert.Nil(t, out)
	assert.False(t, m.state.Pending())

	m, out = step(t, m, second)
	require.IsType(t, outcomeMsg{}, out)
	m, _ = step(t, m, out)
	assert.True(t, m.state.HasGraph())
}

func TestExploreCursorKeysHighlight(t *testing.T) {
	m := localModel(t, kotlinMain)
	m, out := step(t, m, m.Init()())
	m, _ = step(t, m, out)

	m, cmd := step(t, m, key(tea.KeyHome))
	assert.Nil(t, cmd, "moving must not schedule a conversion")
	assert.Equal(t, 0, m.state.Cursor())

	for range 21 {
		m, _ = step(t, m, key(tea.KeyRight))
	}
	assert.Equal(t, 21, m.state.Cursor())
	assert.NotEmpty(t, m.state.Highlighted())
	assert.Contains(t, m.renderStatus(), m.state.Highlighted()[len(m.state.Highlighted())-1])

	m, _ = step(t, m, key(tea.KeyEnd))
	assert.Equal(t, len(kotlinMain), m.state.Cursor())
}

func TestExploreDiagnosticJump(t *testing.T) {
	resp := &pipeline.Response{
		Messages: []diagnostics.Diagnostic{
			{Severity: "warning", Message: "no location"},
			{Severity: "error", Message: "expecting ')'", Location: &diagnostics.Location{Line: 2, Column: 3}},
		},
	}
	m := newExploreModel(context.Background(), "main.kt", "fun f(\n  x\n", explorer.NewScheduler(fixedConverter{resp}), time.Millisecond)
	m, out := step(t, m, m.Init()())
	m, _ = step(t, m, out)
	require.Len(t, m.state.Diagnostics(), 2)
	assert.False(t, m.state.HasGraph())
	assert.Contains(t, m.View(), "expecting ')'")

	m, _ = step(t, m, key(tea.KeyTab))
	require.True(t, m.focusDiags)

	// Entries without a location do nothing.
	m, _ = step(t, m, key(tea.KeyEnter))
	assert.Equal(t, 0, m.state.Cursor())

	m, _ = step(t, m, key(tea.KeyTab))
	m, _ = step(t, m, key(tea.KeyDown))
	m, _ = step(t, m, key(tea.KeyEnter))
	assert.False(t, m.focusDiags)
	line, col := m.state.Position()
	assert.Equal(t, 2, line)
	assert.Equal(t, 3, col)
}

func TestExploreTabWithoutDiagnostics(t *testing.T) {
	m := localModel(t, kotlinMain)
	m, _ = step(t, m, key(tea.KeyTab))
	assert.False(t, m.focusDiags)
}

func TestExploreSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.kt")
	m := newExploreModel(context.Background(), path, "", explorer.NewScheduler(fixedConverter{&pipeline.Response{}}), time.Millisecond)

	m, _ = step(t, m, runes("fun"))
	m, out := step(t, m, key(tea.KeyCtrlS))
	require.IsType(t, savedMsg{}, out)
	m, _ = step(t, m, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fun", string(data))
	assert.True(t, strings.HasPrefix(m.status, "saved"))
}

func TestExploreQuit(t *testing.T) {
	m := localModel(t, kotlinMain)
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, out := step(t, m, key(k))
		assert.IsType(t, tea.QuitMsg{}, out)
	}
}

func TestWindow(t *testing.T) {
	text := "a\nb\nc\nd\ne"
	assert.Equal(t, "a\nb", window(text, 0, 2, 10))
	assert.Equal(t, "c\nd", window(text, 3, 2, 10))
	assert.Equal(t, "ab", window("abcdef", 0, 1, 2))
}
