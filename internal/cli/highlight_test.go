package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/highlight"
	"github.com/matzehuels/irscope/pkg/pipeline"
)

// annotated converts kotlinMain with offset annotations.
func annotated(t *testing.T) string {
	t.Helper()
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	resp, err := runner.Convert(context.Background(), []byte(kotlinMain), pipeline.Options{Language: "kotlin", Offsets: true})
	require.NoError(t, err)
	require.NotNil(t, resp.MermaidGraph)
	return *resp.MermaidGraph
}

func TestHighlightFromStdin(t *testing.T) {
	status := captureStatus(t)
	graph := annotated(t)

	var out bytes.Buffer
	err := runHighlight(strings.NewReader(graph), &out, "", highlightOpts{offset: 21})
	require.NoError(t, err)

	want := highlight.Project(graph, 21)
	assert.Equal(t, strings.TrimSuffix(want.Text, "\n")+"\n", out.String())
	assert.NotContains(t, out.String(), "%% Offset")
	assert.Contains(t, status.String(), want.IDs[len(want.IDs)-1])
}

func TestHighlightAtLineColumn(t *testing.T) {
	captureStatus(t)
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.kt"), kotlinMain)
	graphFile := writeFile(t, filepath.Join(dir, "main.mmd"), annotated(t))

	var byAt, byOffset bytes.Buffer
	require.NoError(t, runHighlight(nil, &byAt, graphFile, highlightOpts{offset: -1, at: "1:22", source: src}))
	require.NoError(t, runHighlight(nil, &byOffset, graphFile, highlightOpts{offset: 21}))
	assert.Equal(t, byOffset.String(), byAt.String())
}

func TestHighlightStripToFile(t *testing.T) {
	captureStatus(t)
	graph := annotated(t)
	out := filepath.Join(t.TempDir(), "plain.mmd")

	require.NoError(t, runHighlight(strings.NewReader(graph), io.Discard, "", highlightOpts{offset: -1, strip: true, output: out}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSuffix(highlight.Strip(graph), "\n")+"\n", string(data))
}

func TestHighlightWithoutAnnotationsWarns(t *testing.T) {
	status := captureStatus(t)
	var out bytes.Buffer
	require.NoError(t, runHighlight(strings.NewReader("graph TD\n  n0[\"x\"]\n"), &out, "", highlightOpts{offset: 0}))
	assert.Contains(t, status.String(), "no offset annotations")
	assert.Equal(t, "graph TD\n  n0[\"x\"]\n", out.String())
}

func TestHighlightErrors(t *testing.T) {
	captureStatus(t)
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.kt"), kotlinMain)

	tests := []struct {
		name string
		opts highlightOpts
		code errors.Code
	}{
		{"no cursor", highlightOpts{offset: -1}, errors.ErrCodeInvalidOffset},
		{"at without source", highlightOpts{offset: -1, at: "1:1"}, errors.ErrCodeInvalidInput},
		{"malformed at", highlightOpts{offset: -1, at: "one:two", source: src}, errors.ErrCodeInvalidOffset},
		{"at outside source", highlightOpts{offset: -1, at: "9:1", source: src}, errors.ErrCodeInvalidOffset},
		{"missing source", highlightOpts{offset: -1, at: "1:1", source: filepath.Join(dir, "nope.kt")}, errors.ErrCodeFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runHighlight(strings.NewReader("graph TD\n"), io.Discard, "", tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "err = %v", err)
		})
	}

	err := runHighlight(nil, io.Discard, filepath.Join(dir, "missing.mmd"), highlightOpts{offset: 0})
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "err = %v", err)
}

func TestParseLineColumn(t *testing.T) {
	tests := []struct {
		in        string
		line, col int
		ok        bool
	}{
		{"1:1", 1, 1, true},
		{"12:40", 12, 40, true},
		{"0:1", 0, 0, false},
		{"1:0", 0, 0, false},
		{"1", 0, 0, false},
		{"a:b", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		line, col, err := parseLineColumn(tt.in)
		assert.Equal(t, tt.ok, err == nil, tt.in)
		assert.Equal(t, tt.line, line, tt.in)
		assert.Equal(t, tt.col, col, tt.in)
	}
}
