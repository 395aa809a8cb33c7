// Package explorer holds the client-side state of the interactive explorer:
// the edited source, the cursor, the last converted graph and its
// highlight projection, and the diagnostics list.
//
// [State] is an immutable value. Every transition returns a new State and
// leaves the receiver untouched, so a UI can keep older states around
// (e.g. while a conversion is in flight) without copying.
//
// Conversions are tagged with a sequence number. [State.Schedule] hands out
// the next number; [State.ApplyResult] accepts only the result for the most
// recently scheduled number and drops anything older.
package explorer

import (
	"slices"
	"unicode/utf8"

	"github.com/matzehuels/irscope/pkg/diagnostics"
	"github.com/matzehuels/irscope/pkg/highlight"
	"github.com/matzehuels/irscope/pkg/pipeline"
	"github.com/matzehuels/irscope/pkg/source"
)

// State is a snapshot of the explorer. The zero value is an empty editor.
type State struct {
	text   string
	cursor int
	lines  *source.LineIndex

	raw        string // graph text as received, with annotations
	index      *highlight.Index
	projection highlight.Projection
	hasGraph   bool

	diags   []diagnostics.Diagnostic
	lastErr string

	seq     uint64
	applied uint64
	dirty   bool
}

// New returns a state editing text with the cursor at the start.
func New(text string) State {
	return State{text: text, lines: source.NewLineIndex(text), dirty: true}
}

// Text returns the edited source.
func (s State) Text() string { return s.text }

// Cursor returns the cursor as a byte offset into Text.
func (s State) Cursor() int { return s.cursor }

// Position returns the 1-based line and column of the cursor.
func (s State) Position() (line, column int) {
	return s.lineIndex().Position(s.cursor)
}

// Graph returns the projected graph text, or "" when no graph is available.
func (s State) Graph() string { return s.projection.Text }

// HasGraph reports whether the last applied conversion produced a graph.
func (s State) HasGraph() bool { return s.hasGraph }

// Highlighted returns the ids of the nodes containing the cursor,
// outermost first.
func (s State) Highlighted() []string { return slices.Clone(s.projection.IDs) }

// Diagnostics returns the diagnostics of the last applied conversion.
func (s State) Diagnostics() []diagnostics.Diagnostic { return slices.Clone(s.diags) }

// Err returns the transport error of the last conversion attempt, or "".
func (s State) Err() string { return s.lastErr }

// Seq returns the most recently scheduled sequence number.
func (s State) Seq() uint64 { return s.seq }

// Pending reports whether a scheduled conversion has not been applied yet.
func (s State) Pending() bool { return s.seq > s.applied }

// Dirty reports whether the text changed since the last [State.Schedule].
func (s State) Dirty() bool { return s.dirty }

func (s State) lineIndex() *source.LineIndex {
	if s.lines == nil {
		return source.NewLineIndex(s.text)
	}
	return s.lines
}

// =============================================================================
// Editing
// =============================================================================

// Insert types str at the cursor and moves the cursor past it.
func (s State) Insert(str string) State {
	if str == "" {
		return s
	}
	return s.edit(s.text[:s.cursor]+str+s.text[s.cursor:], s.cursor+len(str))
}

// Delete removes the rune before the cursor (backspace).
func (s State) Delete() State {
	if s.cursor == 0 {
		return s
	}
	_, size := utf8.DecodeLastRuneInString(s.text[:s.cursor])
	return s.edit(s.text[:s.cursor-size]+s.text[s.cursor:], s.cursor-size)
}

// DeleteForward removes the rune after the cursor.
func (s State) DeleteForward() State {
	if s.cursor >= len(s.text) {
		return s
	}
	_, size := utf8.DecodeRuneInString(s.text[s.cursor:])
	return s.edit(s.text[:s.cursor]+s.text[s.cursor+size:], s.cursor)
}

// SetText replaces the whole source, keeping the cursor in bounds.
func (s State) SetText(text string) State {
	if text == s.text {
		return s
	}
	return s.edit(text, min(s.cursor, len(text)))
}

func (s State) edit(text string, cursor int) State {
	s.text = text
	s.lines = source.NewLineIndex(text)
	s.dirty = true
	return s.moveTo(cursor)
}

// =============================================================================
// Cursor movement
// =============================================================================

// Move shifts the cursor by delta runes, clamped to the text.
func (s State) Move(delta int) State {
	c := s.cursor
	for ; delta > 0 && c < len(s.text); delta-- {
		_, size := utf8.DecodeRuneInString(s.text[c:])
		c += size
	}
	for ; delta < 0 && c > 0; delta++ {
		_, size := utf8.DecodeLastRuneInString(s.text[:c])
		c -= size
	}
	return s.moveTo(c)
}

// MoveLine moves the cursor delta lines up (negative) or down, keeping the
// column where the target line is long enough.
func (s State) MoveLine(delta int) State {
	li := s.lineIndex()
	line, col := li.Position(s.cursor)
	target := min(max(line+delta, 1), li.Lines())
	off, ok := li.Offset(target, col)
	if !ok {
		return s
	}
	return s.moveTo(off)
}

// MoveTo places the cursor at a byte offset, clamped to the text and
// snapped back to a rune boundary.
func (s State) MoveTo(offset int) State {
	return s.moveTo(offset)
}

func (s State) moveTo(offset int) State {
	offset = min(max(offset, 0), len(s.text))
	for offset > 0 && offset < len(s.text) && !utf8.RuneStart(s.text[offset]) {
		offset--
	}
	s.cursor = offset
	s.projection = s.project()
	return s
}

// Jump moves the cursor to a diagnostic's location. Diagnostics without a
// location, or with one outside the text, leave the state unchanged.
func (s State) Jump(d diagnostics.Diagnostic) State {
	if !d.Clickable() {
		return s
	}
	off, ok := s.lineIndex().Offset(d.Location.Line, d.Location.Column)
	if !ok {
		return s
	}
	return s.moveTo(off)
}

// =============================================================================
// Conversion results
// =============================================================================

// Schedule reserves the next sequence number for a conversion of the
// current text. Results for earlier numbers are discarded from now on.
func (s State) Schedule() (State, uint64) {
	s.seq++
	s.dirty = false
	return s, s.seq
}

// ApplyResult installs the response of conversion seq. Stale results
// (seq is not the latest scheduled number) and nil responses are ignored.
func (s State) ApplyResult(seq uint64, resp *pipeline.Response) State {
	if seq != s.seq || resp == nil {
		return s
	}
	s.applied = seq
	s.lastErr = ""
	s.diags = slices.Clone(resp.Messages)
	if resp.MermaidGraph == nil {
		s.raw, s.index, s.hasGraph = "", nil, false
	} else {
		s.raw = *resp.MermaidGraph
		s.index = highlight.ParseIndex(s.raw)
		s.hasGraph = true
	}
	s.projection = s.project()
	return s
}

// ApplyError records a failed conversion attempt for seq. The previous
// graph and diagnostics stay visible. Stale errors are ignored.
func (s State) ApplyError(seq uint64, err error) State {
	if seq != s.seq || err == nil {
		return s
	}
	s.applied = seq
	s.lastErr = err.Error()
	return s
}

func (s State) project() highlight.Projection {
	if !s.hasGraph {
		return highlight.Projection{}
	}
	return highlight.ProjectIndex(s.raw, s.index, s.cursor)
}
