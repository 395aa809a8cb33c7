// Package source converts between byte offsets and 1-based line/column
// positions in source text. Columns count runes, matching what editors
// display; offsets count bytes, matching analyzer ranges.
package source

import (
	"sort"
	"unicode/utf8"
)

// LineIndex records where each line of a text starts.
type LineIndex struct {
	text   string
	starts []int
}

// NewLineIndex indexes text. Lines are separated by '\n'.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// Lines returns the number of lines; an empty text has one.
func (li *LineIndex) Lines() int { return len(li.starts) }

// Position returns the 1-based line and column of offset. Offsets are
// clamped to the text.
func (li *LineIndex) Position(offset int) (line, column int) {
	offset = max(0, min(offset, len(li.text)))
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return i + 1, utf8.RuneCountInString(li.text[li.starts[i]:offset]) + 1
}

// Offset returns the byte offset of a 1-based line and column. A column past
// the end of its line resolves to the line end. It reports false when line
// or column is below 1 or line is past the last line.
func (li *LineIndex) Offset(line, column int) (int, bool) {
	if line < 1 || column < 1 || line > len(li.starts) {
		return 0, false
	}
	start := li.starts[line-1]
	end := len(li.text)
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}

	off := start
	for col := 1; col < column && off < end; col++ {
		_, size := utf8.DecodeRuneInString(li.text[off:end])
		off += size
	}
	return off, true
}

// LineBounds returns the byte range [start, end) of a 1-based line,
// excluding its newline.
func (li *LineIndex) LineBounds(line int) (start, end int, ok bool) {
	if line < 1 || line > len(li.starts) {
		return 0, 0, false
	}
	start = li.starts[line-1]
	end = len(li.text)
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}
	return start, end, true
}
