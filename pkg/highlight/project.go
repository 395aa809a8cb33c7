package highlight

import (
	"strings"

	"github.com/matzehuels/irscope/pkg/render/mermaid"
)

// Projection is the outcome of projecting a cursor offset onto graph text.
type Projection struct {
	// Text is the graph text with annotations stripped and highlight
	// classes applied. It is valid input for the renderer.
	Text string
	// IDs lists highlighted nodes, outermost first. Empty when the offset
	// lies outside every range or the text carries no annotations.
	IDs []string
}

// Project highlights every node containing offset in graph text.
//
// When the text has no offset annotations, Project is a no-op and returns the
// text unchanged.
func Project(text string, offset int) Projection {
	return ProjectIndex(text, ParseIndex(text), offset)
}

// ProjectIndex is like [Project] but reuses an index built from the same text,
// which avoids re-parsing on every cursor move.
func ProjectIndex(text string, ix *Index, offset int) Projection {
	if ix == nil || ix.Len() == 0 {
		return Projection{Text: text}
	}

	ids := ix.Containing(offset)
	marked := make(map[int]bool, len(ids))
	for _, id := range ids {
		marked[ix.entries[ix.byID[id]].Line] = true
	}

	lines := strings.Split(text, "\n")
	header := headerLine(lines)
	out := make([]string, 0, len(lines)+1)
	for i, line := range lines {
		line = stripLine(line)
		if marked[i] {
			line += ":::" + Class
		}
		out = append(out, line)
		if i == header && len(ids) > 0 {
			out = append(out, ClassDef)
		}
	}
	return Projection{Text: strings.Join(out, "\n"), IDs: ids}
}

// Strip removes every offset annotation from graph text.
func Strip(text string) string {
	if !strings.Contains(text, mermaid.OffsetDelimiter) {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = stripLine(line)
	}
	return strings.Join(lines, "\n")
}

func stripLine(line string) string {
	if cut := strings.LastIndex(line, mermaid.OffsetDelimiter); cut >= 0 {
		return line[:cut]
	}
	return line
}

// headerLine returns the index of the first non-blank line.
func headerLine(lines []string) int {
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			return i
		}
	}
	return 0
}
