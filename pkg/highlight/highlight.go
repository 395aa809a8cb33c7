// Package highlight maps a cursor offset in source text onto the nodes of an
// annotated Mermaid graph.
//
// The graph text must come from pkg/render/mermaid with offset annotations
// enabled. [ParseIndex] recovers each node's source range from the trailing
// annotations; [Index.Containing] returns every node whose range contains an
// offset (ancestors included, since ranges nest); [Project] rewrites the
// text with a highlight class on those nodes and strips all annotations so
// the result can go straight to the renderer.
//
// Everything here is a pure function of its inputs, so callers may re-run it
// on every cursor move.
package highlight

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/irscope/pkg/render/mermaid"
	"github.com/matzehuels/irscope/pkg/tree"
)

// Class is the Mermaid class attached to highlighted nodes.
const Class = "highlight"

// ClassDef styles [Class]; it is inserted after the header when at least one
// node is highlighted.
const ClassDef = "classDef " + Class + " fill:#fde68a,stroke:#d97706,stroke-width:2px"

var declRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\[`)

// Entry is one annotated node declaration.
type Entry struct {
	ID    string
	Range tree.Range
	Line  int // zero-based line in the graph text
}

// Index maps node ids to source ranges. The zero value is an empty index.
type Index struct {
	entries []Entry
	byID    map[string]int
}

// ParseIndex scans graph text for annotated node declarations. Lines without
// a well-formed annotation are ignored, so text emitted without offsets
// yields an empty index.
func ParseIndex(text string) *Index {
	ix := &Index{byID: make(map[string]int)}
	for i, line := range strings.Split(text, "\n") {
		id, r, ok := parseLine(line)
		if !ok {
			continue
		}
		if _, dup := ix.byID[id]; dup {
			continue
		}
		ix.byID[id] = len(ix.entries)
		ix.entries = append(ix.entries, Entry{ID: id, Range: r, Line: i})
	}
	return ix
}

func parseLine(line string) (string, tree.Range, bool) {
	cut := strings.LastIndex(line, mermaid.OffsetDelimiter)
	if cut < 0 {
		return "", tree.Range{}, false
	}
	m := declRe.FindStringSubmatch(line[:cut])
	if m == nil {
		return "", tree.Range{}, false
	}
	r, ok := parseRange(strings.TrimSpace(line[cut+len(mermaid.OffsetDelimiter):]))
	if !ok {
		return "", tree.Range{}, false
	}
	return m[1], r, true
}

func parseRange(s string) (tree.Range, bool) {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return tree.Range{}, false
	}
	a, err := strconv.Atoi(start)
	if err != nil {
		return tree.Range{}, false
	}
	b, err := strconv.Atoi(end)
	if err != nil || b < a {
		return tree.Range{}, false
	}
	return tree.Range{Start: a, End: b}, true
}

// Len returns the number of annotated nodes.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns the annotated nodes in text order.
func (ix *Index) Entries() []Entry { return slices.Clone(ix.entries) }

// Range returns the source range recorded for id.
func (ix *Index) Range(id string) (tree.Range, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return tree.Range{}, false
	}
	return ix.entries[i].Range, true
}

// Containing returns the ids of all nodes whose range contains offset, with
// start ≤ offset ≤ end. The result runs from the outermost node to the
// innermost; nodes with equal extent keep text order (parents first). An
// offset outside every range yields nil.
func (ix *Index) Containing(offset int) []string {
	var hits []Entry
	for _, e := range ix.entries {
		if e.Range.Contains(offset) {
			hits = append(hits, e)
		}
	}
	if len(hits) == 0 {
		return nil
	}
	slices.SortStableFunc(hits, func(a, b Entry) int {
		return b.Range.Len() - a.Range.Len()
	})
	ids := make([]string, len(hits))
	for i, e := range hits {
		ids[i] = e.ID
	}
	return ids
}

// Innermost returns the most specific node containing offset.
func (ix *Index) Innermost(offset int) (string, bool) {
	ids := ix.Containing(offset)
	if len(ids) == 0 {
		return "", false
	}
	return ids[len(ids)-1], true
}
