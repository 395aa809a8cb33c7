// Package mermaid writes graphs in the Mermaid graph-description language.
//
// # Flowcharts
//
// [Write] emits a "graph TD" document: one declaration per node
// (id["label"]), one edge per parent-child link (parent --> child), and a
// subgraph block around every grouping boundary so the diagram can collapse
// callable bodies. Labels are passed through [Escape], which neutralizes all
// characters the grammar reserves.
//
// # Offset Annotations
//
// With [Options.Offsets] set, every declaration line whose node has a source
// range ends with a trailing comment:
//
//	n3["VAR x"] %% Offset: 13-22
//
// Escaping replaces every '%' in labels, so [OffsetDelimiter] never occurs
// inside a label and clients can recover ranges by scanning for it. See
// pkg/highlight for the client side.
//
// # Class Diagrams
//
// [WriteClassDiagram] renders the class structure of a tree as a
// "classDiagram" document. The two headers are never mixed in one document.
package mermaid

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/irscope/pkg/graph"
)

// Document headers.
const (
	HeaderFlowchart    = "graph TD"
	HeaderClassDiagram = "classDiagram"
)

// OffsetDelimiter introduces a range annotation at the end of a declaration.
const OffsetDelimiter = " %% Offset: "

const indentUnit = "  "

// Options configures flowchart output.
type Options struct {
	// Offsets appends source range annotations to node declarations.
	Offsets bool
}

var labelReplacer = strings.NewReplacer(
	"#", "#35;",
	`"`, "#quot;",
	"[", "#91;",
	"]", "#93;",
	"{", "#123;",
	"}", "#125;",
	"(", "#40;",
	")", "#41;",
	"|", "#124;",
	"<", "#lt;",
	">", "#gt;",
	"%", "#37;",
	"`", "#96;",
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// Escape neutralizes characters reserved by the Mermaid grammar so label
// text can be placed between double quotes. The result never contains a
// double quote, a bracket or a percent sign.
func Escape(label string) string {
	return labelReplacer.Replace(label)
}

// Write emits g as a Mermaid flowchart.
func Write(w io.Writer, g *graph.Graph, opts Options) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, HeaderFlowchart)

	var open []int // indices of nodes whose subgraph is still open
	for i, n := range g.Nodes {
		open = closeGroups(bw, g, open, i)

		indent := strings.Repeat(indentUnit, n.Depth)
		if n.Group {
			fmt.Fprintf(bw, "%ssubgraph %s[\"%s\"]\n", indent, n.GroupID, Escape(n.GroupTitle))
			open = append(open, i)
		}

		fmt.Fprintf(bw, "%s%s[\"%s\"]", indent, n.ID, Escape(n.Label))
		if opts.Offsets && n.Range != nil {
			bw.WriteString(OffsetDelimiter)
			bw.WriteString(n.Range.String())
		}
		bw.WriteByte('\n')

		if !n.IsRoot() {
			fmt.Fprintf(bw, "%s%s --> %s\n", indent, g.Nodes[n.Parent].ID, n.ID)
		}
	}
	closeGroups(bw, g, open, len(g.Nodes))

	return bw.Flush()
}

// closeGroups ends every open subgraph whose subtree finishes before index i.
func closeGroups(w *bufio.Writer, g *graph.Graph, open []int, i int) []int {
	for len(open) > 0 {
		top := open[len(open)-1]
		if g.Nodes[top].End > i {
			break
		}
		fmt.Fprintf(w, "%send\n", strings.Repeat(indentUnit, g.Nodes[top].Depth))
		open = open[:len(open)-1]
	}
	return open
}

// ToMermaid returns g as a Mermaid flowchart string.
func ToMermaid(g *graph.Graph, opts Options) string {
	var sb strings.Builder
	// strings.Builder never fails.
	_ = Write(&sb, g, opts)
	return sb.String()
}
