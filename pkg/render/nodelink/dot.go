package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/irscope/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Offsets appends each node's source range to its label.
	Offsets bool
}

// ToDOT converts a graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Grouped nodes (function bodies) are wrapped in clusters. Placeholder nodes
// for revisited or truncated subtrees are drawn dashed and grey.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	var open []int // End of each open cluster
	for i, n := range g.Nodes {
		for len(open) > 0 && open[len(open)-1] <= i {
			open = open[:len(open)-1]
			fmt.Fprintf(&buf, "%s}\n", indent(len(open)+1))
		}
		if n.Group {
			fmt.Fprintf(&buf, "%ssubgraph %q {\n", indent(len(open)+1), "cluster_"+n.GroupID)
			fmt.Fprintf(&buf, "%slabel=%q;\n", indent(len(open)+2), n.GroupTitle)
			fmt.Fprintf(&buf, "%sstyle=\"rounded,dashed\";\n", indent(len(open)+2))
			open = append(open, n.End)
		}
		fmt.Fprintf(&buf, "%s%q [%s];\n", indent(len(open)+1), n.ID, strings.Join(fmtAttrs(n, opts), ", "))
	}
	for len(open) > 0 {
		open = open[:len(open)-1]
		fmt.Fprintf(&buf, "%s}\n", indent(len(open)+1))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func indent(level int) string {
	return strings.Repeat("  ", level)
}

func fmtLabel(n graph.Node, offsets bool) string {
	if offsets && n.Range != nil {
		return n.Label + "\n" + n.Range.String()
	}
	return n.Label
}

func fmtAttrs(n graph.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Offsets))}
	if n.Placeholder {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales from the
// origin regardless of Graphviz's padding.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
