// Package render groups the graph writers.
//
// The [mermaid] subpackage writes Mermaid flowcharts, optionally with
// offset annotations, and class diagrams of the declarations in a tree.
// The [nodelink] subpackage writes Graphviz DOT and renders it to SVG.
//
// Both read a [graph.Graph] built by the graph package; neither knows about
// analyzers or source languages.
//
//	var buf bytes.Buffer
//	_ = mermaid.Write(&buf, g, mermaid.Options{Offsets: true})
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [mermaid]: github.com/matzehuels/irscope/pkg/render/mermaid
// [nodelink]: github.com/matzehuels/irscope/pkg/render/nodelink
// [graph.Graph]: github.com/matzehuels/irscope/pkg/graph
package render
