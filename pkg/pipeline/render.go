package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/graph"
	graphio "github.com/matzehuels/irscope/pkg/io"
	"github.com/matzehuels/irscope/pkg/render/mermaid"
	"github.com/matzehuels/irscope/pkg/render/nodelink"
	"github.com/matzehuels/irscope/pkg/tree"
)

// Render emits g in the requested format. roots are only consulted by the
// class-diagram format, which reads declarations rather than graph nodes.
func Render(ctx context.Context, g *graph.Graph, roots []*tree.Node, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	switch opts.Format {
	case FormatMermaid, "":
		if err := mermaid.Write(&buf, g, mermaid.Options{Offsets: opts.Offsets}); err != nil {
			return nil, fmt.Errorf("write mermaid: %w", err)
		}
	case FormatClass:
		if roots == nil {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "class diagrams need analyzer output, not an imported graph")
		}
		if err := mermaid.WriteClassDiagram(&buf, roots); err != nil {
			return nil, fmt.Errorf("write class diagram: %w", err)
		}
	case FormatDOT:
		buf.WriteString(nodelink.ToDOT(g, nodelink.Options{Offsets: opts.Offsets}))
	case FormatSVG:
		svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(g, nodelink.Options{Offsets: opts.Offsets}))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		return svg, nil
	case FormatJSON:
		if err := graphio.WriteJSON(g, &buf); err != nil {
			return nil, fmt.Errorf("write json: %w", err)
		}
	default:
		return nil, ValidateFormat(opts.Format)
	}
	return buf.Bytes(), nil
}
