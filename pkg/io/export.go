package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/irscope/pkg/graph"
	"github.com/matzehuels/irscope/pkg/tree"
)

type document struct {
	Nodes []node `json:"nodes"`
	Edges []edge `json:"edges"`
}

type node struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Kind        string      `json:"kind,omitempty"`
	Range       *tree.Range `json:"range,omitempty"`
	Group       bool        `json:"group,omitempty"`
	Title       string      `json:"title,omitempty"`
	Placeholder bool        `json:"placeholder,omitempty"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WriteJSON encodes a graph as JSON and writes it to w.
// Nodes are written in pre-order; the output can be re-imported with
// [ReadJSON].
func WriteJSON(g *graph.Graph, w io.Writer) error {
	out := document{
		Nodes: make([]node, len(g.Nodes)),
		Edges: make([]edge, 0, len(g.Nodes)),
	}

	for i, n := range g.Nodes {
		nd := node{
			ID:          n.ID,
			Label:       n.Label,
			Range:       n.Range,
			Group:       n.Group,
			Placeholder: n.Placeholder,
		}
		if !n.Placeholder {
			nd.Kind = n.Kind.String()
		}
		if n.Group {
			nd.Title = n.GroupTitle
		}
		out.Nodes[i] = nd
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, edge{From: e.From, To: e.To})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a graph to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
