package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/irscope/pkg/graph"
	"github.com/matzehuels/irscope/pkg/tree"
)

var kindFromString = func() map[string]tree.Kind {
	m := make(map[string]tree.Kind)
	for k := tree.KindOther; k <= tree.KindControl; k++ {
		m[k.String()] = k
	}
	return m
}()

// ReadJSON decodes a JSON graph from r.
//
// The input must be a JSON object with "nodes" and "edges" arrays, nodes in
// pre-order:
//
//	{
//	  "nodes": [{"id": "n0", "label": "FILE a.kt"}, {"id": "n1", "label": "FUN main"}],
//	  "edges": [{"from": "n0", "to": "n1"}]
//	}
//
// ReadJSON returns an error if the JSON is malformed, a node id repeats, an
// edge references an unknown node, or the nodes do not form a pre-order
// forest. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	nodes := make([]graph.Node, len(data.Nodes))
	for i, n := range data.Nodes {
		nodes[i] = graph.Node{
			ID:          n.ID,
			Label:       n.Label,
			Range:       n.Range,
			Kind:        kindFromString[n.Kind],
			Group:       n.Group,
			GroupTitle:  n.Title,
			Placeholder: n.Placeholder,
		}
	}
	edges := make([]graph.Edge, len(data.Edges))
	for i, e := range data.Edges {
		edges[i] = graph.Edge{From: e.From, To: e.To}
	}

	g, err := graph.Assemble(nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return g, nil
}

// ImportJSON reads a graph from a JSON file at path.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
