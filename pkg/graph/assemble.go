package graph

import (
	"fmt"
)

// Assemble rebuilds a Graph from nodes listed in pre-order and the edges
// between them, as produced by an earlier export. Parent, Depth and End are
// derived; values already set on nodes are ignored.
func Assemble(nodes []Node, edges []Edge) (*Graph, error) {
	out := make([]Node, len(nodes))
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node %d: empty id", i)
		}
		if _, dup := index[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		index[n.ID] = i
		n.Parent = -1
		out[i] = n
	}

	for _, e := range edges {
		from, ok := index[e.From]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown node %q", e.From, e.To, e.From)
		}
		to, ok := index[e.To]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown node %q", e.From, e.To, e.To)
		}
		if out[to].Parent >= 0 {
			return nil, fmt.Errorf("node %q has more than one parent", e.To)
		}
		if from >= to {
			return nil, fmt.Errorf("edge %s -> %s: parent must precede child", e.From, e.To)
		}
		out[to].Parent = from
	}

	computeEnds(out)

	// Every subtree must be contiguous; replay the nesting and compare.
	var open []int
	for i := range out {
		for len(open) > 0 && out[open[len(open)-1]].End <= i {
			open = open[:len(open)-1]
		}
		want := -1
		if len(open) > 0 {
			want = open[len(open)-1]
		}
		if out[i].Parent != want {
			return nil, fmt.Errorf("node %q: nodes are not in pre-order", out[i].ID)
		}
		out[i].Depth = len(open)
		if out[i].Group && out[i].GroupID == "" {
			out[i].GroupID = "sg_" + out[i].ID
		}
		if out[i].Group && out[i].GroupTitle == "" {
			out[i].GroupTitle = out[i].Label
		}
		open = append(open, i)
	}

	return &Graph{Nodes: out}, nil
}
