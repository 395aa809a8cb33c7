package graph

import (
	"github.com/matzehuels/irscope/pkg/tree"
)

// Node is one emitted graph node.
//
// Nodes are stored in pre-order, so the descendants of the node at index i
// occupy indices i+1 up to (but excluding) End.
type Node struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Range *tree.Range `json:"range,omitempty"`
	Kind  tree.Kind   `json:"-"`

	// Parent is the index of the parent node, or -1 for roots.
	Parent int `json:"-"`
	// Depth is the distance from the node's root; used only for indentation.
	Depth int `json:"-"`
	// End is one past the index of the node's last descendant.
	End int `json:"-"`

	// Group marks a grouping boundary; GroupID and GroupTitle name the block.
	Group      bool   `json:"group,omitempty"`
	GroupID    string `json:"-"`
	GroupTitle string `json:"-"`

	// Placeholder marks synthetic nodes standing in for revisited or
	// truncated subtrees.
	Placeholder bool `json:"placeholder,omitempty"`
}

// IsRoot reports whether n has no parent.
func (n Node) IsRoot() bool { return n.Parent < 0 }

// Edge is a parent → child link between two node ids.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the result of one traversal. The zero value is an empty graph.
type Graph struct {
	Nodes []Node

	// Revisited counts nodes replaced by a cycle placeholder.
	Revisited int
	// Truncated counts tree nodes dropped because of the node cap.
	Truncated int

	index map[string]int
}

// NodeCount returns the number of emitted nodes, placeholders included.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of parent-child links.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, nd := range g.Nodes {
		if !nd.IsRoot() {
			n++
		}
	}
	return n
}

// Edges returns all edges in emission order (the order of their child).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.Nodes))
	for _, nd := range g.Nodes {
		if nd.IsRoot() {
			continue
		}
		edges = append(edges, Edge{From: g.Nodes[nd.Parent].ID, To: nd.ID})
	}
	return edges
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	if g.index == nil {
		g.index = make(map[string]int, len(g.Nodes))
		for i, nd := range g.Nodes {
			g.index[nd.ID] = i
		}
	}
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Children returns the indices of the direct children of the node at i.
func (g *Graph) Children(i int) []int {
	var out []int
	for j := i + 1; j < g.Nodes[i].End; j = g.Nodes[j].End {
		out = append(out, j)
	}
	return out
}
