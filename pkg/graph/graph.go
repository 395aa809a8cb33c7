package graph

import (
	"context"
	"strconv"

	"github.com/matzehuels/irscope/pkg/tree"
)

// Labels used for synthetic nodes.
const (
	RevisitedLabel = "↻ cycle"
	TruncatedLabel = "… truncated"
)

// cancelCheckInterval is how many nodes are emitted between context checks.
const cancelCheckInterval = 1024

// Options configures graph construction.
type Options struct {
	// MaxNodes caps the number of tree nodes emitted. Zero means no cap.
	MaxNodes int
}

// Allocator assigns graph-node ids to tree nodes for one traversal.
// The same physical node always receives the same id; distinct nodes never
// share one, regardless of their rendered text.
//
// An Allocator is not safe for concurrent use.
type Allocator struct {
	ids  map[*tree.Node]string
	next int
}

// NewAllocator returns an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{ids: make(map[*tree.Node]string)}
}

// ID returns the id for n, allocating one on first use.
func (a *Allocator) ID(n *tree.Node) string {
	if id, ok := a.ids[n]; ok {
		return id
	}
	id := a.Fresh()
	a.ids[n] = id
	return id
}

// Seen reports whether n already has an id.
func (a *Allocator) Seen(n *tree.Node) bool {
	_, ok := a.ids[n]
	return ok
}

// Fresh returns a new id not bound to any tree node.
func (a *Allocator) Fresh() string {
	id := "n" + strconv.Itoa(a.next)
	a.next++
	return id
}

type frame struct {
	node   *tree.Node
	parent int
	depth  int
}

// Build converts the trees rooted at roots into a Graph.
//
// Nodes are emitted in pre-order. Children are visited in their stored order.
// Nil roots and nil children are skipped. The only error Build returns is the
// context's, when ctx is cancelled mid-walk.
func Build(ctx context.Context, roots []*tree.Node, opts Options) (*Graph, error) {
	alloc := NewAllocator()
	g := &Graph{Nodes: make([]Node, 0, 64)}

	stack := make([]frame, 0, 64)
	for i := len(roots) - 1; i >= 0; i-- {
		if roots[i] != nil {
			stack = append(stack, frame{node: roots[i], parent: -1})
		}
	}

	emitted := 0
	capped := make(map[int]bool)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(g.Nodes)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if alloc.Seen(f.node) {
			g.Revisited++
			g.Nodes = append(g.Nodes, placeholder(alloc.Fresh(), RevisitedLabel, f))
			continue
		}

		if opts.MaxNodes > 0 && emitted >= opts.MaxNodes {
			g.Truncated += tree.Count(f.node)
			if !capped[f.parent] {
				capped[f.parent] = true
				g.Nodes = append(g.Nodes, placeholder(alloc.Fresh(), TruncatedLabel, f))
			}
			continue
		}

		idx := len(g.Nodes)
		nd := Node{
			ID:     alloc.ID(f.node),
			Label:  f.node.Render(),
			Range:  f.node.Range,
			Kind:   f.node.Kind,
			Parent: f.parent,
			Depth:  f.depth,
		}
		if f.node.IsGroup() {
			nd.Group = true
			nd.GroupID = "sg_" + nd.ID
			nd.GroupTitle = f.node.Name
			if nd.GroupTitle == "" {
				nd.GroupTitle = nd.Label
			}
		}
		g.Nodes = append(g.Nodes, nd)
		emitted++

		kids := f.node.Children
		for i := len(kids) - 1; i >= 0; i-- {
			if kids[i] != nil {
				stack = append(stack, frame{node: kids[i], parent: idx, depth: f.depth + 1})
			}
		}
	}

	computeEnds(g.Nodes)
	return g, nil
}

func placeholder(id, label string, f frame) Node {
	return Node{
		ID:          id,
		Label:       label,
		Parent:      f.parent,
		Depth:       f.depth,
		Placeholder: true,
	}
}

// computeEnds fills Node.End. Descendants always follow their ancestor in
// pre-order, so a single backwards pass propagates final extents upwards.
func computeEnds(nodes []Node) {
	for i := range nodes {
		nodes[i].End = i + 1
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		if p := nodes[i].Parent; p >= 0 && nodes[i].End > nodes[p].End {
			nodes[p].End = nodes[i].End
		}
	}
}
