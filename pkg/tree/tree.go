// Package tree defines the hierarchical program representation consumed by
// the graph emitter.
//
// A [Node] is a closed tagged variant: its [Kind] selects which payload fields
// are meaningful and how the node renders as a label. Trees are produced by
// an analyzer (see pkg/analyzer) and are expected to be acyclic, although the
// emitter defends against cycles.
package tree

import (
	"fmt"
	"strings"
)

// Kind is the closed set of representation node kinds.
type Kind int

const (
	KindOther Kind = iota
	KindFile
	KindClass
	KindFunction
	KindProperty
	KindVariable
	KindParameter
	KindBlock
	KindCall
	KindOperator
	KindLiteral
	KindReference
	KindControl
)

var kindNames = [...]string{
	KindOther:     "NODE",
	KindFile:      "FILE",
	KindClass:     "CLASS",
	KindFunction:  "FUN",
	KindProperty:  "PROPERTY",
	KindVariable:  "VAR",
	KindParameter: "VALUE_PARAMETER",
	KindBlock:     "BLOCK_BODY",
	KindCall:      "CALL",
	KindOperator:  "OPERATOR",
	KindLiteral:   "CONST",
	KindReference: "GET_VAR",
	KindControl:   "WHEN",
}

// String returns the upper-case tag used as the label prefix.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("KIND(%d)", int(k))
	}
	return kindNames[k]
}

// Range is a half-open byte range [Start, End) in the original source text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether offset lies within r. Both bounds are inclusive so
// that a cursor placed just after the last character of a construct still
// selects it.
func (r Range) Contains(offset int) bool {
	return r.Start <= offset && offset <= r.End
}

// Covers reports whether r fully contains other.
func (r Range) Covers(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Len returns the number of bytes spanned by r.
func (r Range) Len() int { return r.End - r.Start }

// String formats r as "start-end", the form used in offset annotations.
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Node is one element of the representation tree.
//
// Only the payload fields relevant to Kind are populated:
//   - Name: declarations, calls and references (identifier text)
//   - Text: literals and operators (source snippet)
//   - Type: the analyzer's raw node type, kept for KindOther and debugging
//
// Range is nil when the analyzer could not attribute the node to source.
type Node struct {
	Kind     Kind
	Name     string
	Text     string
	Type     string
	Range    *Range
	Children []*Node
}

// New creates a node of the given kind with a name payload.
func New(kind Kind, name string, children ...*Node) *Node {
	return &Node{Kind: kind, Name: name, Children: children}
}

// WithRange sets the node's source range and returns the node for chaining.
func (n *Node) WithRange(start, end int) *Node {
	n.Range = &Range{Start: start, End: end}
	return n
}

// Add appends children to n.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// IsGroup reports whether n marks a grouping boundary. Callable bodies are
// grouped so the rendered diagram can collapse them.
func (n *Node) IsGroup() bool {
	return n.Kind == KindFunction
}

// Render returns the textual rendering used as the node label. The result
// is raw text; escaping for a specific output grammar is the writer's job.
func (n *Node) Render() string {
	switch n.Kind {
	case KindLiteral, KindOperator:
		return joinLabel(n.Kind.String(), n.Text)
	case KindOther:
		tag := n.Kind.String()
		if n.Type != "" {
			tag = strings.ToUpper(n.Type)
		}
		return joinLabel(tag, firstNonEmpty(n.Name, n.Text))
	case KindFile:
		return joinLabel(n.Kind.String(), n.Name)
	case KindBlock:
		return n.Kind.String()
	case KindControl:
		tag := n.Kind.String()
		if n.Type != "" {
			tag = strings.ToUpper(strings.TrimSuffix(strings.TrimSuffix(n.Type, "_expression"), "_statement"))
		}
		return joinLabel(tag, n.Text)
	default:
		return joinLabel(n.Kind.String(), n.Name)
	}
}

func joinLabel(tag, payload string) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return tag
	}
	return tag + " " + payload
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Count returns the number of nodes reachable from roots, counting each
// physical node once.
func Count(roots ...*Node) int {
	seen := make(map[*Node]bool)
	stack := append([]*Node(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil || seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, n.Children...)
	}
	return len(seen)
}
