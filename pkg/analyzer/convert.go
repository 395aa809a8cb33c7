package analyzer

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/matzehuels/irscope/pkg/tree"
)

const (
	maxLabelRunes = 40
	anonymousName = "<anonymous>"
	checkEvery    = 1024
)

type converter struct {
	ctx      context.Context
	lang     *Language
	src      []byte
	fileName string
	visited  int
}

// convert returns the representation of n. Flattened nodes yield their
// converted children; skipped nodes yield nothing. excluded is the name
// node of the nearest mapped ancestor, which flattened nodes must not
// repeat as a child.
func (c *converter) convert(n *sitter.Node, local bool, excluded *sitter.Node) ([]*tree.Node, error) {
	c.visited++
	if c.visited%checkEvery == 0 {
		if err := contextError(c.ctx); err != nil {
			return nil, err
		}
	}

	typ := n.Type()
	if c.lang.Skip[typ] {
		return nil, nil
	}
	kind, mapped := c.lang.Kinds[typ]
	if !mapped && c.lang.Flatten[typ] {
		return c.children(n, excluded, local)
	}
	if !mapped {
		kind = tree.KindOther
	}
	if k, ok := c.lang.LocalKinds[kind]; ok && local {
		kind = k
	}

	node := &tree.Node{Kind: kind, Type: typ}
	node.WithRange(int(n.StartByte()), int(n.EndByte()))

	var exclude *sitter.Node
	switch kind {
	case tree.KindFile:
		node.Name = c.fileName
	case tree.KindLiteral:
		node.Text = c.text(n)
	case tree.KindReference:
		node.Name = c.text(n)
	case tree.KindOperator:
		node.Text = c.operator(n)
	case tree.KindControl:
		node.Text = c.keyword(n)
	case tree.KindCall:
		exclude = c.callee(n)
		if exclude != nil {
			node.Name = c.text(exclude)
		}
	case tree.KindOther:
		if n.NamedChildCount() == 0 {
			node.Text = c.text(n)
		}
	default:
		exclude = c.nameOf(n)
		if exclude != nil {
			node.Name = c.text(exclude)
		} else if kind == tree.KindFunction {
			node.Name = anonymousName
		}
	}

	if !c.lang.Leaves[kind] {
		inner := kind == tree.KindFunction || (local && kind != tree.KindClass)
		children, err := c.children(n, exclude, inner)
		if err != nil {
			return nil, err
		}
		node.Children = children
	}
	return []*tree.Node{node}, nil
}

func (c *converter) children(n *sitter.Node, exclude *sitter.Node, local bool) ([]*tree.Node, error) {
	var out []*tree.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if exclude != nil && sameNode(child, exclude) {
			continue
		}
		converted, err := c.convert(child, local, exclude)
		if err != nil {
			return nil, err
		}
		out = append(out, converted...)
	}
	return out, nil
}

func (c *converter) text(n *sitter.Node) string {
	return compact(n.Content(c.src), maxLabelRunes)
}

// nameOf finds the identifier naming a declaration: the "name" field, the
// first identifier of the "left" field, a direct identifier child, or an
// identifier inside a skipped child such as a Kotlin variable_declaration.
func (c *converter) nameOf(n *sitter.Node) *sitter.Node {
	if name := n.ChildByFieldName("name"); name != nil && c.lang.Identifiers[name.Type()] {
		return name
	}
	if left := n.ChildByFieldName("left"); left != nil {
		if c.lang.Identifiers[left.Type()] {
			return left
		}
		if id := c.firstIdentifier(left); id != nil {
			return id
		}
	}
	if id := c.firstIdentifier(n); id != nil {
		return id
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if !c.lang.Skip[child.Type()] {
			continue
		}
		if id := c.firstIdentifier(child); id != nil {
			return id
		}
	}
	return nil
}

func (c *converter) firstIdentifier(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if c.lang.Identifiers[child.Type()] {
			return child
		}
	}
	return nil
}

// callee returns the called expression or constructed type.
func (c *converter) callee(n *sitter.Node) *sitter.Node {
	for _, field := range []string{"function", "type", "constructor"} {
		if f := n.ChildByFieldName(field); f != nil {
			return f
		}
	}
	if n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}

func (c *converter) operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.IsNamed() {
			continue
		}
		switch t := child.Type(); t {
		case "(", ")", ",", "]":
		default:
			return t
		}
	}
	return ""
}

// keyword returns the leading keyword of a jump such as "return" or
// "throw". Other control nodes are labeled by their type alone.
func (c *converter) keyword(n *sitter.Node) string {
	if n.Type() != "jump_expression" || n.ChildCount() == 0 {
		return ""
	}
	first := n.Child(0)
	if first.IsNamed() {
		return ""
	}
	return first.Type()
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
