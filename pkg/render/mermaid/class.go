package mermaid

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/matzehuels/irscope/pkg/tree"
)

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9_]`)

type classInfo struct {
	name    string
	members []string
}

// WriteClassDiagram emits the classes found under roots as a Mermaid class
// diagram. Functions become methods and properties become fields; members of
// nested classes belong to the nested class only. A document without classes
// carries a single note so it still renders.
func WriteClassDiagram(w io.Writer, roots []*tree.Node) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, HeaderClassDiagram)

	classes := collectClasses(roots)
	if len(classes) == 0 {
		fmt.Fprintln(bw, `  note "No classes found"`)
		return bw.Flush()
	}

	for _, c := range classes {
		fmt.Fprintf(bw, "  class %s {\n", c.name)
		for _, m := range c.members {
			fmt.Fprintf(bw, "    %s\n", m)
		}
		fmt.Fprintln(bw, "  }")
	}
	return bw.Flush()
}

func collectClasses(roots []*tree.Node) []classInfo {
	var out []classInfo
	seen := make(map[*tree.Node]bool)
	used := make(map[string]int)

	stack := reversed(roots)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil || seen[n] {
			continue
		}
		seen[n] = true

		if n.Kind == tree.KindClass {
			out = append(out, classInfo{
				name:    uniqueName(classIdent(n.Name), used),
				members: classMembers(n),
			})
		}
		stack = append(stack, reversed(n.Children)...)
	}
	return out
}

// classMembers lists declarations reachable from c without crossing another
// class or a function body.
func classMembers(c *tree.Node) []string {
	var members []string
	seen := map[*tree.Node]bool{c: true}
	stack := reversed(c.Children)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil || seen[n] {
			continue
		}
		seen[n] = true

		switch n.Kind {
		case tree.KindClass:
			continue
		case tree.KindFunction:
			members = append(members, "+"+memberText(n.Name)+"()")
			continue
		case tree.KindProperty:
			members = append(members, "+"+memberText(n.Name))
			continue
		}
		stack = append(stack, reversed(n.Children)...)
	}
	return members
}

func classIdent(name string) string {
	id := nonIdent.ReplaceAllString(name, "_")
	if id == "" {
		return "Anonymous"
	}
	return id
}

func uniqueName(name string, used map[string]int) string {
	used[name]++
	if n := used[name]; n > 1 {
		return fmt.Sprintf("%s_%d", name, n)
	}
	return name
}

func memberText(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "anonymous"
	}
	return Escape(name)
}

func reversed(nodes []*tree.Node) []*tree.Node {
	out := make([]*tree.Node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}
