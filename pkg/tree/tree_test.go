package tree

import (
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"function", New(KindFunction, "main"), "FUN main"},
		{"variable", New(KindVariable, "x"), "VAR x"},
		{"literal", &Node{Kind: KindLiteral, Text: "5"}, "CONST 5"},
		{"block", &Node{Kind: KindBlock}, "BLOCK_BODY"},
		{"control", &Node{Kind: KindControl, Type: "if_expression"}, "IF"},
		{"jump", &Node{Kind: KindControl, Type: "jump_expression", Text: "return"}, "JUMP return"},
		{"other with type", &Node{Kind: KindOther, Type: "lambda_literal"}, "LAMBDA_LITERAL"},
		{"file", New(KindFile, "input.kt"), "FILE input.kt"},
		{"empty payload", New(KindCall, ""), "CALL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsGroup(t *testing.T) {
	if !New(KindFunction, "f").IsGroup() {
		t.Error("function should be a grouping boundary")
	}
	if New(KindClass, "C").IsGroup() {
		t.Error("class should not be a grouping boundary")
	}
}

func TestRangeContainsInclusive(t *testing.T) {
	r := Range{Start: 4, End: 9}
	cases := map[int]bool{3: false, 4: true, 7: true, 9: true, 10: false}
	for off, want := range cases {
		if got := r.Contains(off); got != want {
			t.Errorf("Range%v.Contains(%d) = %v, want %v", r, off, got, want)
		}
	}
}

func TestRangeCovers(t *testing.T) {
	outer := Range{Start: 0, End: 20}
	if !outer.Covers(Range{Start: 3, End: 20}) {
		t.Error("outer should cover inner range sharing an end")
	}
	if outer.Covers(Range{Start: 3, End: 21}) {
		t.Error("outer should not cover a range extending past its end")
	}
}

func TestCountSharedNode(t *testing.T) {
	shared := New(KindLiteral, "")
	root := New(KindFile, "f", New(KindBlock, "", shared), shared)
	if got := Count(root); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}

func TestKindStringUnknown(t *testing.T) {
	if got := Kind(99).String(); got != "KIND(99)" {
		t.Errorf("Kind(99).String() = %q", got)
	}
}
