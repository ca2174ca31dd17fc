package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// NamedChildren returns the named AST children of a node.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	ret := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		ret = append(ret, n.NamedChild(i))
	}
	return ret
}

// Walk visits node and its subtree depth-first in source order. The visitor
// returns false to prune the subtree below the current node.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), visit)
	}
}

// Line returns the 1-indexed start line of a node.
func Line(n *sitter.Node) uint32 {
	return n.StartPoint().Row + 1
}

// FirstChildOfType returns the first direct child with the given type.
func FirstChildOfType(n *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == nodeType {
			return c
		}
	}
	return nil
}
