package core

import (
	"fmt"
	"sort"

	"github.com/zeebo/xxh3"
)

// RootNodeToken is the token of the synthetic node that represents a
// file's top-level statements. Calls made at module level hang off it.
const RootNodeToken = "(global)"

// Node is one function-like entity: a top-level function, a method, or a
// file's synthetic root node.
type Node struct {
	// Token is the short name, e.g. "login".
	Token string

	// LineNumber is the 1-indexed definition line (0 for root nodes).
	LineNumber uint32

	// Calls are the call-sites observed in this node's body, in source order.
	Calls []*Call

	// Variables are the named references visible in this node's body.
	// Parse time contributes locals and the receiver alias; the resolver
	// appends inherited members.
	Variables []*Variable

	// Parent is the owning group. A file parent means a top-level function;
	// a class parent means a method.
	Parent *Group

	// IsConstructor marks constructor nodes (__init__, constructor,
	// initialize, __construct).
	IsConstructor bool
}

// IsRoot reports whether this is a file's synthetic top-level node.
func (n *Node) IsRoot() bool {
	return n.Token == RootNodeToken
}

// FileGroup walks up to the file group that contains this node.
func (n *Node) FileGroup() *Group {
	if n.Parent == nil {
		return nil
	}
	return n.Parent.FileGroup()
}

// TokenWithOwnership qualifies the token with the enclosing class/namespace
// chain, e.g. "Obj.login". Top-level functions keep the bare token.
func (n *Node) TokenWithOwnership() string {
	ownership := ""
	for p := n.Parent; p != nil && p.Type != GroupFile; p = p.Parent {
		ownership = p.Token + "." + ownership
	}
	return ownership + n.Token
}

// Name is the fully qualified form "file::class.func". This is the stable
// grammar subset targets are matched against.
func (n *Node) Name() string {
	file := ""
	if fg := n.FileGroup(); fg != nil {
		file = fg.Token
	}
	return file + "::" + n.TokenWithOwnership()
}

// UID is the stable node identifier used in emitted graphs. It hashes the
// qualified name and line so identical inputs always produce identical
// output bytes.
func (n *Node) UID() string {
	sum := xxh3.HashString(fmt.Sprintf("%s:%d", n.Name(), n.LineNumber))
	return fmt.Sprintf("node_%016x", sum)
}

// Label is the display text for this node. Root nodes collapse to the file
// token so module-level code reads as the file itself.
func (n *Node) Label() string {
	if n.IsRoot() {
		if fg := n.FileGroup(); fg != nil {
			return fg.Token
		}
		return n.Token
	}
	return fmt.Sprintf("%d: %s()", n.LineNumber, n.TokenWithOwnership())
}

// GetVariables returns the variables in scope at the given line:
// parameter defaults and local assignments at or before the line (most
// recent first), then the enclosing class members, then the file's
// imports.
func (n *Node) GetVariables(lineNumber uint32) []*Variable {
	var ret []*Variable
	for _, v := range n.Variables {
		if v.LineNumber == 0 || v.LineNumber <= lineNumber {
			ret = append(ret, v)
		}
	}
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].LineNumber > ret[j].LineNumber
	})
	for p := n.Parent; p != nil; p = p.Parent {
		ret = append(ret, p.GroupVariables()...)
	}
	return ret
}

// ResolveVariables points each raw-token variable at the group it names.
// Imports match file groups by token; instantiations match class groups.
// Anything that still misses is marked as an unknown module so calls through
// it are deliberately dropped rather than misresolved.
func (n *Node) ResolveVariables(fileGroups []*Group) {
	for _, v := range n.Variables {
		raw, ok := v.Points.(RawToken)
		if !ok {
			continue
		}
		v.Points = UnknownModule
		for _, fg := range fileGroups {
			if g := findGroupByToken(fg, string(raw)); g != nil {
				v.Points = g
				break
			}
		}
	}
}

func findGroupByToken(fileGroup *Group, token string) *Group {
	for _, g := range fileGroup.AllGroups() {
		if g.Token == token {
			return g
		}
	}
	return nil
}

// RemoveFromParent detaches this node from its group. Idempotent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveNode(n)
	n.Parent = nil
}

func (n *Node) isPointee() {}
