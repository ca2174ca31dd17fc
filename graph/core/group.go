package core

// GroupType classifies a namespace container.
type GroupType int

const (
	// GroupFile is a source file. File groups are the roots of the
	// containment forest and the only groups that carry import tokens.
	GroupFile GroupType = iota
	// GroupClass is a class-like container whose nodes are methods.
	GroupClass
	// GroupNamespace is a module/namespace container (e.g. a Ruby module).
	GroupNamespace
)

// String returns the lowercase name used in logs and DOT labels.
func (t GroupType) String() string {
	switch t {
	case GroupFile:
		return "file"
	case GroupClass:
		return "class"
	default:
		return "namespace"
	}
}

// Group is a namespace container: a file, a class, or a module.
// Groups form a tree. A file group has a nil parent; every other group
// hangs off a file group directly or through other groups.
type Group struct {
	// Token is the short name (file basename without extension, or the
	// class/module name).
	Token string

	// Type discriminates file/class/namespace behavior.
	Type GroupType

	// DisplayName is the human-readable kind shown in DOT cluster labels,
	// e.g. "File" or "Class".
	DisplayName string

	// LineNumber is the 1-indexed definition line (0 for file groups).
	LineNumber uint32

	// Path is the source file path. Set on file groups only.
	Path string

	// ImportTokens are names imported into this file. Set on file groups
	// only; they participate in variable scoping for every node in the file.
	ImportTokens []*Variable

	// InheritNames holds the superclass names as written in source.
	// The resolver replaces them with Inherits.
	InheritNames []string

	// Inherits holds, per resolved superclass, the list of nodes directly
	// declared in that superclass. Populated by the resolver.
	Inherits [][]*Node

	// Nodes are the direct member nodes, in source order.
	Nodes []*Node

	// Subgroups are the directly nested groups, in source order.
	Subgroups []*Group

	// Parent is the enclosing group, nil for file groups.
	Parent *Group

	// RootNode is the synthetic node holding this file's top-level
	// statements. Set on file groups only.
	RootNode *Node
}

// NewFileGroup creates a group for one source file.
func NewFileGroup(token, path string, importTokens []*Variable) *Group {
	return &Group{
		Token:        token,
		Type:         GroupFile,
		DisplayName:  "File",
		Path:         path,
		ImportTokens: importTokens,
	}
}

// AddNode appends a direct member node and claims ownership of it.
func (g *Group) AddNode(n *Node) {
	n.Parent = g
	g.Nodes = append(g.Nodes, n)
}

// AddRootNode appends the synthetic top-level node for a file group.
func (g *Group) AddRootNode(n *Node) {
	g.AddNode(n)
	g.RootNode = n
}

// AddSubgroup appends a directly nested group.
func (g *Group) AddSubgroup(sg *Group) {
	sg.Parent = g
	g.Subgroups = append(g.Subgroups, sg)
}

// AllNodes returns this group's nodes plus every node in nested groups.
func (g *Group) AllNodes() []*Node {
	ret := make([]*Node, 0, len(g.Nodes))
	ret = append(ret, g.Nodes...)
	for _, sg := range g.Subgroups {
		ret = append(ret, sg.AllNodes()...)
	}
	return ret
}

// AllGroups returns this group and every transitively nested group.
func (g *Group) AllGroups() []*Group {
	ret := []*Group{g}
	for _, sg := range g.Subgroups {
		ret = append(ret, sg.AllGroups()...)
	}
	return ret
}

// AllParents returns the ancestor chain from direct parent to the file group.
func (g *Group) AllParents() []*Group {
	var ret []*Group
	for p := g.Parent; p != nil; p = p.Parent {
		ret = append(ret, p)
	}
	return ret
}

// FileGroup walks up to the file group that contains this group.
func (g *Group) FileGroup() *Group {
	fg := g
	for fg.Parent != nil {
		fg = fg.Parent
	}
	return fg
}

// GetConstructor returns the directly declared constructor node, or nil.
func (g *Group) GetConstructor() *Node {
	for _, n := range g.Nodes {
		if n.IsConstructor {
			return n
		}
	}
	return nil
}

// GroupVariables returns the names this group contributes to the scope of
// the nodes beneath it. File groups contribute their imports; class and
// module groups contribute their direct member nodes, so a bare m() inside
// a method reaches sibling methods. Top-level siblings are deliberately
// not contributed: bare calls to them must survive the global candidate
// search and its ambiguity rule.
func (g *Group) GroupVariables() []*Variable {
	if g.Type == GroupFile {
		return g.ImportTokens
	}
	var ret []*Variable
	for _, n := range g.Nodes {
		ret = append(ret, &Variable{Token: n.Token, Points: n, LineNumber: n.LineNumber})
	}
	return ret
}

// RemoveNode detaches a direct member node. Unknown nodes are a no-op so
// removal stays idempotent.
func (g *Group) RemoveNode(n *Node) {
	for i, member := range g.Nodes {
		if member == n {
			g.Nodes = append(g.Nodes[:i], g.Nodes[i+1:]...)
			break
		}
	}
	if g.RootNode == n {
		g.RootNode = nil
	}
}

// RemoveFromParent detaches this group from its parent. A no-op for file
// groups and for groups already detached.
func (g *Group) RemoveFromParent() {
	if g.Parent == nil {
		return
	}
	siblings := g.Parent.Subgroups
	for i, sg := range siblings {
		if sg == g {
			g.Parent.Subgroups = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	g.Parent = nil
}

// Label is the text shown for this group's DOT cluster.
func (g *Group) Label() string {
	if g.DisplayName != "" {
		return g.DisplayName + ": " + g.Token
	}
	return g.Token
}

func (g *Group) isPointee() {}
