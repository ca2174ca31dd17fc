// Package ruby adapts Ruby source to the call-graph model using the
// tree-sitter Ruby grammar.
package ruby

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/keshy/CodeSense/graph/core"
	"github.com/keshy/CodeSense/graph/lang"
)

func init() {
	lang.Register(New())
}

// Adapter implements lang.Adapter for Ruby.
type Adapter struct{}

// New creates the Ruby adapter.
func New() *Adapter {
	return &Adapter{}
}

// Language returns the language name.
func (a *Adapter) Language() string {
	return "ruby"
}

// Extensions returns the file suffixes this adapter owns.
func (a *Adapter) Extensions() []string {
	return []string{"rb"}
}

// AssertDependencies is a no-op: the grammar is compiled in. The original
// tool shelled out to ruby-parse, which is why the ruby-version param
// exists; it is accepted and unused here.
func (a *Adapter) AssertDependencies() error {
	return nil
}

// IsLibraryFile flags installed gems and vendored bundles.
func (a *Adapter) IsLibraryFile(path string, _ lang.Params) bool {
	norm := strings.ReplaceAll(path, "\\", "/")
	return strings.Contains(norm, "/gems/") || strings.Contains(norm, "vendor/bundle/")
}

// ParseFile parses one Ruby file.
func (a *Adapter) ParseFile(ctx context.Context, path string, _ lang.Params) (*lang.ParsedFile, error) {
	src, err := lang.ReadSource(path)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(ruby.GetLanguage())
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	if tree.RootNode().HasError() {
		return nil, fmt.Errorf("%s: invalid ruby syntax", path)
	}
	return &lang.ParsedFile{Path: path, Source: src, Tree: tree}, nil
}

// SeparateNamespaces partitions the program into class/module trees, method
// trees, and residual top-level statements.
func (a *Adapter) SeparateNamespaces(file *lang.ParsedFile) lang.Namespaces {
	var ns lang.Namespaces
	for _, child := range lang.NamedChildren(file.Root()) {
		switch child.Type() {
		case "method", "singleton_method":
			ns.Nodes = append(ns.Nodes, child)
		case "class", "module":
			ns.Subgroups = append(ns.Subgroups, child)
		default:
			ns.Body = append(ns.Body, child)
		}
	}
	return ns
}

// MakeNodes builds the node for one method tree.
func (a *Adapter) MakeNodes(file *lang.ParsedFile, tree *sitter.Node, parent *core.Group) []*core.Node {
	nameNode := tree.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	token := file.Content(nameNode)

	node := &core.Node{
		Token:         token,
		LineNumber:    lang.Line(tree),
		IsConstructor: token == "initialize" && parent.Type == core.GroupClass,
		Calls:         makeCalls(file, tree),
		Variables:     append(parameterVariables(file, tree), makeLocalVariables(file, tree)...),
	}
	if parent.Type != core.GroupFile {
		node.Variables = append([]*core.Variable{core.NewVariable("self", parent, 0)}, node.Variables...)
	}
	return []*core.Node{node}
}

// MakeRootNode builds the synthetic node for a file's top-level statements.
func (a *Adapter) MakeRootNode(file *lang.ParsedFile, body []*sitter.Node, _ *core.Group) *core.Node {
	node := &core.Node{Token: core.RootNodeToken}
	for _, stmt := range body {
		node.Calls = append(node.Calls, makeCalls(file, stmt)...)
		node.Variables = append(node.Variables, makeLocalVariables(file, stmt)...)
	}
	return node
}

// MakeClassGroup builds a class or module group with its methods and
// nested classes/modules.
func (a *Adapter) MakeClassGroup(file *lang.ParsedFile, tree *sitter.Node, parent *core.Group) *core.Group {
	groupType := core.GroupClass
	displayName := "Class"
	if tree.Type() == "module" {
		groupType = core.GroupNamespace
		displayName = "Module"
	}

	group := &core.Group{
		Type:        groupType,
		DisplayName: displayName,
		LineNumber:  lang.Line(tree),
		Parent:      parent,
	}

	var body *sitter.Node
	for _, child := range lang.NamedChildren(tree) {
		switch child.Type() {
		case "constant", "scope_resolution":
			if group.Token == "" {
				group.Token = constantToken(file, child)
			}
		case "superclass":
			if super := superclassToken(file, child); super != "" {
				group.InheritNames = append(group.InheritNames, super)
			}
		case "body_statement":
			body = child
		}
	}
	if body == nil {
		return group
	}
	for _, member := range lang.NamedChildren(body) {
		switch member.Type() {
		case "method", "singleton_method":
			for _, n := range a.MakeNodes(file, member, group) {
				group.AddNode(n)
			}
		case "class", "module":
			group.AddSubgroup(a.MakeClassGroup(file, member, group))
		}
	}
	return group
}

// FileImportTokens returns nothing: require does not bind names, and Ruby
// constants resolve globally through the shared name table instead.
func (a *Adapter) FileImportTokens(_ *lang.ParsedFile) []*core.Variable {
	return nil
}

// constantToken reduces A::B::C to its last segment.
func constantToken(file *lang.ParsedFile, n *sitter.Node) string {
	if n.Type() == "scope_resolution" {
		if name := n.ChildByFieldName("name"); name != nil {
			return file.Content(name)
		}
	}
	return file.Content(n)
}

func superclassToken(file *lang.ParsedFile, n *sitter.Node) string {
	for _, child := range lang.NamedChildren(n) {
		if child.Type() == "constant" || child.Type() == "scope_resolution" {
			return constantToken(file, child)
		}
	}
	return ""
}

// makeCalls extracts the call-sites in a subtree, in source order.
// "X.new" is recorded as a plain call to X so the constructor rule
// resolves it. Bare identifiers without arguments are left alone; they are
// indistinguishable from local variable reads.
func makeCalls(file *lang.ParsedFile, body *sitter.Node) []*core.Call {
	var calls []*core.Call
	lang.Walk(body, func(n *sitter.Node) bool {
		if n != body {
			switch n.Type() {
			case "method", "singleton_method", "class", "module":
				return false
			}
		}
		if n.Type() == "call" {
			if call := callFromNode(file, n); call != nil {
				calls = append(calls, call)
			}
		}
		return true
	})
	return calls
}

// callFromNode translates a Ruby call node into a Call.
func callFromNode(file *lang.ParsedFile, n *sitter.Node) *core.Call {
	methodNode := n.ChildByFieldName("method")
	if methodNode == nil {
		return nil
	}
	token := file.Content(methodNode)
	line := lang.Line(n)

	receiver := n.ChildByFieldName("receiver")
	if receiver == nil {
		return &core.Call{Token: token, LineNumber: line}
	}

	switch receiver.Type() {
	case "constant", "scope_resolution":
		owner := constantToken(file, receiver)
		if token == "new" {
			// X.new is the constructor call for class X.
			return &core.Call{Token: owner, LineNumber: line}
		}
		return &core.Call{Token: token, OwnerToken: owner, LineNumber: line}
	case "identifier", "self":
		ownerText := file.Content(receiver)
		if receiver.Type() == "self" {
			ownerText = "self"
		}
		return &core.Call{Token: token, OwnerToken: ownerText, LineNumber: line}
	}
	return &core.Call{Token: token, OwnerToken: core.UnknownVarOwner, LineNumber: line}
}

// parameterVariables extracts constructor-valued parameter defaults:
// "def process(item = Widget.new)" registers item -> Widget.
func parameterVariables(file *lang.ParsedFile, tree *sitter.Node) []*core.Variable {
	params := tree.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var vars []*core.Variable
	for _, param := range lang.NamedChildren(params) {
		if param.Type() != "optional_parameter" {
			continue
		}
		nameNode := param.ChildByFieldName("name")
		value := param.ChildByFieldName("value")
		if nameNode == nil || value == nil || value.Type() != "call" {
			continue
		}
		receiver := value.ChildByFieldName("receiver")
		methodNode := value.ChildByFieldName("method")
		if methodNode == nil {
			continue
		}
		if receiver != nil && (receiver.Type() == "constant" || receiver.Type() == "scope_resolution") &&
			file.Content(methodNode) == "new" {
			vars = append(vars, core.NewRawVariable(file.Content(nameNode), constantToken(file, receiver), lang.Line(param)))
		} else if receiver == nil {
			vars = append(vars, core.NewRawVariable(file.Content(nameNode), file.Content(methodNode), lang.Line(param)))
		}
	}
	return vars
}

// makeLocalVariables extracts "x = C.new" and "x = f()" assignment shapes
// as raw variables.
func makeLocalVariables(file *lang.ParsedFile, body *sitter.Node) []*core.Variable {
	var vars []*core.Variable
	lang.Walk(body, func(n *sitter.Node) bool {
		if n != body {
			switch n.Type() {
			case "method", "singleton_method", "class", "module":
				return false
			}
		}
		if n.Type() == "assignment" {
			if v := variableFromAssignment(file, n); v != nil {
				vars = append(vars, v)
			}
		}
		return true
	})
	return vars
}

func variableFromAssignment(file *lang.ParsedFile, n *sitter.Node) *core.Variable {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return nil
	}
	if right.Type() != "call" {
		return nil
	}
	receiver := right.ChildByFieldName("receiver")
	methodNode := right.ChildByFieldName("method")
	if methodNode == nil {
		return nil
	}
	if receiver != nil && (receiver.Type() == "constant" || receiver.Type() == "scope_resolution") &&
		file.Content(methodNode) == "new" {
		return core.NewRawVariable(file.Content(left), constantToken(file, receiver), lang.Line(n))
	}
	if receiver == nil {
		return core.NewRawVariable(file.Content(left), file.Content(methodNode), lang.Line(n))
	}
	return nil
}
