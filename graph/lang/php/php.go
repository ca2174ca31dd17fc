// Package php adapts PHP source to the call-graph model using the
// tree-sitter PHP grammar.
package php

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/keshy/CodeSense/graph/core"
	"github.com/keshy/CodeSense/graph/lang"
)

func init() {
	lang.Register(New())
}

// Adapter implements lang.Adapter for PHP.
type Adapter struct{}

// New creates the PHP adapter.
func New() *Adapter {
	return &Adapter{}
}

// Language returns the language name.
func (a *Adapter) Language() string {
	return "php"
}

// Extensions returns the file suffixes this adapter owns.
func (a *Adapter) Extensions() []string {
	return []string{"php"}
}

// AssertDependencies is a no-op: the grammar is compiled in.
func (a *Adapter) AssertDependencies() error {
	return nil
}

// IsLibraryFile flags composer-vendored code.
func (a *Adapter) IsLibraryFile(path string, _ lang.Params) bool {
	norm := strings.ReplaceAll(path, "\\", "/")
	return strings.Contains(norm, "vendor/")
}

// ParseFile parses one PHP file.
func (a *Adapter) ParseFile(ctx context.Context, path string, _ lang.Params) (*lang.ParsedFile, error) {
	src, err := lang.ReadSource(path)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(php.GetLanguage())
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	if tree.RootNode().HasError() {
		return nil, fmt.Errorf("%s: invalid php syntax", path)
	}
	return &lang.ParsedFile{Path: path, Source: src, Tree: tree}, nil
}

// SeparateNamespaces partitions the program into class trees, function
// trees, and residual top-level statements. Namespace definitions are
// flattened into the file: their bodies are routed like top-level code.
func (a *Adapter) SeparateNamespaces(file *lang.ParsedFile) lang.Namespaces {
	var ns lang.Namespaces
	var route func(children []*sitter.Node)
	route = func(children []*sitter.Node) {
		for _, child := range children {
			switch child.Type() {
			case "function_definition":
				ns.Nodes = append(ns.Nodes, child)
			case "class_declaration", "trait_declaration":
				ns.Subgroups = append(ns.Subgroups, child)
			case "namespace_definition":
				if body := child.ChildByFieldName("body"); body != nil {
					route(lang.NamedChildren(body))
				}
			default:
				ns.Body = append(ns.Body, child)
			}
		}
	}
	route(lang.NamedChildren(file.Root()))
	return ns
}

// MakeNodes builds the node for one function or method tree.
func (a *Adapter) MakeNodes(file *lang.ParsedFile, tree *sitter.Node, parent *core.Group) []*core.Node {
	nameNode := tree.ChildByFieldName("name")
	body := tree.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return nil
	}
	token := file.Content(nameNode)

	node := &core.Node{
		Token:         token,
		LineNumber:    lang.Line(tree),
		IsConstructor: token == "__construct" && parent.Type == core.GroupClass,
		Calls:         makeCalls(file, body),
		Variables:     append(parameterVariables(file, tree), makeLocalVariables(file, body)...),
	}
	if parent.Type == core.GroupClass {
		node.Variables = append([]*core.Variable{core.NewVariable("this", parent, 0)}, node.Variables...)
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

// MakeClassGroup builds a class group with its methods.
func (a *Adapter) MakeClassGroup(file *lang.ParsedFile, tree *sitter.Node, parent *core.Group) *core.Group {
	nameNode := tree.ChildByFieldName("name")
	group := &core.Group{
		Token:       file.Content(nameNode),
		Type:        core.GroupClass,
		DisplayName: "Class",
		LineNumber:  lang.Line(tree),
		Parent:      parent,
	}
	if base := lang.FirstChildOfType(tree, "base_clause"); base != nil {
		for _, parentName := range lang.NamedChildren(base) {
			group.InheritNames = append(group.InheritNames, lastSegment(file.Content(parentName)))
		}
	}

	body := tree.ChildByFieldName("body")
	if body == nil {
		return group
	}
	for _, member := range lang.NamedChildren(body) {
		if member.Type() == "method_declaration" {
			for _, n := range a.MakeNodes(file, member, group) {
				group.AddNode(n)
			}
		}
	}
	return group
}

// FileImportTokens extracts "use A\B\C [as D]" bindings; each resolves by
// its final class segment.
func (a *Adapter) FileImportTokens(file *lang.ParsedFile) []*core.Variable {
	var vars []*core.Variable
	lang.Walk(file.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "namespace_use_declaration":
			vars = append(vars, useBindings(file, n)...)
			return false
		case "function_definition", "class_declaration":
			return false
		}
		return true
	})
	return vars
}

func useBindings(file *lang.ParsedFile, n *sitter.Node) []*core.Variable {
	var vars []*core.Variable
	lang.Walk(n, func(c *sitter.Node) bool {
		if c.Type() != "namespace_use_clause" {
			return true
		}
		var importedName, alias string
		for _, part := range lang.NamedChildren(c) {
			switch part.Type() {
			case "qualified_name", "name":
				if importedName == "" {
					importedName = lastSegment(file.Content(part))
				} else {
					alias = file.Content(part)
				}
			case "namespace_aliasing_clause":
				parts := lang.NamedChildren(part)
				if len(parts) > 0 {
					alias = file.Content(parts[0])
				}
			}
		}
		if importedName == "" {
			return false
		}
		token := importedName
		if alias != "" {
			token = alias
		}
		vars = append(vars, core.NewRawVariable(token, importedName, lang.Line(n)))
		return false
	})
	return vars
}

func lastSegment(qualified string) string {
	if i := strings.LastIndex(qualified, "\\"); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// variableToken strips the sigil from a PHP variable name: "$this" -> "this".
func variableToken(text string) string {
	return strings.TrimPrefix(text, "$")
}

// makeCalls extracts the call-sites in a body, in source order. "new X()"
// is recorded as a plain call to X so the constructor rule resolves it.
func makeCalls(file *lang.ParsedFile, body *sitter.Node) []*core.Call {
	var calls []*core.Call
	lang.Walk(body, func(n *sitter.Node) bool {
		if n != body {
			switch n.Type() {
			case "function_definition", "class_declaration", "method_declaration":
				return false
			}
		}
		switch n.Type() {
		case "function_call_expression":
			if fn := n.ChildByFieldName("function"); fn != nil && (fn.Type() == "name" || fn.Type() == "qualified_name") {
				calls = append(calls, &core.Call{Token: lastSegment(file.Content(fn)), LineNumber: lang.Line(n)})
			}
		case "member_call_expression":
			calls = appendMemberCall(calls, file, n)
		case "scoped_call_expression":
			calls = appendScopedCall(calls, file, n)
		case "object_creation_expression":
			for _, child := range lang.NamedChildren(n) {
				if child.Type() == "name" || child.Type() == "qualified_name" {
					calls = append(calls, &core.Call{Token: lastSegment(file.Content(child)), LineNumber: lang.Line(n)})
					break
				}
			}
		}
		return true
	})
	return calls
}

// appendMemberCall handles "$obj->m()" and "$this->m()".
func appendMemberCall(calls []*core.Call, file *lang.ParsedFile, n *sitter.Node) []*core.Call {
	nameNode := n.ChildByFieldName("name")
	obj := n.ChildByFieldName("object")
	if nameNode == nil || obj == nil {
		return calls
	}
	owner := core.UnknownVarOwner
	if obj.Type() == "variable_name" {
		owner = variableToken(file.Content(obj))
	}
	return append(calls, &core.Call{
		Token:      file.Content(nameNode),
		OwnerToken: owner,
		LineNumber: lang.Line(n),
	})
}

// appendScopedCall handles "X::m()"; "self::" and "static::" map to the
// receiver alias.
func appendScopedCall(calls []*core.Call, file *lang.ParsedFile, n *sitter.Node) []*core.Call {
	nameNode := n.ChildByFieldName("name")
	scope := n.ChildByFieldName("scope")
	if nameNode == nil || scope == nil {
		return calls
	}
	owner := lastSegment(file.Content(scope))
	if owner == "self" || owner == "static" || owner == "parent" {
		owner = "this"
	}
	return append(calls, &core.Call{
		Token:      file.Content(nameNode),
		OwnerToken: owner,
		LineNumber: lang.Line(n),
	})
}

// parameterVariables extracts constructor-valued parameter defaults:
// "function process($item = new Widget())" registers item -> Widget.
func parameterVariables(file *lang.ParsedFile, tree *sitter.Node) []*core.Variable {
	params := tree.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var vars []*core.Variable
	for _, param := range lang.NamedChildren(params) {
		if param.Type() != "simple_parameter" {
			continue
		}
		nameNode := param.ChildByFieldName("name")
		defaultValue := param.ChildByFieldName("default_value")
		if nameNode == nil || defaultValue == nil || defaultValue.Type() != "object_creation_expression" {
			continue
		}
		for _, child := range lang.NamedChildren(defaultValue) {
			if child.Type() == "name" || child.Type() == "qualified_name" {
				vars = append(vars, core.NewRawVariable(variableToken(file.Content(nameNode)), lastSegment(file.Content(child)), lang.Line(param)))
				break
			}
		}
	}
	return vars
}

// makeLocalVariables extracts "$x = new C()" and "$x = f()" assignment
// shapes as raw variables.
func makeLocalVariables(file *lang.ParsedFile, body *sitter.Node) []*core.Variable {
	var vars []*core.Variable
	lang.Walk(body, func(n *sitter.Node) bool {
		if n != body {
			switch n.Type() {
			case "function_definition", "class_declaration", "method_declaration":
				return false
			}
		}
		if n.Type() == "assignment_expression" {
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
	if left == nil || right == nil || left.Type() != "variable_name" {
		return nil
	}
	switch right.Type() {
	case "object_creation_expression":
		for _, child := range lang.NamedChildren(right) {
			if child.Type() == "name" || child.Type() == "qualified_name" {
				return core.NewRawVariable(variableToken(file.Content(left)), lastSegment(file.Content(child)), lang.Line(n))
			}
		}
	case "function_call_expression":
		if fn := right.ChildByFieldName("function"); fn != nil && (fn.Type() == "name" || fn.Type() == "qualified_name") {
			return core.NewRawVariable(variableToken(file.Content(left)), lastSegment(file.Content(fn)), lang.Line(n))
		}
	}
	return nil
}
