// Package javascript adapts JavaScript source to the call-graph model using
// the tree-sitter JavaScript grammar.
package javascript

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/keshy/CodeSense/graph/core"
	"github.com/keshy/CodeSense/graph/lang"
)

func init() {
	lang.Register(New())
}

// Adapter implements lang.Adapter for JavaScript (CommonJS and ES modules).
type Adapter struct{}

// New creates the JavaScript adapter.
func New() *Adapter {
	return &Adapter{}
}

// Language returns the language name.
func (a *Adapter) Language() string {
	return "javascript"
}

// Extensions returns the file suffixes this adapter owns.
func (a *Adapter) Extensions() []string {
	return []string{"js", "mjs"}
}

// AssertDependencies is a no-op: the grammar is compiled in.
func (a *Adapter) AssertDependencies() error {
	return nil
}

// IsLibraryFile flags vendored or minified JavaScript.
func (a *Adapter) IsLibraryFile(path string, _ lang.Params) bool {
	norm := strings.ReplaceAll(path, "\\", "/")
	if strings.Contains(norm, "node_modules/") || strings.Contains(norm, "bower_components/") {
		return true
	}
	return strings.HasSuffix(norm, ".min.js")
}

// ParseFile parses one JavaScript file. The source-type param is accepted
// for CLI compatibility; the grammar handles scripts and modules alike.
func (a *Adapter) ParseFile(ctx context.Context, path string, _ lang.Params) (*lang.ParsedFile, error) {
	src, err := lang.ReadSource(path)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	if tree.RootNode().HasError() {
		return nil, fmt.Errorf("%s: invalid javascript syntax", path)
	}
	return &lang.ParsedFile{Path: path, Source: src, Tree: tree}, nil
}

// SeparateNamespaces partitions the program into class trees, function
// trees (declarations plus function-valued declarators), and residual
// top-level statements.
func (a *Adapter) SeparateNamespaces(file *lang.ParsedFile) lang.Namespaces {
	var ns lang.Namespaces
	for _, child := range lang.NamedChildren(file.Root()) {
		switch child.Type() {
		case "function_declaration", "generator_function_declaration":
			ns.Nodes = append(ns.Nodes, child)
		case "class_declaration":
			ns.Subgroups = append(ns.Subgroups, child)
		case "lexical_declaration", "variable_declaration":
			if declaratorFunction(child) != nil {
				ns.Nodes = append(ns.Nodes, child)
			} else {
				ns.Body = append(ns.Body, child)
			}
		case "export_statement":
			// Route the exported declaration as if it were top-level.
			if decl := child.ChildByFieldName("declaration"); decl != nil {
				switch decl.Type() {
				case "function_declaration", "generator_function_declaration":
					ns.Nodes = append(ns.Nodes, decl)
					continue
				case "class_declaration":
					ns.Subgroups = append(ns.Subgroups, decl)
					continue
				}
			}
			ns.Body = append(ns.Body, child)
		default:
			ns.Body = append(ns.Body, child)
		}
	}
	return ns
}

// declaratorFunction returns the declarator of "const f = function|arrow"
// statements, or nil.
func declaratorFunction(decl *sitter.Node) *sitter.Node {
	for _, child := range lang.NamedChildren(decl) {
		if child.Type() != "variable_declarator" {
			continue
		}
		value := child.ChildByFieldName("value")
		if value == nil {
			continue
		}
		switch value.Type() {
		case "function", "arrow_function", "generator_function":
			return child
		}
	}
	return nil
}

// MakeNodes builds the node for one function tree plus any functions
// declared inside it.
func (a *Adapter) MakeNodes(file *lang.ParsedFile, tree *sitter.Node, parent *core.Group) []*core.Node {
	var nameNode, body, paramHolder *sitter.Node
	switch tree.Type() {
	case "lexical_declaration", "variable_declaration":
		declarator := declaratorFunction(tree)
		if declarator == nil {
			return nil
		}
		nameNode = declarator.ChildByFieldName("name")
		body = declarator.ChildByFieldName("value")
		paramHolder = body
	default:
		nameNode = tree.ChildByFieldName("name")
		body = tree.ChildByFieldName("body")
		paramHolder = tree
	}
	if nameNode == nil || body == nil {
		return nil
	}
	token := file.Content(nameNode)

	node := &core.Node{
		Token:         token,
		LineNumber:    lang.Line(tree),
		IsConstructor: token == "constructor" && parent.Type == core.GroupClass,
		Calls:         makeCalls(file, body),
		Variables:     append(parameterVariables(file, paramHolder), makeLocalVariables(file, body)...),
	}
	if parent.Type == core.GroupClass {
		node.Variables = append([]*core.Variable{core.NewVariable("this", parent, 0)}, node.Variables...)
	}

	nodes := []*core.Node{node}
	for _, nested := range nestedFunctions(body) {
		nodes = append(nodes, a.MakeNodes(file, nested, parent)...)
	}
	return nodes
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
	if heritage := lang.FirstChildOfType(tree, "class_heritage"); heritage != nil {
		for _, expr := range lang.NamedChildren(heritage) {
			switch expr.Type() {
			case "identifier":
				group.InheritNames = append(group.InheritNames, file.Content(expr))
			case "member_expression":
				if prop := expr.ChildByFieldName("property"); prop != nil {
					group.InheritNames = append(group.InheritNames, file.Content(prop))
				}
			}
		}
	}

	body := tree.ChildByFieldName("body")
	if body == nil {
		return group
	}
	for _, member := range lang.NamedChildren(body) {
		if member.Type() == "method_definition" {
			for _, n := range a.MakeNodes(file, member, group) {
				group.AddNode(n)
			}
		}
	}
	return group
}

// FileImportTokens extracts the bindings of ES imports and top-level
// require() assignments.
func (a *Adapter) FileImportTokens(file *lang.ParsedFile) []*core.Variable {
	var vars []*core.Variable
	lang.Walk(file.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			vars = append(vars, esImportNames(file, n)...)
			return false
		case "variable_declarator":
			if v := requireBinding(file, n); v != nil {
				vars = append(vars, v)
			}
			return false
		case "function_declaration", "class_declaration", "method_definition":
			return false
		}
		return true
	})
	return vars
}

// esImportNames handles "import d from './m'", "import * as ns from './m'"
// and "import {a, b as c} from './m'". Every binding resolves to the
// imported file's token.
func esImportNames(file *lang.ParsedFile, n *sitter.Node) []*core.Variable {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	moduleToken := moduleTokenFromSource(file.Content(sourceNode))
	line := lang.Line(n)

	var vars []*core.Variable
	lang.Walk(n, func(c *sitter.Node) bool {
		switch c.Type() {
		case "identifier":
			vars = append(vars, core.NewRawVariable(file.Content(c), moduleToken, line))
		case "import_specifier":
			// {name} or {name as alias}: the local binding is the last
			// identifier in the specifier.
			ids := lang.NamedChildren(c)
			if len(ids) > 0 {
				vars = append(vars, core.NewRawVariable(file.Content(ids[len(ids)-1]), moduleToken, line))
			}
			return false
		}
		return true
	})
	return vars
}

// requireBinding handles "const m = require('./m')".
func requireBinding(file *lang.ParsedFile, declarator *sitter.Node) *core.Variable {
	nameNode := declarator.ChildByFieldName("name")
	value := declarator.ChildByFieldName("value")
	if nameNode == nil || value == nil || value.Type() != "call_expression" {
		return nil
	}
	fn := value.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" || file.Content(fn) != "require" {
		return nil
	}
	args := value.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	arg := args.NamedChild(0)
	if arg.Type() != "string" {
		return nil
	}
	return core.NewRawVariable(file.Content(nameNode), moduleTokenFromSource(file.Content(arg)), lang.Line(declarator))
}

// moduleTokenFromSource reduces an import path literal like "'./lib/b.js'"
// to the file token "b".
func moduleTokenFromSource(literal string) string {
	s := strings.Trim(literal, `"'`)
	s = strings.TrimSuffix(filepath.Base(s), filepath.Ext(s))
	return s
}

// nestedFunctions finds function declarations nested inside a body.
func nestedFunctions(body *sitter.Node) []*sitter.Node {
	var ret []*sitter.Node
	lang.Walk(body, func(n *sitter.Node) bool {
		if n == body {
			return true
		}
		switch n.Type() {
		case "function_declaration", "generator_function_declaration":
			ret = append(ret, n)
			return false
		case "class_declaration", "function", "arrow_function":
			return false
		}
		return true
	})
	return ret
}

// makeCalls extracts the call-sites in a body, in source order. "new X()"
// is recorded as a plain call to X so the constructor rule resolves it.
func makeCalls(file *lang.ParsedFile, body *sitter.Node) []*core.Call {
	var calls []*core.Call
	lang.Walk(body, func(n *sitter.Node) bool {
		if n != body {
			switch n.Type() {
			case "function_declaration", "generator_function_declaration", "class_declaration":
				return false
			}
		}
		switch n.Type() {
		case "call_expression":
			if call := callFromFunc(file, n.ChildByFieldName("function"), lang.Line(n)); call != nil {
				calls = append(calls, call)
			}
		case "new_expression":
			if ctor := n.ChildByFieldName("constructor"); ctor != nil && ctor.Type() == "identifier" {
				calls = append(calls, &core.Call{Token: file.Content(ctor), LineNumber: lang.Line(n)})
			}
		}
		return true
	})
	return calls
}

// callFromFunc translates a call's function expression into a Call.
func callFromFunc(file *lang.ParsedFile, fn *sitter.Node, line uint32) *core.Call {
	if fn == nil {
		return nil
	}
	switch fn.Type() {
	case "identifier":
		return &core.Call{Token: file.Content(fn), LineNumber: line}
	case "member_expression":
		prop := fn.ChildByFieldName("property")
		obj := fn.ChildByFieldName("object")
		if prop == nil || obj == nil {
			return nil
		}
		owner := core.UnknownVarOwner
		switch obj.Type() {
		case "identifier", "member_expression":
			owner = file.Content(obj)
		case "this":
			owner = "this"
		}
		return &core.Call{Token: file.Content(prop), OwnerToken: owner, LineNumber: line}
	}
	return nil
}

// parameterVariables extracts constructor-valued parameter defaults:
// "function process(item = new Widget())" registers item -> Widget.
func parameterVariables(file *lang.ParsedFile, fn *sitter.Node) []*core.Variable {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var vars []*core.Variable
	for _, param := range lang.NamedChildren(params) {
		if param.Type() != "assignment_pattern" {
			continue
		}
		left := param.ChildByFieldName("left")
		right := param.ChildByFieldName("right")
		if left == nil || right == nil || left.Type() != "identifier" {
			continue
		}
		switch right.Type() {
		case "new_expression":
			if ctor := right.ChildByFieldName("constructor"); ctor != nil && ctor.Type() == "identifier" {
				vars = append(vars, core.NewRawVariable(file.Content(left), file.Content(ctor), lang.Line(param)))
			}
		case "call_expression":
			if callee := right.ChildByFieldName("function"); callee != nil && callee.Type() == "identifier" && file.Content(callee) != "require" {
				vars = append(vars, core.NewRawVariable(file.Content(left), file.Content(callee), lang.Line(param)))
			}
		}
	}
	return vars
}

// makeLocalVariables extracts "x = new C()" and "x = f()" declarator
// shapes as raw variables.
func makeLocalVariables(file *lang.ParsedFile, body *sitter.Node) []*core.Variable {
	var vars []*core.Variable
	lang.Walk(body, func(n *sitter.Node) bool {
		if n != body {
			switch n.Type() {
			case "function_declaration", "generator_function_declaration", "class_declaration",
				"function", "arrow_function":
				return false
			}
		}
		if n.Type() == "variable_declarator" {
			if v := variableFromDeclarator(file, n); v != nil {
				vars = append(vars, v)
			}
		}
		return true
	})
	return vars
}

func variableFromDeclarator(file *lang.ParsedFile, n *sitter.Node) *core.Variable {
	nameNode := n.ChildByFieldName("name")
	value := n.ChildByFieldName("value")
	if nameNode == nil || value == nil || nameNode.Type() != "identifier" {
		return nil
	}
	switch value.Type() {
	case "new_expression":
		if ctor := value.ChildByFieldName("constructor"); ctor != nil && ctor.Type() == "identifier" {
			return core.NewRawVariable(file.Content(nameNode), file.Content(ctor), lang.Line(n))
		}
	case "call_expression":
		fn := value.ChildByFieldName("function")
		if fn != nil && fn.Type() == "identifier" && file.Content(fn) != "require" {
			return core.NewRawVariable(file.Content(nameNode), file.Content(fn), lang.Line(n))
		}
	}
	return nil
}
