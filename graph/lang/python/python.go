// Package python adapts Python source to the call-graph model using the
// tree-sitter Python grammar.
package python

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/keshy/CodeSense/graph/core"
	"github.com/keshy/CodeSense/graph/lang"
)

func init() {
	lang.Register(New())
}

// Adapter implements lang.Adapter for Python.
type Adapter struct{}

// New creates the Python adapter.
func New() *Adapter {
	return &Adapter{}
}

// Language returns the language name.
func (a *Adapter) Language() string {
	return "python"
}

// Extensions returns the file suffixes this adapter owns.
func (a *Adapter) Extensions() []string {
	return []string{"py"}
}

// AssertDependencies is a no-op: the grammar is compiled in.
func (a *Adapter) AssertDependencies() error {
	return nil
}

// IsLibraryFile flags files living under installed-package or virtualenv
// roots.
func (a *Adapter) IsLibraryFile(path string, _ lang.Params) bool {
	markers := []string{"site-packages", "dist-packages", "/venv/", "/.venv/", "/lib/python"}
	norm := strings.ReplaceAll(path, "\\", "/")
	for _, marker := range markers {
		if strings.Contains(norm, marker) {
			return true
		}
	}
	return false
}

// ParseFile parses one Python file. Source with syntax errors fails; the
// caller decides whether to skip or abort.
func (a *Adapter) ParseFile(ctx context.Context, path string, _ lang.Params) (*lang.ParsedFile, error) {
	src, err := lang.ReadSource(path)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	if tree.RootNode().HasError() {
		return nil, fmt.Errorf("%s: invalid python syntax", path)
	}
	return &lang.ParsedFile{Path: path, Source: src, Tree: tree}, nil
}

// SeparateNamespaces partitions the module into class trees, function
// trees, and residual top-level statements. Decorated definitions are
// routed by what they decorate.
func (a *Adapter) SeparateNamespaces(file *lang.ParsedFile) lang.Namespaces {
	var ns lang.Namespaces
	for _, child := range lang.NamedChildren(file.Root()) {
		switch definitionType(child) {
		case "function_definition":
			ns.Nodes = append(ns.Nodes, child)
		case "class_definition":
			ns.Subgroups = append(ns.Subgroups, child)
		default:
			ns.Body = append(ns.Body, child)
		}
	}
	return ns
}

// definitionType resolves a statement to the definition kind it carries,
// looking through decorated_definition wrappers.
func definitionType(n *sitter.Node) string {
	if n.Type() == "decorated_definition" {
		if def := n.ChildByFieldName("definition"); def != nil {
			return def.Type()
		}
	}
	return n.Type()
}

// unwrapDecorated returns the inner definition of a decorated_definition,
// or the node itself.
func unwrapDecorated(n *sitter.Node) *sitter.Node {
	if n.Type() == "decorated_definition" {
		if def := n.ChildByFieldName("definition"); def != nil {
			return def
		}
	}
	return n
}

// MakeNodes builds the node for one function tree plus nodes for any
// functions nested inside it.
func (a *Adapter) MakeNodes(file *lang.ParsedFile, tree *sitter.Node, parent *core.Group) []*core.Node {
	tree = unwrapDecorated(tree)
	nameNode := tree.ChildByFieldName("name")
	body := tree.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return nil
	}
	token := file.Content(nameNode)

	node := &core.Node{
		Token:         token,
		LineNumber:    lang.Line(tree),
		IsConstructor: token == "__init__" && parent.Type == core.GroupClass,
		Calls:         makeCalls(file, body),
		Variables:     append(parameterVariables(file, tree), makeLocalVariables(file, body)...),
	}
	if parent.Type == core.GroupClass {
		// The receiver alias lets self.m() resolve against the class group.
		node.Variables = append([]*core.Variable{core.NewVariable("self", parent, 0)}, node.Variables...)
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

// MakeClassGroup builds a class group with its methods and nested classes.
func (a *Adapter) MakeClassGroup(file *lang.ParsedFile, tree *sitter.Node, parent *core.Group) *core.Group {
	tree = unwrapDecorated(tree)
	nameNode := tree.ChildByFieldName("name")
	group := &core.Group{
		Token:       file.Content(nameNode),
		Type:        core.GroupClass,
		DisplayName: "Class",
		LineNumber:  lang.Line(tree),
		Parent:      parent,
	}
	if supers := tree.ChildByFieldName("superclasses"); supers != nil {
		for _, arg := range lang.NamedChildren(supers) {
			switch arg.Type() {
			case "identifier":
				group.InheritNames = append(group.InheritNames, file.Content(arg))
			case "attribute":
				// base.Cls - match on the class token alone
				if attr := arg.ChildByFieldName("attribute"); attr != nil {
					group.InheritNames = append(group.InheritNames, file.Content(attr))
				}
			}
		}
	}

	body := tree.ChildByFieldName("body")
	if body == nil {
		return group
	}
	for _, child := range lang.NamedChildren(body) {
		switch definitionType(child) {
		case "function_definition":
			for _, n := range a.MakeNodes(file, child, group) {
				group.AddNode(n)
			}
		case "class_definition":
			group.AddSubgroup(a.MakeClassGroup(file, child, group))
		}
	}
	return group
}

// FileImportTokens extracts the names the file's imports bind, each as a
// raw variable for the resolver to point at a file or class group.
func (a *Adapter) FileImportTokens(file *lang.ParsedFile) []*core.Variable {
	var vars []*core.Variable
	lang.Walk(file.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			vars = append(vars, importedNames(file, n)...)
			return false
		case "import_from_statement":
			vars = append(vars, importedFromNames(file, n)...)
			return false
		case "function_definition", "class_definition":
			return false
		}
		return true
	})
	return vars
}

// importedNames handles "import a.b [as c]" forms. The binding resolves to
// the file token, i.e. the last path segment.
func importedNames(file *lang.ParsedFile, n *sitter.Node) []*core.Variable {
	var vars []*core.Variable
	for _, child := range lang.NamedChildren(n) {
		switch child.Type() {
		case "dotted_name":
			module := file.Content(child)
			vars = append(vars, core.NewRawVariable(module, lastSegment(module), lang.Line(n)))
		case "aliased_import":
			moduleNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if moduleNode != nil && aliasNode != nil {
				module := file.Content(moduleNode)
				vars = append(vars, core.NewRawVariable(file.Content(aliasNode), lastSegment(module), lang.Line(n)))
			}
		}
	}
	return vars
}

// importedFromNames handles "from m import a [as b]" forms. The binding
// resolves by the imported symbol itself, which matches class groups
// directly; imported functions fall through to the global name search.
func importedFromNames(file *lang.ParsedFile, n *sitter.Node) []*core.Variable {
	moduleNode := n.ChildByFieldName("module_name")
	if moduleNode == nil {
		return nil
	}
	var vars []*core.Variable
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == moduleNode {
			continue
		}
		switch child.Type() {
		case "dotted_name", "identifier":
			name := file.Content(child)
			vars = append(vars, core.NewRawVariable(name, lastSegment(name), lang.Line(n)))
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode != nil && aliasNode != nil {
				vars = append(vars, core.NewRawVariable(file.Content(aliasNode), lastSegment(file.Content(nameNode)), lang.Line(n)))
			}
		}
	}
	return vars
}

func lastSegment(dotted string) string {
	if i := strings.LastIndex(dotted, "."); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}

// nestedFunctions finds function definitions nested inside a body, stopping
// at each so deeper nesting is handled by recursion.
func nestedFunctions(body *sitter.Node) []*sitter.Node {
	var ret []*sitter.Node
	lang.Walk(body, func(n *sitter.Node) bool {
		if n == body {
			return true
		}
		switch n.Type() {
		case "function_definition", "decorated_definition":
			ret = append(ret, n)
			return false
		case "class_definition":
			return false
		}
		return true
	})
	return ret
}

// makeCalls extracts the call-sites in a body, in source order. Calls
// inside nested definitions belong to those nodes and are skipped here.
func makeCalls(file *lang.ParsedFile, body *sitter.Node) []*core.Call {
	var calls []*core.Call
	lang.Walk(body, func(n *sitter.Node) bool {
		if n != body {
			switch n.Type() {
			case "function_definition", "class_definition", "decorated_definition":
				return false
			}
		}
		if n.Type() == "call" {
			if call := callFromFunc(file, n.ChildByFieldName("function"), lang.Line(n)); call != nil {
				calls = append(calls, call)
			}
		}
		return true
	})
	return calls
}

// callFromFunc translates a call's function expression into a Call.
// f() gives a plain call; obj.m() an attribute call with owner "obj";
// a.b.m() keeps the dotted owner; anything computed gets the unknown owner.
func callFromFunc(file *lang.ParsedFile, fn *sitter.Node, line uint32) *core.Call {
	if fn == nil {
		return nil
	}
	switch fn.Type() {
	case "identifier":
		return &core.Call{Token: file.Content(fn), LineNumber: line}
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		obj := fn.ChildByFieldName("object")
		if attr == nil || obj == nil {
			return nil
		}
		owner := core.UnknownVarOwner
		switch obj.Type() {
		case "identifier", "attribute":
			owner = file.Content(obj)
		}
		return &core.Call{Token: file.Content(attr), OwnerToken: owner, LineNumber: line}
	}
	return nil
}

// parameterVariables extracts constructor-valued parameter defaults:
// "def process(item=Widget())" registers item -> Widget. Defaults are the
// only parameter "type" a name-based resolver can infer.
func parameterVariables(file *lang.ParsedFile, tree *sitter.Node) []*core.Variable {
	params := tree.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var vars []*core.Variable
	for _, param := range lang.NamedChildren(params) {
		switch param.Type() {
		case "default_parameter", "typed_default_parameter":
		default:
			continue
		}
		nameNode := param.ChildByFieldName("name")
		value := param.ChildByFieldName("value")
		if nameNode == nil || value == nil || value.Type() != "call" {
			continue
		}
		fn := value.ChildByFieldName("function")
		if fn == nil {
			continue
		}
		switch fn.Type() {
		case "identifier":
			vars = append(vars, core.NewRawVariable(file.Content(nameNode), file.Content(fn), lang.Line(param)))
		case "attribute":
			vars = append(vars, core.NewRawVariable(file.Content(nameNode), lastSegment(file.Content(fn)), lang.Line(param)))
		}
	}
	return vars
}

// makeLocalVariables extracts single-assignment variable shapes:
// "x = C()" produces a raw variable x -> C for the resolver.
func makeLocalVariables(file *lang.ParsedFile, body *sitter.Node) []*core.Variable {
	var vars []*core.Variable
	lang.Walk(body, func(n *sitter.Node) bool {
		if n != body {
			switch n.Type() {
			case "function_definition", "class_definition", "decorated_definition":
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
	fn := right.ChildByFieldName("function")
	if fn == nil {
		return nil
	}
	switch fn.Type() {
	case "identifier":
		return core.NewRawVariable(file.Content(left), file.Content(fn), lang.Line(n))
	case "attribute":
		return core.NewRawVariable(file.Content(left), lastSegment(file.Content(fn)), lang.Line(n))
	}
	return nil
}
