package javascript

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshy/CodeSense/graph/core"
	"github.com/keshy/CodeSense/graph/lang"
)

const jsSource = `const b = require('./b');

class Obj extends Base {
  constructor() {
    this.size = 1;
  }

  login() {
    validate();
  }
}

function entry() {
  const o = new Obj();
  o.login();
  b.run();
}

entry();
`

func parseJS(t *testing.T, source string) (*Adapter, *lang.ParsedFile) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	adapter := New()
	file, err := adapter.ParseFile(context.Background(), path, lang.DefaultParams())
	require.NoError(t, err)
	return adapter, file
}

func TestJavaScript_SeparateNamespaces(t *testing.T) {
	adapter, file := parseJS(t, jsSource)

	ns := adapter.SeparateNamespaces(file)
	assert.Len(t, ns.Subgroups, 1)
	assert.Len(t, ns.Nodes, 1)
	// the require declaration and the trailing entry() call
	assert.Len(t, ns.Body, 2)
}

func TestJavaScript_MakeClassGroup(t *testing.T) {
	adapter, file := parseJS(t, jsSource)
	parent := core.NewFileGroup("app", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	group := adapter.MakeClassGroup(file, ns.Subgroups[0], parent)

	assert.Equal(t, "Obj", group.Token)
	assert.Equal(t, []string{"Base"}, group.InheritNames)
	require.Len(t, group.Nodes, 2)
	assert.True(t, group.Nodes[0].IsConstructor)
	assert.Equal(t, "constructor", group.Nodes[0].Token)
	assert.Equal(t, "login", group.Nodes[1].Token)
	// Methods carry the receiver alias for this.m() resolution.
	assert.Equal(t, "this", group.Nodes[1].Variables[0].Token)
}

func TestJavaScript_MakeNodesCallsAndVariables(t *testing.T) {
	adapter, file := parseJS(t, jsSource)
	parent := core.NewFileGroup("app", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	nodes := adapter.MakeNodes(file, ns.Nodes[0], parent)
	require.Len(t, nodes, 1)
	entry := nodes[0]

	assert.Equal(t, "entry", entry.Token)
	require.Len(t, entry.Calls, 3)
	// new Obj() is a plain call to Obj for the constructor rule.
	assert.Equal(t, "Obj", entry.Calls[0].Token)
	assert.False(t, entry.Calls[0].IsAttr())
	assert.Equal(t, "login", entry.Calls[1].Token)
	assert.Equal(t, "o", entry.Calls[1].OwnerToken)
	assert.Equal(t, "run", entry.Calls[2].Token)
	assert.Equal(t, "b", entry.Calls[2].OwnerToken)

	require.Len(t, entry.Variables, 1)
	assert.Equal(t, "o", entry.Variables[0].Token)
	assert.Equal(t, core.RawToken("Obj"), entry.Variables[0].Points)
}

func TestJavaScript_RequireBinding(t *testing.T) {
	adapter, file := parseJS(t, jsSource)

	imports := adapter.FileImportTokens(file)
	require.Len(t, imports, 1)
	assert.Equal(t, "b", imports[0].Token)
	assert.Equal(t, core.RawToken("b"), imports[0].Points)
}

func TestJavaScript_ESImportBindings(t *testing.T) {
	source := `import d from './lib/helpers.js';
import { run, stop as halt } from './machine.mjs';
`
	adapter, file := parseJS(t, source)

	imports := adapter.FileImportTokens(file)
	tokens := make(map[string]core.Pointee)
	for _, v := range imports {
		tokens[v.Token] = v.Points
	}
	assert.Equal(t, core.RawToken("helpers"), tokens["d"])
	assert.Equal(t, core.RawToken("machine"), tokens["run"])
	assert.Equal(t, core.RawToken("machine"), tokens["halt"])
}

func TestJavaScript_ArrowFunctionDeclarator(t *testing.T) {
	source := `const greet = (name) => {
  format(name);
};
`
	adapter, file := parseJS(t, source)
	parent := core.NewFileGroup("app", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	require.Len(t, ns.Nodes, 1)
	nodes := adapter.MakeNodes(file, ns.Nodes[0], parent)
	require.Len(t, nodes, 1)
	assert.Equal(t, "greet", nodes[0].Token)
	require.Len(t, nodes[0].Calls, 1)
	assert.Equal(t, "format", nodes[0].Calls[0].Token)
}

func TestJavaScript_ParameterDefaultConstructor(t *testing.T) {
	source := `function process(count, item = new Widget()) {
  item.configure();
}
`
	adapter, file := parseJS(t, source)
	parent := core.NewFileGroup("app", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	nodes := adapter.MakeNodes(file, ns.Nodes[0], parent)
	require.Len(t, nodes, 1)
	process := nodes[0]

	require.Len(t, process.Variables, 1)
	assert.Equal(t, "item", process.Variables[0].Token)
	assert.Equal(t, core.RawToken("Widget"), process.Variables[0].Points)
}

func TestJavaScript_IsLibraryFile(t *testing.T) {
	adapter := New()
	params := lang.DefaultParams()

	assert.True(t, adapter.IsLibraryFile("/p/node_modules/lodash/index.js", params))
	assert.True(t, adapter.IsLibraryFile("/p/static/vendor.min.js", params))
	assert.False(t, adapter.IsLibraryFile("/p/src/app.js", params))
}
