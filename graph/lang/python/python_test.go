package python

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

const pythonSource = `import b
from helpers import clean

class Obj(Base):
    def __init__(self):
        self.size = 1

    def login(self):
        validate()

def entry():
    o = Obj()
    o.login()
    b.run()

entry()
`

func parsePython(t *testing.T, source string) (*Adapter, *lang.ParsedFile) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "views.py")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	adapter := New()
	file, err := adapter.ParseFile(context.Background(), path, lang.DefaultParams())
	require.NoError(t, err)
	return adapter, file
}

func TestPython_SeparateNamespaces(t *testing.T) {
	adapter, file := parsePython(t, pythonSource)

	ns := adapter.SeparateNamespaces(file)
	assert.Len(t, ns.Subgroups, 1)
	assert.Len(t, ns.Nodes, 1)
	// imports, from-import, and the trailing entry() call
	assert.Len(t, ns.Body, 3)
}

func TestPython_MakeClassGroup(t *testing.T) {
	adapter, file := parsePython(t, pythonSource)
	parent := core.NewFileGroup("views", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	group := adapter.MakeClassGroup(file, ns.Subgroups[0], parent)

	assert.Equal(t, "Obj", group.Token)
	assert.Equal(t, core.GroupClass, group.Type)
	assert.Equal(t, []string{"Base"}, group.InheritNames)
	require.Len(t, group.Nodes, 2)
	assert.True(t, group.Nodes[0].IsConstructor)
	assert.Equal(t, "__init__", group.Nodes[0].Token)
	assert.Equal(t, "login", group.Nodes[1].Token)
}

func TestPython_MethodReceiverAliasAndCalls(t *testing.T) {
	adapter, file := parsePython(t, pythonSource)
	parent := core.NewFileGroup("views", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	group := adapter.MakeClassGroup(file, ns.Subgroups[0], parent)
	login := group.Nodes[1]

	// The receiver alias points at the class group.
	require.NotEmpty(t, login.Variables)
	assert.Equal(t, "self", login.Variables[0].Token)
	assert.Equal(t, core.Pointee(group), login.Variables[0].Points)

	require.Len(t, login.Calls, 1)
	assert.Equal(t, "validate", login.Calls[0].Token)
	assert.False(t, login.Calls[0].IsAttr())
}

func TestPython_MakeNodesCallsAndVariables(t *testing.T) {
	adapter, file := parsePython(t, pythonSource)
	parent := core.NewFileGroup("views", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	nodes := adapter.MakeNodes(file, ns.Nodes[0], parent)
	require.Len(t, nodes, 1)
	entry := nodes[0]

	assert.Equal(t, "entry", entry.Token)
	assert.False(t, entry.IsConstructor)

	require.Len(t, entry.Calls, 3)
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

func TestPython_MakeRootNode(t *testing.T) {
	adapter, file := parsePython(t, pythonSource)
	parent := core.NewFileGroup("views", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	root := adapter.MakeRootNode(file, ns.Body, parent)

	assert.Equal(t, core.RootNodeToken, root.Token)
	require.Len(t, root.Calls, 1)
	assert.Equal(t, "entry", root.Calls[0].Token)
}

func TestPython_FileImportTokens(t *testing.T) {
	adapter, file := parsePython(t, pythonSource)

	imports := adapter.FileImportTokens(file)
	require.Len(t, imports, 2)
	assert.Equal(t, "b", imports[0].Token)
	assert.Equal(t, core.RawToken("b"), imports[0].Points)
	assert.Equal(t, "clean", imports[1].Token)
}

func TestPython_NestedFunctionsBecomeNodes(t *testing.T) {
	source := `def outer():
    def inner():
        helper()
    inner()
`
	adapter, file := parsePython(t, source)
	parent := core.NewFileGroup("views", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	require.Len(t, ns.Nodes, 1)
	nodes := adapter.MakeNodes(file, ns.Nodes[0], parent)
	require.Len(t, nodes, 2)

	assert.Equal(t, "outer", nodes[0].Token)
	assert.Equal(t, "inner", nodes[1].Token)
	// outer's walk stops at the nested def: helper() belongs to inner.
	require.Len(t, nodes[0].Calls, 1)
	assert.Equal(t, "inner", nodes[0].Calls[0].Token)
	require.Len(t, nodes[1].Calls, 1)
	assert.Equal(t, "helper", nodes[1].Calls[0].Token)
}

func TestPython_ParameterDefaultConstructor(t *testing.T) {
	source := `def process(count, item=Widget()):
    item.configure()
`
	adapter, file := parsePython(t, source)
	parent := core.NewFileGroup("views", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	nodes := adapter.MakeNodes(file, ns.Nodes[0], parent)
	require.Len(t, nodes, 1)
	process := nodes[0]

	// The constructor-valued default registers item as a variable, so
	// item.configure() can resolve against class Widget.
	require.Len(t, process.Variables, 1)
	assert.Equal(t, "item", process.Variables[0].Token)
	assert.Equal(t, core.RawToken("Widget"), process.Variables[0].Points)
}

func TestPython_ParseErrorOnMalformedSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.py")
	require.NoError(t, os.WriteFile(path, []byte("def broken(:\n"), 0o644))

	_, err := New().ParseFile(context.Background(), path, lang.DefaultParams())
	assert.Error(t, err)
}

func TestPython_IsLibraryFile(t *testing.T) {
	adapter := New()
	params := lang.DefaultParams()

	assert.True(t, adapter.IsLibraryFile("/usr/lib/python3.11/site-packages/requests/api.py", params))
	assert.True(t, adapter.IsLibraryFile("/project/.venv/lib/mod.py", params))
	assert.False(t, adapter.IsLibraryFile("/project/app/views.py", params))
}
