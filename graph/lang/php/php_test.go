package php

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

const phpSource = `<?php
use App\Helpers\Cleaner;

class Obj extends Base {
    public function __construct() {
        $this->size = 1;
    }

    public function login() {
        validate();
    }
}

function entry() {
    $o = new Obj();
    $o->login();
    Cleaner::clean();
}

entry();
`

func parsePHP(t *testing.T, source string) (*Adapter, *lang.ParsedFile) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "app.php")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	adapter := New()
	file, err := adapter.ParseFile(context.Background(), path, lang.DefaultParams())
	require.NoError(t, err)
	return adapter, file
}

func TestPHP_SeparateNamespaces(t *testing.T) {
	adapter, file := parsePHP(t, phpSource)

	ns := adapter.SeparateNamespaces(file)
	assert.Len(t, ns.Subgroups, 1)
	assert.Len(t, ns.Nodes, 1)
	assert.NotEmpty(t, ns.Body)
}

func TestPHP_MakeClassGroup(t *testing.T) {
	adapter, file := parsePHP(t, phpSource)
	parent := core.NewFileGroup("app", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	group := adapter.MakeClassGroup(file, ns.Subgroups[0], parent)

	assert.Equal(t, "Obj", group.Token)
	assert.Equal(t, []string{"Base"}, group.InheritNames)
	require.Len(t, group.Nodes, 2)
	assert.True(t, group.Nodes[0].IsConstructor)
	assert.Equal(t, "__construct", group.Nodes[0].Token)
	assert.Equal(t, "login", group.Nodes[1].Token)
	// Methods carry the receiver alias for $this->m() resolution.
	assert.Equal(t, "this", group.Nodes[1].Variables[0].Token)
}

func TestPHP_MakeNodesCallsAndVariables(t *testing.T) {
	adapter, file := parsePHP(t, phpSource)
	parent := core.NewFileGroup("app", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	nodes := adapter.MakeNodes(file, ns.Nodes[0], parent)
	require.Len(t, nodes, 1)
	entry := nodes[0]

	require.Len(t, entry.Calls, 3)
	// new Obj() is a plain call to Obj for the constructor rule.
	assert.Equal(t, "Obj", entry.Calls[0].Token)
	assert.False(t, entry.Calls[0].IsAttr())
	assert.Equal(t, "login", entry.Calls[1].Token)
	assert.Equal(t, "o", entry.Calls[1].OwnerToken)
	assert.Equal(t, "clean", entry.Calls[2].Token)
	assert.Equal(t, "Cleaner", entry.Calls[2].OwnerToken)

	require.Len(t, entry.Variables, 1)
	assert.Equal(t, "o", entry.Variables[0].Token)
	assert.Equal(t, core.RawToken("Obj"), entry.Variables[0].Points)
}

func TestPHP_UseBindings(t *testing.T) {
	adapter, file := parsePHP(t, phpSource)

	imports := adapter.FileImportTokens(file)
	require.Len(t, imports, 1)
	assert.Equal(t, "Cleaner", imports[0].Token)
	assert.Equal(t, core.RawToken("Cleaner"), imports[0].Points)
}

func TestPHP_ScopedSelfCallMapsToReceiver(t *testing.T) {
	source := `<?php
class Job {
    public function run() {
        self::step();
    }

    public function step() {
    }
}
`
	adapter, file := parsePHP(t, source)
	parent := core.NewFileGroup("job", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	group := adapter.MakeClassGroup(file, ns.Subgroups[0], parent)
	run := group.Nodes[0]

	require.Len(t, run.Calls, 1)
	assert.Equal(t, "step", run.Calls[0].Token)
	assert.Equal(t, "this", run.Calls[0].OwnerToken)
}

func TestPHP_ParameterDefaultConstructor(t *testing.T) {
	source := `<?php
function process($count, $item = new Widget()) {
    $item->configure();
}
`
	adapter, file := parsePHP(t, source)
	parent := core.NewFileGroup("app", file.Path, nil)

	ns := adapter.SeparateNamespaces(file)
	nodes := adapter.MakeNodes(file, ns.Nodes[0], parent)
	require.Len(t, nodes, 1)
	process := nodes[0]

	require.Len(t, process.Variables, 1)
	assert.Equal(t, "item", process.Variables[0].Token)
	assert.Equal(t, core.RawToken("Widget"), process.Variables[0].Points)
}

func TestPHP_IsLibraryFile(t *testing.T) {
	adapter := New()
	params := lang.DefaultParams()

	assert.True(t, adapter.IsLibraryFile("/p/vendor/monolog/src/Logger.php", params))
	assert.False(t, adapter.IsLibraryFile("/p/src/Controller.php", params))
}
