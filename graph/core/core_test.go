package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFileWithClass() (*Group, *Group, *Node, *Node) {
	// file "views" containing: class Obj { __init__, login } plus a
	// top-level function entry.
	file := NewFileGroup("views", "/project/views.py", nil)

	class := &Group{Token: "Obj", Type: GroupClass, DisplayName: "Class", LineNumber: 1, Parent: file}
	ctor := &Node{Token: "__init__", LineNumber: 2, IsConstructor: true}
	login := &Node{Token: "login", LineNumber: 5}
	class.AddNode(ctor)
	class.AddNode(login)
	file.AddSubgroup(class)

	entry := &Node{Token: "entry", LineNumber: 10}
	file.AddNode(entry)
	file.AddRootNode(&Node{Token: RootNodeToken})

	return file, class, login, entry
}

func TestNodeQualifiedNaming(t *testing.T) {
	_, _, login, entry := buildFileWithClass()

	assert.Equal(t, "Obj.login", login.TokenWithOwnership())
	assert.Equal(t, "views::Obj.login", login.Name())
	assert.Equal(t, "entry", entry.TokenWithOwnership())
	assert.Equal(t, "views::entry", entry.Name())
}

func TestNodeUIDIsDeterministic(t *testing.T) {
	_, _, login1, _ := buildFileWithClass()
	_, _, login2, _ := buildFileWithClass()

	// Identical structure yields identical uids across independent builds.
	assert.Equal(t, login1.UID(), login2.UID())
	assert.Regexp(t, `^node_[0-9a-f]{16}$`, login1.UID())
}

func TestRootNodeLabelCollapsesToFileToken(t *testing.T) {
	file, _, login, _ := buildFileWithClass()

	assert.Equal(t, "views", file.RootNode.Label())
	assert.Equal(t, "5: Obj.login()", login.Label())
}

func TestAllNodesAndAllGroups(t *testing.T) {
	file, class, _, _ := buildFileWithClass()

	assert.Len(t, file.AllNodes(), 4)
	assert.Equal(t, []*Group{file, class}, file.AllGroups())
}

func TestRemoveFromParentIsIdempotent(t *testing.T) {
	file, _, login, _ := buildFileWithClass()

	login.RemoveFromParent()
	login.RemoveFromParent()
	assert.Len(t, file.AllNodes(), 3)
	assert.Nil(t, login.Parent)
}

func TestGetConstructor(t *testing.T) {
	file, class, _, _ := buildFileWithClass()

	require.NotNil(t, class.GetConstructor())
	assert.Equal(t, "__init__", class.GetConstructor().Token)
	assert.Nil(t, file.GetConstructor())
}

func TestGetVariablesScoping(t *testing.T) {
	file, _, _, entry := buildFileWithClass()
	file.ImportTokens = []*Variable{NewRawVariable("helpers", "helpers", 1)}
	entry.Variables = []*Variable{
		NewRawVariable("a", "Obj", 11),
		NewRawVariable("b", "Obj", 14),
	}

	// At line 12 only the first local is visible, plus the file's imports.
	// Top-level siblings and classes are NOT in scope - bare calls to them
	// must go through the global candidate search and its ambiguity rule.
	visible := entry.GetVariables(12)
	tokens := make([]string, 0, len(visible))
	for _, v := range visible {
		tokens = append(tokens, v.Token)
	}
	assert.Contains(t, tokens, "a")
	assert.NotContains(t, tokens, "b")
	assert.Contains(t, tokens, "helpers")
	assert.NotContains(t, tokens, "Obj")
	assert.NotContains(t, tokens, "entry")
}

func TestGetVariablesIncludesEnclosingClassMembers(t *testing.T) {
	_, _, login, _ := buildFileWithClass()

	// A method sees its siblings by bare name, so login() can resolve a
	// bare __init__-style call within the same class.
	visible := login.GetVariables(6)
	tokens := make([]string, 0, len(visible))
	for _, v := range visible {
		tokens = append(tokens, v.Token)
	}
	assert.Contains(t, tokens, "__init__")
	assert.Contains(t, tokens, "login")
}

func TestResolveVariables(t *testing.T) {
	file, class, _, entry := buildFileWithClass()
	other := NewFileGroup("helpers", "/project/helpers.py", nil)
	entry.Variables = []*Variable{
		NewRawVariable("x", "Obj", 11),
		NewRawVariable("h", "helpers", 12),
		NewRawVariable("r", "requests", 13),
	}

	entry.ResolveVariables([]*Group{file, other})

	assert.Equal(t, Pointee(class), entry.Variables[0].Points)
	assert.Equal(t, Pointee(other), entry.Variables[1].Points)
	// Unmatched imports resolve to the unknown-module sentinel.
	assert.Equal(t, UnknownModule, entry.Variables[2].Points)
}

func TestCallMatchesVariable_AttrOnClassInstance(t *testing.T) {
	_, class, login, _ := buildFileWithClass()
	v := NewVariable("b", class, 11)

	call := &Call{Token: "login", OwnerToken: "b", LineNumber: 12}
	assert.Equal(t, Pointee(login), call.MatchesVariable(v))

	miss := &Call{Token: "logout", OwnerToken: "b", LineNumber: 12}
	assert.Nil(t, miss.MatchesVariable(v))
}

func TestCallMatchesVariable_AttrOnInheritedMember(t *testing.T) {
	step := &Node{Token: "step", LineNumber: 3}
	// The resolver injects inherited members as node variables.
	v := NewVariable("step", step, 3)

	call := &Call{Token: "step", OwnerToken: "self", LineNumber: 9}
	assert.Equal(t, Pointee(step), call.MatchesVariable(v))
}

func TestCallMatchesVariable_UnknownModuleEndsSearch(t *testing.T) {
	v := &Variable{Token: "requests", Points: UnknownModule, LineNumber: 1}

	call := &Call{Token: "get", OwnerToken: "requests", LineNumber: 2}
	assert.Equal(t, UnknownModule, call.MatchesVariable(v))
}

func TestCallMatchesVariable_PlainCallToConstructor(t *testing.T) {
	_, class, _, _ := buildFileWithClass()
	v := NewVariable("Obj", class, 1)

	call := &Call{Token: "Obj", LineNumber: 12}
	target := call.MatchesVariable(v)
	require.NotNil(t, target)
	node, ok := target.(*Node)
	require.True(t, ok)
	assert.True(t, node.IsConstructor)
}

func TestCallMatchesVariable_InheritedThroughGroup(t *testing.T) {
	base := &Group{Token: "Base", Type: GroupClass}
	step := &Node{Token: "step", LineNumber: 2}
	base.AddNode(step)

	sub := &Group{Token: "Sub", Type: GroupClass, Inherits: [][]*Node{base.Nodes}}
	v := NewVariable("s", sub, 5)

	call := &Call{Token: "step", OwnerToken: "s", LineNumber: 6}
	assert.Equal(t, Pointee(step), call.MatchesVariable(v))
}

func TestEdgeKeyDistinguishesCallSites(t *testing.T) {
	_, _, login, entry := buildFileWithClass()

	e1 := &Edge{Source: entry, Target: login, LineNumber: 11}
	e2 := &Edge{Source: entry, Target: login, LineNumber: 12}
	e3 := &Edge{Source: entry, Target: login, LineNumber: 11}
	assert.NotEqual(t, e1.Key(), e2.Key())
	assert.Equal(t, e1.Key(), e3.Key())
}
