package lang

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/keshy/CodeSense/graph/core"
)

// Params carries language-specific knobs passed through from the CLI.
type Params struct {
	// SourceType is "script" or "module". JavaScript only; kept for CLI
	// compatibility (tree-sitter parses both forms with one grammar).
	SourceType string

	// RubyVersion is the Ruby language version, e.g. "27". Kept for CLI
	// compatibility; the in-process grammar is version-agnostic.
	RubyVersion string
}

// DefaultParams mirrors the CLI defaults.
func DefaultParams() Params {
	return Params{SourceType: "script", RubyVersion: "27"}
}

// ParsedFile is one source file parsed to a tree-sitter AST.
type ParsedFile struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree
}

// Root returns the AST root node.
func (f *ParsedFile) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Content returns the source text of an AST node.
func (f *ParsedFile) Content(n *sitter.Node) string {
	return n.Content(f.Source)
}

// Namespaces is an AST partitioned into class/module subtrees, function
// subtrees, and residual top-level statements.
type Namespaces struct {
	Subgroups []*sitter.Node
	Nodes     []*sitter.Node
	Body      []*sitter.Node
}

// Adapter is the per-language substitution boundary. The pipeline never
// inspects AST shape directly; every AST operation goes through one of
// these methods.
type Adapter interface {
	// Language returns the language name, e.g. "python".
	Language() string

	// Extensions returns the file suffixes this adapter owns, e.g. ["py"].
	Extensions() []string

	// AssertDependencies fails fast when something the adapter needs is
	// missing. The tree-sitter grammars are compiled in, so most adapters
	// have nothing to check.
	AssertDependencies() error

	// IsLibraryFile reports whether a path looks like vendored or installed
	// third-party code for this language.
	IsLibraryFile(path string, params Params) bool

	// ParseFile reads and parses one file. Malformed source is a parse
	// error; the context bounds parse time.
	ParseFile(ctx context.Context, path string, params Params) (*ParsedFile, error)

	// SeparateNamespaces partitions a parsed file into class/module trees,
	// function trees, and leftover top-level statements.
	SeparateNamespaces(file *ParsedFile) Namespaces

	// MakeNodes builds the nodes for one function tree: the function itself
	// plus any nested functions, each carrying its parsed calls and
	// variables. Nodes are not yet attached to the parent group.
	MakeNodes(file *ParsedFile, tree *sitter.Node, parent *core.Group) []*core.Node

	// MakeRootNode builds the synthetic node holding a file's top-level
	// statements.
	MakeRootNode(file *ParsedFile, body []*sitter.Node, parent *core.Group) *core.Node

	// MakeClassGroup builds a class/module group, recursively, with its
	// member nodes and nested groups attached.
	MakeClassGroup(file *ParsedFile, tree *sitter.Node, parent *core.Group) *core.Group

	// FileImportTokens extracts the names a file's imports bind, as raw
	// variables for the resolver to point at file or class groups.
	FileImportTokens(file *ParsedFile) []*core.Variable
}
