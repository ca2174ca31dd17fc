// Package engine runs the language-agnostic call-graph pipeline: source
// enumeration, file-group construction, filtering, call resolution, subset
// and trimming. Everything AST-shaped is delegated to a lang.Adapter.
package engine

import (
	"context"
	"strings"

	"github.com/keshy/CodeSense/graph/core"
	"github.com/keshy/CodeSense/graph/lang"
	"github.com/keshy/CodeSense/output"
)

// Options configures one pipeline run.
type Options struct {
	// Sources are file or directory paths; directories are walked.
	Sources []string

	// Language is the file suffix to process ("py", "js", "mjs", "rb",
	// "php"). Empty means detect from the first file.
	Language string

	// NoTrimming keeps nodes and namespaces that connect to nothing.
	NoTrimming bool

	// Filter lists, applied before resolution.
	ExcludeNamespaces     []string
	ExcludeFunctions      []string
	IncludeOnlyNamespaces []string
	IncludeOnlyFunctions  []string

	// SkipParseErrors skips files the parser fails on instead of aborting.
	SkipParseErrors bool

	// ExcludeLibFiles skips files the adapter classifies as third-party.
	ExcludeLibFiles bool

	// LangParams carries language-specific knobs.
	LangParams lang.Params

	// Subset, when non-nil, restricts the output to a target node's
	// neighborhood after resolution.
	Subset *SubsetParams

	// Registry overrides the global adapter registry. Tests use this to
	// substitute mock adapters.
	Registry *lang.Registry
}

// Graph is the pipeline result: the surviving containment forest, the
// emitted nodes, and the resolved edges.
type Graph struct {
	FileGroups []*core.Group
	Nodes      []*core.Node
	Edges      []*core.Edge
}

// Run executes the pipeline. Stages run to completion in order; the only
// parallelism is inside the parse stage and the result is order-independent
// by construction.
func Run(ctx context.Context, opts Options, logger *output.Logger) (*Graph, error) {
	registry := opts.Registry
	if registry == nil {
		registry = lang.Global()
	}

	sources, language, err := CollectSources(opts.Sources, opts.Language, registry, logger)
	if err != nil {
		return nil, err
	}
	adapter, _ := registry.ByExtension(language)

	stopTiming := logger.StartTiming("parse")
	fileGroups, err := BuildFileGroups(ctx, sources, adapter, opts, logger)
	stopTiming()
	if err != nil {
		return nil, err
	}

	if len(opts.ExcludeNamespaces) > 0 || len(opts.IncludeOnlyNamespaces) > 0 {
		fileGroups = LimitNamespaces(fileGroups, opts.ExcludeNamespaces, opts.IncludeOnlyNamespaces, logger)
	}
	if len(opts.ExcludeFunctions) > 0 || len(opts.IncludeOnlyFunctions) > 0 {
		fileGroups = LimitFunctions(fileGroups, opts.ExcludeFunctions, opts.IncludeOnlyFunctions, logger)
	}

	stopTiming = logger.StartTiming("resolve")
	allNodes, edges := Resolve(fileGroups, logger)
	stopTiming()
	logGraphContents(fileGroups, allNodes, logger)

	if !opts.NoTrimming {
		fileGroups, allNodes = TrimOrphans(fileGroups, allNodes, edges, logger)
	}

	if opts.Subset != nil {
		logger.Progress("Filtering into subset...")
		fileGroups, allNodes, edges, err = ApplySubset(opts.Subset, fileGroups, allNodes, edges)
		if err != nil {
			return nil, err
		}
	}

	logger.Statistic("Graph: %d nodes, %d edges.", len(allNodes), len(edges))
	return &Graph{FileGroups: fileGroups, Nodes: allNodes, Edges: edges}, nil
}

// logGraphContents dumps what resolution found, for debugging runs where
// expected edges are missing.
func logGraphContents(fileGroups []*core.Group, allNodes []*core.Node, logger *output.Logger) {
	if !logger.IsDebug() {
		return
	}
	var groups, nodes []string
	for _, fg := range fileGroups {
		for _, g := range fg.AllGroups() {
			groups = append(groups, g.Label())
		}
	}
	for _, n := range allNodes {
		nodes = append(nodes, n.TokenWithOwnership())
	}
	logger.Debug("Found groups: %s", strings.Join(groups, ", "))
	logger.Debug("Found nodes: %s", strings.Join(nodes, ", "))
}
