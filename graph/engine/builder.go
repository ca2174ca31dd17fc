package engine

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/keshy/CodeSense/graph/core"
	"github.com/keshy/CodeSense/graph/lang"
	"github.com/keshy/CodeSense/output"
)

// BuildFileGroups parses every source file and builds one file group per
// file: a synthetic root node for top-level code, a node per function, and
// a recursive class group per class.
//
// Parsing runs in parallel bounded by CPU count; the result list keeps the
// input (sorted) order, so later stages are deterministic regardless of
// parse completion order. Parse failures either skip the file with a
// warning (--skip-parse-errors) or abort the run.
func BuildFileGroups(ctx context.Context, sources []string, adapter lang.Adapter, opts Options, logger *output.Logger) ([]*core.Group, error) {
	if err := adapter.AssertDependencies(); err != nil {
		return nil, &DependencyError{Msg: err.Error()}
	}

	type parseResult struct {
		file    *lang.ParsedFile
		skipped bool
		err     error
	}
	results := make([]parseResult, len(sources))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, source := range sources {
		eg.Go(func() error {
			if opts.ExcludeLibFiles && adapter.IsLibraryFile(source, opts.LangParams) {
				results[i] = parseResult{skipped: true}
				return nil
			}
			file, err := adapter.ParseFile(egCtx, source, opts.LangParams)
			if err != nil {
				perr := &ParseError{Path: source, Err: err}
				if opts.SkipParseErrors {
					results[i] = parseResult{err: perr}
					return nil
				}
				return perr
			}
			results[i] = parseResult{file: file}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var fileGroups []*core.Group
	for i, res := range results {
		switch {
		case res.skipped:
			logger.Debug("Skipping lib file %s", sources[i])
		case res.err != nil:
			logger.Warning("%v. Skipping...", res.err)
		default:
			fileGroups = append(fileGroups, makeFileGroup(res.file, adapter))
		}
	}
	return fileGroups, nil
}

// makeFileGroup turns one parsed file into a complete file group.
func makeFileGroup(file *lang.ParsedFile, adapter lang.Adapter) *core.Group {
	ns := adapter.SeparateNamespaces(file)
	token := fileToken(file.Path)
	group := core.NewFileGroup(token, file.Path, adapter.FileImportTokens(file))

	for _, nodeTree := range ns.Nodes {
		for _, node := range adapter.MakeNodes(file, nodeTree, group) {
			group.AddNode(node)
		}
	}
	group.AddRootNode(adapter.MakeRootNode(file, ns.Body, group))
	for _, subgroupTree := range ns.Subgroups {
		group.AddSubgroup(adapter.MakeClassGroup(file, subgroupTree, group))
	}
	return group
}

// fileToken is the basename without extension: "a/b/views.py" -> "views".
func fileToken(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
