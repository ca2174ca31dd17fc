package engine

import (
	"github.com/keshy/CodeSense/graph/core"
	"github.com/keshy/CodeSense/output"
)

// TrimOrphans detaches every node that appears in no edge, then prunes
// groups left empty. An empty result is valid: the warning tells the user
// why their output has nothing in it.
func TrimOrphans(fileGroups []*core.Group, allNodes []*core.Node, edges []*core.Edge, logger *output.Logger) ([]*core.Group, []*core.Node) {
	connected := make(map[*core.Node]bool)
	for _, edge := range edges {
		connected[edge.Source] = true
		connected[edge.Target] = true
	}

	for _, node := range allNodes {
		if !connected[node] {
			node.RemoveFromParent()
		}
	}
	fileGroups = pruneEmptyGroups(fileGroups)

	var kept []*core.Node
	for _, node := range allNodes {
		if connected[node] {
			kept = append(kept, node)
		}
	}

	if len(kept) == 0 {
		logger.Warning("No functions found! Most likely, your file(s) do not have " +
			"functions that call each other. Note that to generate a flowchart, " +
			"you need to have both the function calls and the function " +
			"definitions. Or, you might be excluding too many " +
			"with --exclude-* / --include-* / --target-function arguments.")
		logger.Warning("An empty output file will be generated.")
	}
	return fileGroups, kept
}
