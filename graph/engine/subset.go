package engine

import (
	"github.com/keshy/CodeSense/graph/core"
)

// SubsetParams restricts the output to the neighborhood of one target
// node: everything reachable downstream within DownstreamDepth hops and
// everything that reaches the target upstream within UpstreamDepth hops.
type SubsetParams struct {
	TargetFunction  string
	UpstreamDepth   int
	DownstreamDepth int
}

// NewSubsetParams validates the flag combination. It returns nil params
// (and no error) when no target function was given and no depths were set.
func NewSubsetParams(targetFunction string, upstreamDepth, downstreamDepth int) (*SubsetParams, error) {
	if upstreamDepth != 0 && targetFunction == "" {
		return nil, Configf("--upstream-depth requires --target-function")
	}
	if downstreamDepth != 0 && targetFunction == "" {
		return nil, Configf("--downstream-depth requires --target-function")
	}
	if targetFunction == "" {
		return nil, nil
	}
	if upstreamDepth == 0 && downstreamDepth == 0 {
		return nil, Configf("--target-function requires --upstream-depth or --downstream-depth")
	}
	if upstreamDepth < 0 {
		return nil, Configf("--upstream-depth must be >= 0. Exclude argument for complete depth.")
	}
	if downstreamDepth < 0 {
		return nil, Configf("--downstream-depth must be >= 0. Exclude argument for complete depth.")
	}
	return &SubsetParams{
		TargetFunction:  targetFunction,
		UpstreamDepth:   upstreamDepth,
		DownstreamDepth: downstreamDepth,
	}, nil
}

// ApplySubset restricts the graph to the target's neighborhood. The target
// must match exactly one node by token, class-qualified token, or fully
// qualified "file::class.func" name.
func ApplySubset(params *SubsetParams, fileGroups []*core.Group, allNodes []*core.Node, edges []*core.Edge) ([]*core.Group, []*core.Node, []*core.Edge, error) {
	target, err := findTargetNode(params.TargetFunction, allNodes)
	if err != nil {
		return nil, nil, nil, err
	}

	include := neighborhood(target, params, edges)

	var newEdges []*core.Edge
	for _, edge := range edges {
		if include[edge.Source] && include[edge.Target] {
			newEdges = append(newEdges, edge)
		}
	}

	for _, fileGroup := range fileGroups {
		for _, node := range fileGroup.AllNodes() {
			if !include[node] {
				node.RemoveFromParent()
			}
		}
	}
	fileGroups = pruneEmptyGroups(fileGroups)

	var newNodes []*core.Node
	for _, node := range allNodes {
		if include[node] {
			newNodes = append(newNodes, node)
		}
	}
	return fileGroups, newNodes, newEdges, nil
}

// findTargetNode locates the subset target. Zero or multiple matches are
// hard failures; the error suggests the more qualified spellings.
func findTargetNode(target string, allNodes []*core.Node) (*core.Node, error) {
	var matches []*core.Node
	for _, node := range allNodes {
		if node.Token == target || node.TokenWithOwnership() == target || node.Name() == target {
			matches = append(matches, node)
		}
	}
	if len(matches) == 0 {
		return nil, Configf("could not find node %q to build a subset", target)
	}
	if len(matches) > 1 {
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Name())
		}
		return nil, Configf("found multiple nodes for %q: %v. Try either a `class.func` or `filename::class.func`.", target, names)
	}
	return matches[0], nil
}

// neighborhood runs the bounded BFS in both directions and returns the
// included node set.
func neighborhood(target *core.Node, params *SubsetParams, edges []*core.Edge) map[*core.Node]bool {
	downstream := make(map[*core.Node][]*core.Node)
	upstream := make(map[*core.Node][]*core.Node)
	for _, edge := range edges {
		downstream[edge.Source] = append(downstream[edge.Source], edge.Target)
		upstream[edge.Target] = append(upstream[edge.Target], edge.Source)
	}

	include := map[*core.Node]bool{target: true}
	expand := func(adjacency map[*core.Node][]*core.Node, depth int) {
		step := map[*core.Node]bool{target: true}
		for i := 0; i < depth; i++ {
			next := make(map[*core.Node]bool)
			for node := range step {
				for _, neighbor := range adjacency[node] {
					next[neighbor] = true
					include[neighbor] = true
				}
			}
			step = next
		}
	}
	expand(downstream, params.DownstreamDepth)
	expand(upstream, params.UpstreamDepth)
	return include
}

// pruneEmptyGroups drops subgroups and file groups left with no nodes.
func pruneEmptyGroups(fileGroups []*core.Group) []*core.Group {
	var kept []*core.Group
	for _, fileGroup := range fileGroups {
		for _, group := range fileGroup.AllGroups() {
			if group != fileGroup && len(group.AllNodes()) == 0 {
				group.RemoveFromParent()
			}
		}
		if len(fileGroup.AllNodes()) > 0 {
			kept = append(kept, fileGroup)
		}
	}
	return kept
}
