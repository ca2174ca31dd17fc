// Package render projects the in-memory graph to its on-disk forms:
// deterministic ordering, the neutral JSON schema, the DOT document, and
// graphviz image generation.
package render

import (
	"sort"

	"github.com/keshy/CodeSense/graph/core"
)

// SortGraph orders the graph deterministically and collapses duplicate
// edges: file groups by token, nodes by (file token, qualified name,
// line), edges by (source uid, target uid, call line). Given identical
// inputs the emitted bytes are identical.
func SortGraph(fileGroups []*core.Group, nodes []*core.Node, edges []*core.Edge) ([]*core.Group, []*core.Node, []*core.Edge) {
	sort.SliceStable(fileGroups, func(i, j int) bool {
		return fileGroups[i].Token < fileGroups[j].Token
	})

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Name() != b.Name() {
			return a.Name() < b.Name()
		}
		return a.LineNumber < b.LineNumber
	})

	seen := make(map[string]bool)
	var deduped []*core.Edge
	for _, edge := range edges {
		if !seen[edge.Key()] {
			seen[edge.Key()] = true
			deduped = append(deduped, edge)
		}
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if a.Source.UID() != b.Source.UID() {
			return a.Source.UID() < b.Source.UID()
		}
		if a.Target.UID() != b.Target.UID() {
			return a.Target.UID() < b.Target.UID()
		}
		return a.LineNumber < b.LineNumber
	})

	return fileGroups, nodes, deduped
}

// nodeRole classifies nodes for coloring and the JSON "type" field:
// trunk nodes have no incoming edges, leaf nodes no outgoing ones.
func nodeRole(node *core.Node, edges []*core.Edge) string {
	incoming, outgoing := false, false
	for _, edge := range edges {
		if edge.Target == node {
			incoming = true
		}
		if edge.Source == node {
			outgoing = true
		}
	}
	switch {
	case !incoming:
		return "trunk"
	case !outgoing:
		return "leaf"
	default:
		return "node"
	}
}
