package engine

import (
	"sort"

	"github.com/keshy/CodeSense/graph/core"
	"github.com/keshy/CodeSense/output"
)

// Resolve links every call on every node to at most one target node and
// returns the flattened node list plus the resolved edges.
//
// It runs in three passes:
//  1. Inheritance wiring: a global token table maps each class token to its
//     directly declared nodes; each class's inherit names become node
//     lists, and every inherited node is injected as a variable into every
//     node of the inheriting class so self.m() can reach it.
//  2. Variable resolution: raw-token variables are pointed at file or
//     class groups, or at the unknown-module sentinel.
//  3. Linking: each call resolves through the variables visible at its
//     line first, then through the global name tables. A call with more
//     than one surviving global candidate is ambiguous: no edge, logged at
//     the end.
func Resolve(fileGroups []*core.Group, logger *output.Logger) ([]*core.Node, []*core.Edge) {
	var allGroups []*core.Group
	var allNodes []*core.Node
	for _, fg := range fileGroups {
		allGroups = append(allGroups, fg.AllGroups()...)
		allNodes = append(allNodes, fg.AllNodes()...)
	}

	nodesByGroupToken := make(map[string][]*core.Node)
	for _, group := range allGroups {
		if _, dup := nodesByGroupToken[group.Token]; dup {
			logger.Warning("Duplicate group name %q. Naming collision possible.", group.Token)
		}
		nodesByGroupToken[group.Token] = append(nodesByGroupToken[group.Token], group.Nodes...)
	}

	for _, group := range allGroups {
		group.Inherits = nil
		for _, name := range group.InheritNames {
			inherited, ok := nodesByGroupToken[name]
			if !ok || len(inherited) == 0 {
				continue
			}
			group.Inherits = append(group.Inherits, inherited)
			for _, node := range group.Nodes {
				for _, inheritedNode := range inherited {
					node.Variables = append(node.Variables,
						core.NewVariable(inheritedNode.Token, inheritedNode, inheritedNode.LineNumber))
				}
			}
		}
	}

	for _, node := range allNodes {
		node.ResolveVariables(fileGroups)
	}
	for _, fg := range fileGroups {
		// File imports are raw-token variables shared by every node in the
		// file; resolve them once per file the same way.
		(&core.Node{Variables: fg.ImportTokens}).ResolveVariables(fileGroups)
	}

	var edges []*core.Edge
	var badCalls []*core.Call
	for _, nodeA := range allNodes {
		for _, call := range nodeA.Calls {
			nodeB, badCall := findLinkForCall(call, nodeA, allNodes)
			if badCall != nil {
				badCalls = append(badCalls, badCall)
			}
			if nodeB != nil {
				edges = append(edges, &core.Edge{Source: nodeA, Target: nodeB, LineNumber: call.LineNumber})
			}
		}
	}

	if len(badCalls) > 0 {
		seen := make(map[string]bool)
		var callStrings []string
		for _, call := range badCalls {
			if !seen[call.String()] {
				seen[call.String()] = true
				callStrings = append(callStrings, call.String())
			}
		}
		sort.Strings(callStrings)
		logger.Progress("Skipped processing these calls because the algorithm "+
			"linked them to multiple function definitions: %v.", callStrings)
	}

	return allNodes, edges
}

// findLinkForCall returns the node a call resolves to, or the call itself
// when it matched more than one global candidate.
//
// Variable-based matches run first and win outright: a locally justified
// resolution beats any number of global name matches, and a variable that
// points at an unknown module deliberately ends the search with no edge
// and no ambiguity.
func findLinkForCall(call *core.Call, nodeA *core.Node, allNodes []*core.Node) (*core.Node, *core.Call) {
	for _, variable := range nodeA.GetVariables(call.LineNumber) {
		match := call.MatchesVariable(variable)
		if match == nil {
			continue
		}
		if match == core.UnknownModule {
			return nil, nil
		}
		if node, ok := match.(*core.Node); ok {
			return node, nil
		}
	}

	var possible []*core.Node
	if call.IsAttr() {
		for _, node := range allNodes {
			// Excluding nodes in the caller's own file group prevents a
			// self-link in cases like: function a() { b = Obj(); b.a() }
			if call.Token == node.Token && node.Parent != nodeA.FileGroup() {
				possible = append(possible, node)
			}
		}
	} else {
		for _, node := range allNodes {
			if call.Token == node.Token && node.Parent != nil && node.Parent.Type == core.GroupFile {
				possible = append(possible, node)
			} else if node.IsConstructor && node.Parent != nil && call.Token == node.Parent.Token {
				possible = append(possible, node)
			}
		}
	}

	switch len(possible) {
	case 0:
		return nil, nil
	case 1:
		return possible[0], nil
	default:
		return nil, call
	}
}
