package render

import (
	"encoding/json"
	"io"

	"github.com/keshy/CodeSense/graph/core"
)

type jsonNode struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type jsonEdge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Directed bool   `json:"directed"`
}

type jsonGraph struct {
	Directed bool                `json:"directed"`
	Nodes    map[string]jsonNode `json:"nodes"`
	Edges    []jsonEdge          `json:"edges"`
}

type jsonDocument struct {
	Graph jsonGraph `json:"graph"`
}

// WriteJSON emits the graph in the neutral JSON schema consumed by
// downstream indexing services. Map keys marshal in sorted order, so the
// output is byte-stable for sorted input.
func WriteJSON(w io.Writer, nodes []*core.Node, edges []*core.Edge) error {
	doc := jsonDocument{Graph: jsonGraph{
		Directed: true,
		Nodes:    make(map[string]jsonNode, len(nodes)),
		Edges:    make([]jsonEdge, 0, len(edges)),
	}}
	for _, node := range nodes {
		doc.Graph.Nodes[node.UID()] = jsonNode{
			UID:   node.UID(),
			Name:  node.Name(),
			Label: node.Label(),
			Type:  nodeRole(node, edges),
		}
	}
	for _, edge := range edges {
		doc.Graph.Edges = append(doc.Graph.Edges, jsonEdge{
			Source:   edge.Source.UID(),
			Target:   edge.Target.UID(),
			Directed: true,
		})
	}
	return json.NewEncoder(w).Encode(doc)
}
