package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/keshy/CodeSense/graph/core"
)

// Node fill colors for the three roles.
const (
	nodeColor  = "#cccccc"
	trunkColor = "#966F33"
	leafColor  = "#6db33f"
)

// edgeColors is the palette edges cycle through, keyed by source line.
var edgeColors = []string{
	"#000000", "#E69F00", "#56B4E9", "#009E73",
	"#F0E442", "#0072B2", "#D55E00", "#CC79A7",
}

// polylineEdgeThreshold switches the spline style on big graphs: ortho
// routing becomes unreadably slow past a few hundred edges.
const polylineEdgeThreshold = 500

const legend = `subgraph legend{
    rank = min;
    label = "legend";
    Legend [shape=none, margin=0, label = <
        <table cellspacing="0" cellpadding="0" border="1"><tr><td>CodeSense Legend</td></tr><tr><td>
        <table cellspacing="0">
        <tr><td>Regular function</td><td width="50px" bgcolor='%s'></td></tr>
        <tr><td>Trunk function (nothing calls this)</td><td bgcolor='%s'></td></tr>
        <tr><td>Leaf function (this calls nothing else)</td><td bgcolor='%s'></td></tr>
        <tr><td>Function call</td><td><font color='black'>&#8594;</font></td></tr>
        </table></td></tr></table>
        >];
}`

// DotOptions configures DOT emission.
type DotOptions struct {
	HideLegend bool
	NoGrouping bool
}

// WriteDot emits the graph as a graphviz document: legend, one statement
// per node and edge, and one cluster subgraph per surviving group unless
// grouping is off.
func WriteDot(w io.Writer, fileGroups []*core.Group, nodes []*core.Node, edges []*core.Edge, opts DotOptions) error {
	splines := "ortho"
	if len(edges) >= polylineEdgeThreshold {
		splines = "polyline"
	}

	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("concentrate=true;\n")
	fmt.Fprintf(&b, "splines=\"%s\";\n", splines)
	b.WriteString("rankdir=\"LR\";\n")
	if !opts.HideLegend {
		fmt.Fprintf(&b, legend+"\n", nodeColor, trunkColor, leafColor)
	}
	for _, node := range nodes {
		b.WriteString(nodeToDot(node, edges) + ";\n")
	}
	for _, edge := range edges {
		b.WriteString(edgeToDot(edge) + ";\n")
	}
	if !opts.NoGrouping {
		for _, group := range fileGroups {
			b.WriteString(groupToDot(group))
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func nodeToDot(node *core.Node, edges []*core.Edge) string {
	fill := nodeColor
	switch nodeRole(node, edges) {
	case "trunk":
		fill = trunkColor
	case "leaf":
		fill = leafColor
	}
	return fmt.Sprintf("%s [label=%q name=%q shape=\"rect\" style=\"rounded,filled\" fillcolor=%q]",
		node.UID(), node.Label(), node.Name(), fill)
}

func edgeToDot(edge *core.Edge) string {
	color := edgeColors[int(edge.Source.LineNumber)%len(edgeColors)]
	return fmt.Sprintf("%s -> %s [color=%q penwidth=\"2\"]", edge.Source.UID(), edge.Target.UID(), color)
}

func groupToDot(group *core.Group) string {
	var b strings.Builder
	fmt.Fprintf(&b, "subgraph %s {\n", clusterUID(group))
	for _, node := range group.Nodes {
		fmt.Fprintf(&b, "    %s;\n", node.UID())
	}
	for _, subgroup := range group.Subgroups {
		inner := strings.TrimSuffix(groupToDot(subgroup), "\n")
		b.WriteString("    " + strings.ReplaceAll(inner, "\n", "\n    ") + "\n")
	}
	fmt.Fprintf(&b, "    label=%q;\n", group.Label())
	fmt.Fprintf(&b, "    name=%q;\n", group.Token)
	b.WriteString("    style=\"filled\";\n")
	b.WriteString("    graph[style=dotted];\n")
	b.WriteString("}\n")
	return b.String()
}

// clusterUID is the stable DOT subgraph identifier for a group.
func clusterUID(group *core.Group) string {
	sum := xxh3.HashString(fmt.Sprintf("%s/%s:%d", group.FileGroup().Path, group.Token, group.LineNumber))
	return fmt.Sprintf("cluster_%016x", sum)
}
