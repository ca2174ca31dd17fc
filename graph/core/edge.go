package core

import "strconv"

// Edge is a resolved, directed call relation between two nodes.
type Edge struct {
	// Source is the calling node.
	Source *Node

	// Target is the called node.
	Target *Node

	// LineNumber is the call-site line in the source node's file. Two edges
	// between the same pair are distinct when their call-sites differ.
	LineNumber uint32
}

// Key identifies an edge for deduplication: same endpoints and same
// call-site collapse to one edge.
func (e *Edge) Key() string {
	return e.Source.UID() + "->" + e.Target.UID() + "@" + strconv.FormatUint(uint64(e.LineNumber), 10)
}
