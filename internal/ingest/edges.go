package ingest

import (
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/graph"
)

// findEdge finds an edge of the given type from one node to another.
//
// Only the edges of the endpoint with the lower degree for typ are walked.
func findEdge(tx graph.Tx, from, to graph.NodeID, typ string) (id graph.EdgeID, ok bool, err error) {
	out, err := tx.Degree(from, typ, graph.Outgoing)
	if err != nil {
		return 0, false, err
	}
	if out == 0 {
		return 0, false, nil
	}

	in, err := tx.Degree(to, typ, graph.Incoming)
	if err != nil {
		return 0, false, err
	}
	if in == 0 {
		return 0, false, nil
	}

	node, dir, want := from, graph.Outgoing, to
	if in < out {
		node, dir, want = to, graph.Incoming, from
	}

	for edge, err := range tx.Edges(node, typ, dir) {
		if err != nil {
			return 0, false, err
		}

		other := edge.To
		if dir == graph.Incoming {
			other = edge.From
		}
		if other == want {
			return edge.ID, true, nil
		}
	}
	return 0, false, nil
}

// ensureEdge creates an edge of the given type, unless one already exists.
func ensureEdge(tx graph.Tx, from, to graph.NodeID, typ string) (created bool, err error) {
	_, ok, err := findEdge(tx, from, to, typ)
	if err != nil || ok {
		return false, err
	}

	if _, err := tx.CreateEdge(from, to, typ); err != nil {
		return false, fmt.Errorf("failed to create %s edge from %s to %s: %w", typ, from, to, err)
	}
	return true, nil
}
