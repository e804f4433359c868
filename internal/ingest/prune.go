package ingest

import (
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/graph"
)

// prune deletes those of the given nodes that hold nothing but their identity and have no edges.
func prune(tx graph.Tx, nodes []graph.NodeID) (pruned int, err error) {
	for _, id := range nodes {
		node, ok, err := tx.Node(id)
		if err != nil {
			return pruned, err
		}
		if !ok || !node.IsPlaceholder() {
			continue
		}

		out, err := tx.Degree(id, "", graph.Outgoing)
		if err != nil {
			return pruned, err
		}
		in, err := tx.Degree(id, "", graph.Incoming)
		if err != nil {
			return pruned, err
		}
		if out+in > 0 {
			continue
		}

		if err := tx.DeleteNode(id); err != nil {
			return pruned, fmt.Errorf("failed to prune %s: %w", id, err)
		}
		pruned++
	}
	return pruned, nil
}
