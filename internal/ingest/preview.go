package ingest

import (
	"context"
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/kv"
	"github.com/FAU-CDI/pgrdf/internal/source"
	"github.com/FAU-CDI/pgrdf/internal/stats"
)

// PreviewResult is the property graph a load would produce in an empty store.
type PreviewResult struct {
	LoadResult

	Nodes         []graph.Node `json:"nodes"`
	Relationships []graph.Edge `json:"relationships"`
}

// Rows returns a row for each node, followed by a row for each relationship.
func (preview PreviewResult) Rows() []graph.Row {
	rows := make([]graph.Row, 0, len(preview.Nodes)+len(preview.Relationships))
	for _, node := range preview.Nodes {
		rows = append(rows, graph.Row{node})
	}
	for _, edge := range preview.Relationships {
		rows = append(rows, graph.Row{edge})
	}
	return rows
}

// Preview loads at most limit statements from src into a throwaway in-memory store, and returns the resulting graph.
// A non-positive limit previews all statements.
func Preview(ctx context.Context, src source.Source, config Config, limit int, st *stats.Stats) (result PreviewResult, err error) {
	store := graph.New(kv.NewMemory())
	defer store.Close()

	if err := store.CreateIdentityConstraint(ctx); err != nil {
		return result, fmt.Errorf("failed to create identity constraint: %w", err)
	}

	result.LoadResult, err = Load(ctx, store, &source.Limit{Source: src, N: limit}, config, st)
	if err != nil {
		return result, err
	}

	tx, err := store.Begin(ctx, false)
	if err != nil {
		return result, err
	}
	defer tx.Rollback()

	for node, err := range tx.Nodes(graph.NodeQuery{}) {
		if err != nil {
			return result, err
		}
		result.Nodes = append(result.Nodes, node)
	}
	for edge, err := range tx.Relationships(graph.EdgeQuery{}) {
		if err != nil {
			return result, err
		}
		result.Relationships = append(result.Relationships, edge)
	}
	return result, nil
}
