package graph

import (
	"context"
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/kv"
	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/dustin/go-humanize"
)

// tables used by the KV store
const (
	tableMeta kv.Table = iota
	tableNodes
	tableEdges
	tableIdentity
	tableAdjacency
	tableDegree
)

// internal metadata keys
const (
	metaNodeSeq    = "seq/node"
	metaEdgeSeq    = "seq/edge"
	metaConstraint = "constraint/identity"
	metaUserPrefix = "x/"
)

// KV is a [Store] that keeps the property graph inside a key-value engine.
type KV struct {
	engine kv.Engine
}

// New creates a new store backed by the given engine.
func New(engine kv.Engine) *KV {
	return &KV{engine: engine}
}

// Engine returns the underlying engine.
func (store *KV) Engine() kv.Engine {
	return store.engine
}

func (store *KV) Begin(ctx context.Context, writable bool) (Tx, error) {
	return store.begin(ctx, writable)
}

func (store *KV) begin(ctx context.Context, writable bool) (*kvTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn, err := store.engine.Begin(writable)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, constraint, err := txn.Get(tableMeta, []byte(metaConstraint))
	if err != nil {
		txn.Rollback()
		return nil, err
	}

	return &kvTx{
		txn:        txn,
		writable:   writable,
		constraint: constraint,
	}, nil
}

func (store *KV) HasIdentityConstraint(ctx context.Context) (bool, error) {
	tx, err := store.begin(ctx, false)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	return tx.constraint, nil
}

// CreateIdentityConstraint makes the store enforce that at most one node exists for each identity.
// Creating an existing constraint is a no-op.
//
// When the store already contains several nodes with the same identity, returns [ErrConstraintViolation].
func (store *KV) CreateIdentityConstraint(ctx context.Context) error {
	tx, err := store.begin(ctx, true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if tx.constraint {
		return nil
	}

	seen := make(map[rdf.ContextResource]NodeID)
	for node, err := range tx.Nodes(NodeQuery{}) {
		if err != nil {
			return err
		}
		identity := node.Identity()
		if other, ok := seen[identity]; ok {
			return fmt.Errorf("%w: %s and %s both have identity %s", ErrConstraintViolation, other, node.ID, identity)
		}
		seen[identity] = node.ID
	}

	if err := tx.txn.Set(tableMeta, []byte(metaConstraint), []byte{1}); err != nil {
		return err
	}
	return tx.Commit()
}

// DropIdentityConstraint removes the identity constraint.
// When no constraint exists, returns [ErrMissingConstraint].
func (store *KV) DropIdentityConstraint(ctx context.Context) error {
	tx, err := store.begin(ctx, true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if !tx.constraint {
		return ErrMissingConstraint
	}
	if err := tx.txn.Delete(tableMeta, []byte(metaConstraint)); err != nil {
		return err
	}
	return tx.Commit()
}

// Stats holds statistics about a store
type Stats struct {
	Nodes uint64
	Edges uint64
}

func (stats Stats) String() string {
	return fmt.Sprintf("%s node(s), %s edge(s)", humanize.Comma(int64(stats.Nodes)), humanize.Comma(int64(stats.Edges)))
}

// Stats counts the nodes and edges in this store.
func (store *KV) Stats(ctx context.Context) (stats Stats, err error) {
	tx, err := store.begin(ctx, false)
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	nodes, err := kv.Count(tx.txn, tableNodes, nil)
	if err != nil {
		return stats, err
	}
	edges, err := kv.Count(tx.txn, tableEdges, nil)
	if err != nil {
		return stats, err
	}
	return Stats{Nodes: uint64(nodes), Edges: uint64(edges)}, nil
}

// compacter is implemented by engines that support compaction
type compacter interface {
	Compact() error
}

// Compact compacts the underlying engine, if supported.
func (store *KV) Compact() error {
	if c, ok := store.engine.(compacter); ok {
		return c.Compact()
	}
	return nil
}

// Close closes the underlying engine.
func (store *KV) Close() error {
	return store.engine.Close()
}
