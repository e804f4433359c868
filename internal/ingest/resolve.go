package ingest

import (
	"errors"
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/rdf"
)

// ErrIdentityConflict indicates that more than one node carries the same identity.
var ErrIdentityConflict = errors.New("multiple nodes share the same identity")

// resolver resolves resources to nodes within a single batch.
type resolver struct {
	tx     graph.Tx
	policy ConflictPolicy
	skip   func(rdf.ContextResource, error)

	cache map[rdf.ContextResource]resolved
}

type resolved struct {
	id graph.NodeID
	ok bool
}

func newResolver(tx graph.Tx, policy ConflictPolicy, skip func(rdf.ContextResource, error)) *resolver {
	return &resolver{
		tx:     tx,
		policy: policy,
		skip:   skip,
		cache:  make(map[rdf.ContextResource]resolved),
	}
}

// resolve returns the node with the given identity.
//
// When no such node exists, it is created if create is set.
// Otherwise ok is false.
// A resource with conflicting nodes is skipped, unless the policy is [Abort], in which case an error is returned.
//
// Results are cached for the lifetime of the resolver.
func (r *resolver) resolve(resource rdf.ContextResource, create bool) (id graph.NodeID, ok bool, err error) {
	if cached, hit := r.cache[resource]; hit {
		return cached.id, cached.ok, nil
	}

	ids, err := r.tx.Lookup(resource)
	if err != nil {
		return 0, false, fmt.Errorf("failed to lookup %s: %w", resource, err)
	}

	var result resolved
	switch {
	case len(ids) == 1:
		result = resolved{id: ids[0], ok: true}
	case len(ids) > 1:
		conflict := fmt.Errorf("%w: %d nodes with identity %s", ErrIdentityConflict, len(ids), resource)
		if r.policy == Abort {
			return 0, false, conflict
		}
		r.skip(resource, conflict)
	case create:
		id, err := r.tx.CreateNode(resource)
		if err != nil {
			return 0, false, fmt.Errorf("failed to create node for %s: %w", resource, err)
		}
		result = resolved{id: id, ok: true}
	}

	r.cache[resource] = result
	return result.id, result.ok, nil
}
