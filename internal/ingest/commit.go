package ingest

import (
	"context"
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/graph"
)

// commit applies the current batch to the store and starts a new one.
//
// The namespace table is refreshed in a separate transaction beforehand.
// Once a batch has been committed, later failures do not undo it.
func (s *session) commit(ctx context.Context) error {
	if s.batch.mapped == 0 && s.batch.empty() {
		return nil
	}

	if s.vocab.Refreshes() {
		if err := s.refresh(ctx); err != nil {
			return err
		}
	}

	tx, err := s.store.Begin(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	r := newResolver(tx, s.config.OnConflict, s.skip)
	switch s.op {
	case opLoad:
		err = s.applyLoad(tx, r)
		if err == nil {
			// exports decode values the way the last load encoded them
			err = s.codec.Config.Store(tx)
		}
	case opDelete:
		err = s.applyDelete(tx, r)
	}
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	s.mapped += s.batch.mapped
	s.notDeleted += s.batch.notDeleted
	s.blank += s.batch.blank

	s.stats.LogDebug("committed batch", "mapped", s.batch.mapped, "resources", len(s.batch.order), "edges", len(s.batch.edges))
	s.stats.SetCT(s.mapped, 0)

	s.batch = newBatch()
	return nil
}

// refresh refreshes the namespace table in its own transaction
func (s *session) refresh(ctx context.Context) error {
	tx, err := s.store.Begin(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	renamed, err := s.vocab.Namespaces.Refresh(tx)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to refresh namespaces: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit namespaces: %w", err)
	}

	if len(renamed) > 0 {
		s.stats.LogWarn("namespace prefixes were taken concurrently", "renamed", renamed)
		s.batch.rename(s.codec, renamed)
	}
	return nil
}

// applyLoad materializes the current batch.
func (s *session) applyLoad(tx graph.Tx, r *resolver) error {
	for _, resource := range s.batch.order {
		id, ok, err := r.resolve(resource, true)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		reason, err := merge(tx, id, s.batch.resources[resource])
		if err != nil {
			return fmt.Errorf("failed to merge %s: %w", resource, err)
		}
		if reason != nil {
			s.skip(resource, reason)
			continue
		}
		s.outcome.Applied++
	}

	for _, edge := range s.batch.edges {
		from, fromOK, err := r.resolve(edge.from, true)
		if err != nil {
			return err
		}
		to, toOK, err := r.resolve(edge.to, true)
		if err != nil {
			return err
		}
		if !fromOK || !toOK {
			continue
		}

		if _, err := ensureEdge(tx, from, to, edge.typ); err != nil {
			return err
		}
	}
	return nil
}

// applyDelete removes the current batch, and prunes the nodes it touched.
func (s *session) applyDelete(tx graph.Tx, r *resolver) error {
	var touched []graph.NodeID
	seen := make(map[graph.NodeID]struct{})
	touch := func(id graph.NodeID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		touched = append(touched, id)
	}

	for _, resource := range s.batch.order {
		p := s.batch.resources[resource]
		if resource.IsBlank() {
			s.batch.blank += p.statements()
			continue
		}

		id, ok, err := r.resolve(resource, false)
		if err != nil {
			return err
		}
		if !ok {
			s.batch.notDeleted += p.statements()
			continue
		}

		notDeleted, err := unmerge(tx, id, p)
		if err != nil {
			return fmt.Errorf("failed to delete from %s: %w", resource, err)
		}
		s.batch.notDeleted += notDeleted
		s.outcome.Applied++
		touch(id)
	}

	for _, edge := range s.batch.edges {
		count := 1
		if edge.uncounted {
			count = 0
		}

		if edge.blank() {
			s.batch.blank += count
			continue
		}

		id, ok, err := s.locate(tx, r, edge)
		if err != nil {
			return err
		}
		if !ok {
			s.batch.notDeleted += count
			continue
		}

		stored, _, err := tx.Edge(id)
		if err != nil {
			return err
		}
		if err := tx.DeleteEdge(id); err != nil {
			return fmt.Errorf("failed to delete edge %s: %w", id, err)
		}
		touch(stored.From)
		touch(stored.To)
	}

	pruned, err := prune(tx, touched)
	if err != nil {
		return err
	}
	s.stats.LogDebug("pruned nodes", "count", pruned)
	return nil
}

// locate finds the stored edge corresponding to a pending edge.
func (s *session) locate(tx graph.Tx, r *resolver, edge pendingEdge) (graph.EdgeID, bool, error) {
	from, ok, err := r.resolve(edge.from, false)
	if err != nil || !ok {
		return 0, false, err
	}
	to, ok, err := r.resolve(edge.to, false)
	if err != nil || !ok {
		return 0, false, err
	}
	return findEdge(tx, from, to, edge.typ)
}
