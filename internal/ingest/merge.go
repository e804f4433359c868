package ingest

import (
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/graph"
)

// merge applies the labels and properties accumulated in p to a node.
//
// All new property values are computed before the node is modified.
// When reason is non-nil, the node was left untouched and the resource should be skipped.
// A non-nil err indicates a failure of the underlying store.
func merge(tx graph.Tx, id graph.NodeID, p *pending) (reason error, err error) {
	values := make(map[string]graph.Value, len(p.propOrder))
	for _, name := range p.propOrder {
		if graph.IsIdentityProperty(name) {
			return fmt.Errorf("property %q: %w", name, graph.ErrIdentityProperty), nil
		}

		prop := p.props[name]
		if !prop.multi {
			values[name] = graph.Single(prop.values[0])
			continue
		}

		stored, _, err := tx.Property(id, name)
		if err != nil {
			return nil, err
		}

		// a stored scalar is promoted into an array
		value, err := stored.Append(prop.values...)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err), nil
		}
		values[name] = value
	}

	for _, label := range p.labelOrder {
		if _, err := tx.AddLabel(id, label); err != nil {
			return nil, fmt.Errorf("failed to add label %q: %w", label, err)
		}
	}
	for _, name := range p.propOrder {
		if err := tx.SetProperty(id, name, values[name]); err != nil {
			return nil, fmt.Errorf("failed to set property %q: %w", name, err)
		}
	}
	return nil, nil
}

// unmerge removes the labels and properties accumulated in p from a node.
// It returns the number of statements that could not be deleted.
func unmerge(tx graph.Tx, id graph.NodeID, p *pending) (notDeleted int, err error) {
	for _, label := range p.labelOrder {
		if label == graph.IdentityLabel {
			notDeleted += p.labels[label]
			continue
		}

		removed, err := tx.RemoveLabel(id, label)
		if err != nil {
			return notDeleted, fmt.Errorf("failed to remove label %q: %w", label, err)
		}
		if !removed {
			notDeleted += p.labels[label]
		}
	}

	for _, name := range p.propOrder {
		prop := p.props[name]
		if graph.IsIdentityProperty(name) {
			notDeleted += prop.statements
			continue
		}

		if !prop.multi {
			removed, err := tx.RemoveProperty(id, name)
			if err != nil {
				return notDeleted, fmt.Errorf("failed to remove property %q: %w", name, err)
			}
			if !removed {
				notDeleted += prop.statements
			}
			continue
		}

		stored, ok, err := tx.Property(id, name)
		if err != nil {
			return notDeleted, err
		}
		if !ok {
			notDeleted += prop.statements
			continue
		}

		value, removed := stored.Remove(prop.values...)
		notDeleted += len(prop.values) - removed

		switch {
		case removed == 0:
			// unchanged
		case value.Len() == 0:
			_, err = tx.RemoveProperty(id, name)
		default:
			err = tx.SetProperty(id, name, value)
		}
		if err != nil {
			return notDeleted, fmt.Errorf("failed to update property %q: %w", name, err)
		}
	}
	return notDeleted, nil
}
