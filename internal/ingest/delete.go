package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/source"
	"github.com/FAU-CDI/pgrdf/internal/stats"
)

// DeleteResult is the result of a delete operation.
type DeleteResult struct {
	TerminationStatus Status `json:"terminationStatus"`

	// TriplesDeleted is the number of mapped statements that were actually removed.
	TriplesDeleted int `json:"triplesDeleted"`

	Namespaces map[string]string `json:"namespaces"`
	ExtraInfo  string            `json:"extraInfo"`

	Outcome Outcome `json:"outcome"`
}

// Delete reads all statements from src and removes them from store.
//
// Statements involving a blank node are never deleted.
// Nodes left with nothing but their identity and no edges are removed.
func Delete(ctx context.Context, store graph.Store, src source.Source, config Config, st *stats.Stats) (result DeleteResult, err error) {
	result.TerminationStatus = StatusKO
	defer func() {
		if err != nil {
			result.ExtraInfo = err.Error()
		}
	}()

	if err := config.Validate(); err != nil {
		return result, err
	}
	if err := requireConstraint(ctx, store); err != nil {
		return result, err
	}

	s, err := newSession(ctx, opDelete, store, config, st)
	if err != nil {
		return result, err
	}

	err = st.DoStage(stats.StageDelete, func() error {
		return s.run(ctx, src)
	})

	result.TriplesDeleted = s.mapped - s.notDeleted - s.blank
	result.Namespaces = s.vocab.Namespaces.Snapshot()
	result.ExtraInfo = s.deleteInfo()
	result.Outcome = s.outcome

	if err != nil {
		return result, err
	}
	result.TerminationStatus = StatusOK
	return result, nil
}

// deleteInfo summarizes the statements that were not deleted
func (s *session) deleteInfo() string {
	var info []string
	if s.blank > 0 {
		info = append(info, fmt.Sprintf("%d of the statements could not be deleted, due to containing a blank node.", s.blank))
	}
	if s.notDeleted > 0 {
		info = append(info, fmt.Sprintf("%d of the statements were not found in the graph.", s.notDeleted))
	}
	return strings.Join(info, " ")
}
