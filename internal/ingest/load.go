package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/source"
	"github.com/FAU-CDI/pgrdf/internal/stats"
)

// Status is the termination status of an operation.
type Status string

const (
	StatusOK Status = "OK"
	StatusKO Status = "KO"
)

// LoadResult is the result of a load operation.
type LoadResult struct {
	TerminationStatus Status `json:"terminationStatus"`

	// TriplesLoaded is the number of statements mapped into the graph.
	// TriplesParsed is the number of statements read from the source.
	TriplesLoaded int `json:"triplesLoaded"`
	TriplesParsed int `json:"triplesParsed"`

	// Namespaces is the namespace prefix table at the end of the load.
	Namespaces map[string]string `json:"namespaces"`

	ExtraInfo     string         `json:"extraInfo"`
	ConfigSummary map[string]any `json:"configSummary"`

	Outcome Outcome `json:"outcome"`
}

// Load reads all statements from src and materializes them in store.
//
// Statements are committed in batches of config.CommitSize.
// When an error occurs, batches committed beforehand remain in the store,
// and the returned counts reflect them.
func Load(ctx context.Context, store graph.Store, src source.Source, config Config, st *stats.Stats) (result LoadResult, err error) {
	result.TerminationStatus = StatusKO
	defer func() {
		if err != nil {
			result.ExtraInfo = err.Error()
		}
	}()

	if err := config.Validate(); err != nil {
		return result, err
	}
	result.ConfigSummary = config.Summary()

	if err := requireConstraint(ctx, store); err != nil {
		return result, err
	}

	s, err := newSession(ctx, opLoad, store, config, st)
	if err != nil {
		return result, err
	}

	err = st.DoStage(stats.StageLoad, func() error {
		return s.run(ctx, src)
	})

	result.TriplesLoaded = s.mapped
	result.TriplesParsed = s.parsed
	result.Namespaces = s.vocab.Namespaces.Snapshot()
	result.Outcome = s.outcome

	if err != nil {
		return result, err
	}
	result.TerminationStatus = StatusOK
	return result, nil
}

// requireConstraint checks that store enforces the identity constraint.
func requireConstraint(ctx context.Context, store graph.Store) error {
	ok, err := store.HasIdentityConstraint(ctx)
	if err != nil {
		return fmt.Errorf("failed to check identity constraint: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: a uniqueness constraint on %s.%s is required", graph.ErrMissingConstraint, graph.IdentityLabel, graph.URIProperty)
	}
	return nil
}

// run reads all statements from src, committing batches as they fill up.
func (s *session) run(ctx context.Context, src source.Source) (err error) {
	if err := src.Open(); err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close source: %w", cerr))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		statement, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read statement %d: %w", s.parsed+1, err)
		}

		if s.handle(statement) {
			if err := s.commit(ctx); err != nil {
				return err
			}
		}
	}

	return s.commit(ctx)
}
