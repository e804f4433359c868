package ingest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
)

// Result is the result of a resource that was skipped.
type Result struct {
	Resource rdf.ContextResource
	Err      error
}

func (result Result) String() string {
	return fmt.Sprintf("%s: %s", result.Resource, result.Err)
}

func (result Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Resource string `json:"resource"`
		Reason   string `json:"reason"`
	}{
		Resource: result.Resource.String(),
		Reason:   result.Err.Error(),
	})
}

// Outcome records which resources of an operation were applied and which were skipped.
type Outcome struct {
	// Applied is the number of resources applied.
	Applied int `json:"applied"`

	// Skipped holds the resources that were skipped, in order of occurrence.
	Skipped []Result `json:"skipped,omitempty"`
}

// Err joins the reasons of all skipped resources.
// It returns nil when nothing was skipped.
func (outcome Outcome) Err() error {
	errs := make([]error, len(outcome.Skipped))
	for i, skipped := range outcome.Skipped {
		errs[i] = fmt.Errorf("%s: %w", skipped.Resource, skipped.Err)
	}
	return errors.Join(errs...)
}

func (outcome *Outcome) skip(resource rdf.ContextResource, err error) {
	outcome.Skipped = append(outcome.Skipped, Result{Resource: resource, Err: err})
}

// skip records resource as skipped and logs the reason.
func (s *session) skip(resource rdf.ContextResource, err error) {
	s.stats.LogWarn("skipped resource", "resource", resource.String(), "err", err)
	s.outcome.skip(resource, err)
}
