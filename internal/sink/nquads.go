package sink

import (
	"fmt"
	"io"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
)

// NQuads writes statements in n-quads format.
type NQuads struct {
	writer *nquads.Writer
}

// NewNQuads creates a new sink writing to w.
func NewNQuads(w io.Writer) *NQuads {
	return &NQuads{writer: nquads.NewWriter(w)}
}

func (nq *NQuads) Write(statement rdf.Statement) error {
	q := quad.Quad{
		Subject:   quadValue(statement.Subject),
		Predicate: quadValue(statement.Predicate),
		Object:    quadValue(statement.Object),
	}
	if !statement.Context.IsZero() {
		q.Label = quadValue(statement.Context)
	}

	if err := nq.writer.WriteQuad(q); err != nil {
		return fmt.Errorf("failed to write %s: %w", statement, err)
	}
	return nil
}

func (nq *NQuads) Close() error {
	return nq.writer.Close()
}

// quadValue converts a term into a quad value.
func quadValue(term rdf.Term) quad.Value {
	switch term.Kind {
	case rdf.KindIRI:
		return quad.IRI(term.Value)
	case rdf.KindBlank:
		return quad.BNode(term.Value)
	}

	switch {
	case term.Language != "":
		return quad.LangString{Value: quad.String(term.Value), Lang: term.Language}
	case term.Datatype == "" || term.Datatype == rdf.XSDString:
		return quad.String(term.Value)
	default:
		return quad.TypedString{Value: quad.String(term.Value), Type: quad.IRI(term.Datatype)}
	}
}
