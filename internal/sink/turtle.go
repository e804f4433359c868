package sink

import (
	"errors"
	"fmt"
	"io"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
	akrdf "github.com/anglo-korean/rdf"
)

// ErrNamedGraph is returned when writing a statement of a named graph to a triple-only sink.
var ErrNamedGraph = errors.New("cannot write statement with named graph as a triple")

// Turtle writes statements in turtle format.
// Statements must not belong to a named graph.
type Turtle struct {
	encoder *akrdf.TripleEncoder
}

// NewTurtle creates a new sink writing to w.
func NewTurtle(w io.Writer) *Turtle {
	return &Turtle{encoder: akrdf.NewTripleEncoder(w, akrdf.Turtle)}
}

func (tt *Turtle) Write(statement rdf.Statement) error {
	if statement.IsQuad() {
		return fmt.Errorf("%w: %s", ErrNamedGraph, statement)
	}

	triple, err := triple(statement)
	if err != nil {
		return fmt.Errorf("invalid statement %s: %w", statement, err)
	}
	return tt.encoder.Encode(triple)
}

func (tt *Turtle) Close() error {
	return tt.encoder.Close()
}

func triple(statement rdf.Statement) (triple akrdf.Triple, err error) {
	if statement.Subject.IsBlank() {
		triple.Subj, err = akrdf.NewBlank(statement.Subject.Value)
	} else {
		triple.Subj, err = akrdf.NewIRI(statement.Subject.Value)
	}
	if err != nil {
		return
	}

	triple.Pred, err = akrdf.NewIRI(statement.Predicate.Value)
	if err != nil {
		return
	}

	object := statement.Object
	switch {
	case object.IsIRI():
		triple.Obj, err = akrdf.NewIRI(object.Value)
	case object.IsBlank():
		triple.Obj, err = akrdf.NewBlank(object.Value)
	case object.Language != "":
		triple.Obj, err = akrdf.NewLangLiteral(object.Value, object.Language)
	default:
		var datatype akrdf.IRI
		datatype, err = akrdf.NewIRI(object.Datatype)
		if err == nil {
			triple.Obj = akrdf.NewTypedLiteral(object.Value, datatype)
		}
	}
	return
}
