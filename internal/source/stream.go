package source

import (
	"errors"
	"io"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
)

// DefaultStreamLimit is the default number of statements streamed.
const DefaultStreamLimit = 1000

// Streamed is the flat representation of a streamed statement.
type Streamed struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Graph     string `json:"graph,omitempty"`

	IsLiteral   bool   `json:"isLiteral"`
	LiteralType string `json:"literalType,omitempty"`
	LiteralLang string `json:"literalLang,omitempty"`
}

// NewStreamed flattens statement.
func NewStreamed(statement rdf.Statement) Streamed {
	streamed := Streamed{
		Subject:   statement.Subject.Value,
		Predicate: statement.Predicate.Value,
		Object:    statement.Object.Value,
		Graph:     statement.Context.Value,
		IsLiteral: statement.Object.IsLiteral(),
	}
	if streamed.IsLiteral {
		streamed.LiteralType = statement.Object.Datatype
		streamed.LiteralLang = statement.Object.Language
	}
	return streamed
}

// Stream reads at most limit statements from src without materializing them, and passes each to f.
// A non-positive limit streams all statements.
// Stream stops at the first error returned by f.
func Stream(src Source, limit int, f func(Streamed) error) (count int, err error) {
	limited := &Limit{Source: src, N: limit}
	if err := limited.Open(); err != nil {
		return 0, err
	}
	defer func() {
		if cerr := limited.Close(); err == nil {
			err = cerr
		}
	}()

	for {
		statement, err := limited.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if err := f(NewStreamed(statement)); err != nil {
			return count, err
		}
		count++
	}
}
