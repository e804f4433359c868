package source

import (
	"fmt"
	"io"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
	akrdf "github.com/anglo-korean/rdf"
)

// cspell:words akrdf

// TripleSource reads statements from a triple format, such as turtle or rdf/xml.
// Statements read from a TripleSource never have a context.
type TripleSource struct {
	Reader io.ReadSeeker
	Format akrdf.Format

	decoder akrdf.TripleDecoder
}

func (ts *TripleSource) Open() error {
	if ts.decoder != nil {
		if _, err := ts.Reader.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}
	ts.decoder = akrdf.NewTripleDecoder(ts.Reader, ts.Format)
	return nil
}

func (ts *TripleSource) Next() (rdf.Statement, error) {
	if ts.decoder == nil {
		return rdf.Statement{}, errNotOpen
	}

	triple, err := ts.decoder.Decode()
	if err != nil {
		return rdf.Statement{}, err
	}

	subject, err := convertTerm(triple.Subj)
	if err != nil {
		return rdf.Statement{}, err
	}
	predicate, err := convertTerm(triple.Pred)
	if err != nil {
		return rdf.Statement{}, err
	}
	object, err := convertTerm(triple.Obj)
	if err != nil {
		return rdf.Statement{}, err
	}

	return rdf.Statement{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}, nil
}

func (ts *TripleSource) Close() error {
	ts.decoder = nil
	return nil
}

func convertTerm(term akrdf.Term) (rdf.Term, error) {
	switch t := term.(type) {
	case akrdf.IRI:
		return rdf.IRI(t.String()), nil
	case akrdf.Blank:
		return rdf.Blank(t.String()), nil
	case akrdf.Literal:
		if lang := t.Lang(); lang != "" {
			return rdf.LangLiteral(t.String(), lang), nil
		}
		return rdf.Literal(t.String(), t.DataType.String()), nil
	default:
		return rdf.Term{}, fmt.Errorf("unsupported term %v", term)
	}
}
