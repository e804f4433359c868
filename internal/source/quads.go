package source

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	_ "github.com/cayleygraph/quad/jsonld"
)

// cspell:words nquads jsonld

// QuadSource reads statements from an n-quads (or n-triples) file.
type QuadSource struct {
	Reader io.ReadSeeker
	reader *nquads.Reader
}

func (qs *QuadSource) Open() error {
	// if we previously had a reader
	// then we need to reset the state
	if qs.reader != nil {
		if err := qs.reader.Close(); err != nil {
			return err
		}
		if _, err := qs.Reader.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	qs.reader = nquads.NewReader(qs.Reader, true)
	return nil
}

func (qs *QuadSource) Next() (rdf.Statement, error) {
	return nextQuad(qs.reader)
}

func (qs *QuadSource) Close() error {
	if qs.reader != nil {
		return qs.reader.Close()
	}
	return nil
}

// FormatSource reads statements using a quad format registered with the quad package.
type FormatSource struct {
	Reader io.ReadSeeker
	Format *quad.Format

	reader quad.ReadCloser
}

var errNoReader = errors.New("format cannot be read")

func (fs *FormatSource) Open() error {
	if fs.Format == nil || fs.Format.Reader == nil {
		return errNoReader
	}
	if fs.reader != nil {
		if err := fs.reader.Close(); err != nil {
			return err
		}
		if _, err := fs.Reader.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	fs.reader = fs.Format.Reader(fs.Reader)
	return nil
}

func (fs *FormatSource) Next() (rdf.Statement, error) {
	return nextQuad(fs.reader)
}

func (fs *FormatSource) Close() error {
	if fs.reader != nil {
		return fs.reader.Close()
	}
	return nil
}

// nextQuad reads the next quad from reader, skipping incomplete quads and quads with a literal subject or predicate.
func nextQuad(reader quad.Reader) (rdf.Statement, error) {
	if reader == nil {
		return rdf.Statement{}, errNotOpen
	}
	for {
		value, err := reader.ReadQuad()
		if err != nil {
			return rdf.Statement{}, err
		}

		subject, sOK := asResource(value.Subject)
		predicate, pOK := asResource(value.Predicate)
		object := asTerm(value.Object)
		if !sOK || !pOK || !predicate.IsIRI() || object.IsZero() {
			continue
		}

		var context rdf.Term
		if value.Label != nil {
			context, _ = asResource(value.Label)
		}

		return rdf.Statement{
			Subject:   subject,
			Predicate: predicate,
			Object:    object,
			Context:   context,
		}, nil
	}
}

func asResource(value quad.Value) (term rdf.Term, ok bool) {
	switch datum := value.(type) {
	case quad.IRI:
		return rdf.IRI(string(datum)), true
	case quad.BNode:
		return rdf.Blank(string(datum)), true
	default:
		return term, false
	}
}

func asTerm(value quad.Value) rdf.Term {
	if value == nil {
		return rdf.Term{}
	}
	if term, ok := asResource(value); ok {
		return term
	}

	switch datum := value.(type) {
	case quad.String:
		return rdf.Literal(string(datum), rdf.XSDString)
	case quad.LangString:
		return rdf.LangLiteral(string(datum.Value), datum.Lang)
	case quad.TypedString:
		return rdf.Literal(string(datum.Value), string(datum.Type))
	case quad.Int:
		return rdf.Literal(strconv.FormatInt(int64(datum), 10), rdf.XSDInteger)
	case quad.Float:
		return rdf.Literal(strconv.FormatFloat(float64(datum), 'g', -1, 64), rdf.XSDDouble)
	case quad.Bool:
		return rdf.Literal(strconv.FormatBool(bool(datum)), rdf.XSDBoolean)
	case quad.Time:
		return rdf.Literal(time.Time(datum).Format(time.RFC3339Nano), rdf.XSDDateTime)
	default:
		return rdf.Literal(fmt.Sprint(value.Native()), rdf.XSDString)
	}
}
