package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/FAU-CDI/pgrdf/internal/source"
	"github.com/google/go-cmp/cmp"
)

const nquadsDocument = `<http://example.com/a> <http://example.com/name> "Ann"@en <http://example.com/g> .
<http://example.com/a> <http://example.com/knows> _:b .
_:b <http://example.com/age> "42"^^<http://www.w3.org/2001/XMLSchema#integer> .
`

func TestQuadSource(t *testing.T) {
	t.Parallel()

	qs := &source.QuadSource{Reader: strings.NewReader(nquadsDocument)}

	want := []rdf.Statement{
		{
			Subject:   rdf.IRI("http://example.com/a"),
			Predicate: rdf.IRI("http://example.com/name"),
			Object:    rdf.LangLiteral("Ann", "en"),
			Context:   rdf.IRI("http://example.com/g"),
		},
		{
			Subject:   rdf.IRI("http://example.com/a"),
			Predicate: rdf.IRI("http://example.com/knows"),
			Object:    rdf.Blank("b"),
		},
		{
			Subject:   rdf.Blank("b"),
			Predicate: rdf.IRI("http://example.com/age"),
			Object:    rdf.Literal("42", rdf.XSDInteger),
		},
	}

	// read twice to check that the source can be re-opened
	for round := 0; round < 2; round++ {
		got, err := source.Collect(qs)
		if err != nil {
			t.Fatalf("Collect() returned error %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("Collect() got %d statements, want = %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Collect()[%d] got = %v, want = %v", i, got[i], want[i])
			}
		}
	}
}

func TestTripleSource_Turtle(t *testing.T) {
	t.Parallel()

	const document = `@prefix ex: <http://example.com/> .
ex:a a ex:Foo ;
	ex:name "Ann" .
`

	path := filepath.Join(t.TempDir(), "data.ttl")
	if err := os.WriteFile(path, []byte(document), 0o666); err != nil {
		t.Fatalf("WriteFile() returned error %v", err)
	}

	format, err := source.ByPath(path)
	if err != nil {
		t.Fatalf("ByPath() returned error %v", err)
	}
	if format.Name != "turtle" {
		t.Errorf("ByPath() got = %q, want = %q", format.Name, "turtle")
	}

	got, err := source.Collect(&source.File{Path: path, Format: format})
	if err != nil {
		t.Fatalf("Collect() returned error %v", err)
	}

	want := []rdf.Statement{
		{Subject: rdf.IRI("http://example.com/a"), Predicate: rdf.IRI(rdf.Type), Object: rdf.IRI("http://example.com/Foo")},
		{Subject: rdf.IRI("http://example.com/a"), Predicate: rdf.IRI("http://example.com/name"), Object: rdf.Literal("Ann", rdf.XSDString)},
	}
	if len(got) != len(want) {
		t.Fatalf("Collect() got %d statements, want = %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Collect()[%d] got = %v, want = %v", i, got[i], want[i])
		}
	}
}

func TestRequireQuads(t *testing.T) {
	t.Parallel()

	for name, wantErr := range map[string]bool{
		"nquads":   false,
		"jsonld":   false,
		"turtle":   true,
		"ntriples": true,
	} {
		format, err := source.ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q) returned error %v", name, err)
		}
		err = source.RequireQuads(format)
		if gotErr := errors.Is(err, source.ErrNotQuadFormat); gotErr != wantErr {
			t.Errorf("RequireQuads(%q) got = %v, want error = %v", name, err, wantErr)
		}
	}

	if _, err := source.ByName("csv"); !errors.Is(err, source.ErrUnknownFormat) {
		t.Errorf("ByName() got = %v, want = %v", err, source.ErrUnknownFormat)
	}
}

func TestStream(t *testing.T) {
	t.Parallel()

	var got []source.Streamed
	count, err := source.Stream(&source.QuadSource{Reader: strings.NewReader(nquadsDocument)}, 2, func(s source.Streamed) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() returned error %v", err)
	}
	if count != 2 {
		t.Errorf("Stream() got count = %d, want = 2", count)
	}

	want := []source.Streamed{
		{Subject: "http://example.com/a", Predicate: "http://example.com/name", Object: "Ann", Graph: "http://example.com/g", IsLiteral: true, LiteralType: rdf.LangString, LiteralLang: "en"},
		{Subject: "http://example.com/a", Predicate: "http://example.com/knows", Object: "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stream() mismatch (-want +got):\n%s", diff)
	}
}

func TestLimit(t *testing.T) {
	t.Parallel()

	limited := &source.Limit{Source: &source.QuadSource{Reader: strings.NewReader(nquadsDocument)}, N: 1}

	// reopening starts over
	for round := 0; round < 2; round++ {
		got, err := source.Collect(limited)
		if err != nil {
			t.Fatalf("Collect() returned error %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Collect() got %d statements, want = 1", len(got))
		}
	}

	limited.N = 0
	got, err := source.Collect(limited)
	if err != nil {
		t.Fatalf("Collect() returned error %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Collect() got %d statements, want = 3", len(got))
	}
}
