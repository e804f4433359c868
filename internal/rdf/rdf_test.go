package rdf_test

import (
	"fmt"
	"testing"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
)

func ExampleStatement_String() {
	fmt.Println(rdf.Statement{
		Subject:   rdf.IRI("http://example.com/A"),
		Predicate: rdf.IRI("http://example.com/name"),
		Object:    rdf.LangLiteral("Ann", "en"),
		Context:   rdf.IRI("http://example.com/g"),
	})
	fmt.Println(rdf.Statement{
		Subject:   rdf.Blank("b0"),
		Predicate: rdf.IRI("http://example.com/age"),
		Object:    rdf.Literal("42", rdf.XSDInteger),
	})
	// Output: <http://example.com/A> <http://example.com/name> "Ann"@en <http://example.com/g> .
	// _:b0 <http://example.com/age> "42"^^<http://www.w3.org/2001/XMLSchema#integer> .
}

func TestResource(t *testing.T) {
	t.Parallel()

	a := rdf.Resource(rdf.IRI("http://example.com/A"), rdf.Term{})
	ag := rdf.Resource(rdf.IRI("http://example.com/A"), rdf.IRI("http://example.com/g"))
	aEmpty := rdf.ContextResource{URI: "http://example.com/A", HasGraph: true}

	if a == ag {
		t.Errorf("Resource() with and without graph compare equal")
	}
	if a == aEmpty {
		t.Errorf("Resource() without graph equals resource in the empty graph")
	}
	if got := rdf.Resource(rdf.IRI("http://example.com/A"), rdf.Term{}); got != a {
		t.Errorf("Resource() got = %v, want = %v", got, a)
	}

	// usable as a map key
	seen := map[rdf.ContextResource]int{a: 1, ag: 2}
	if len(seen) != 2 {
		t.Errorf("map got %d keys, want 2", len(seen))
	}

	b := rdf.Resource(rdf.Blank("x"), rdf.Blank("g"))
	if !b.IsBlank() {
		t.Errorf("IsBlank() got = false, want = true")
	}
	if got := b.Term(); got != rdf.Blank("x") {
		t.Errorf("Term() got = %v, want = %v", got, rdf.Blank("x"))
	}
	if got := b.Context(); got != rdf.Blank("g") {
		t.Errorf("Context() got = %v, want = %v", got, rdf.Blank("g"))
	}
}

func TestTriplePattern_Matches(t *testing.T) {
	t.Parallel()

	stmt := rdf.Statement{
		Subject:   rdf.IRI("http://example.com/A"),
		Predicate: rdf.IRI("http://example.com/name"),
		Object:    rdf.LangLiteral("Ann", "en"),
	}

	tests := []struct {
		name    string
		pattern rdf.TriplePattern
		want    bool
	}{
		{"unbound", rdf.TriplePattern{}, true},
		{"subject", rdf.TriplePattern{Subject: "http://example.com/A"}, true},
		{"other subject", rdf.TriplePattern{Subject: "http://example.com/B"}, false},
		{"predicate", rdf.TriplePattern{Predicate: "http://example.com/name"}, true},
		{"literal", rdf.TriplePattern{Object: "Ann", IsLiteral: true}, true},
		{"literal lang", rdf.TriplePattern{Object: "Ann", IsLiteral: true, LiteralLang: "en"}, true},
		{"literal other lang", rdf.TriplePattern{Object: "Ann", IsLiteral: true, LiteralLang: "de"}, false},
		{"literal type", rdf.TriplePattern{Object: "Ann", IsLiteral: true, LiteralType: rdf.XSDString}, false},
		{"iri object", rdf.TriplePattern{Object: "Ann"}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.pattern.Matches(stmt); got != tt.want {
				t.Errorf("Matches() got = %v, want = %v", got, tt.want)
			}
		})
	}
}
