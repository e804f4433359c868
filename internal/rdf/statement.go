package rdf

import "strings"

// Statement is a single (subject, predicate, object) triple.
// When Context is not zero, the statement is a quad belonging to the named graph Context.
type Statement struct {
	Subject   Term
	Predicate Term
	Object    Term
	Context   Term
}

// IsQuad checks if this statement belongs to a named graph.
func (s Statement) IsQuad() bool {
	return !s.Context.IsZero()
}

func (s Statement) String() string {
	var builder strings.Builder
	builder.WriteString(s.Subject.String())
	builder.WriteRune(' ')
	builder.WriteString(s.Predicate.String())
	builder.WriteRune(' ')
	builder.WriteString(s.Object.String())
	if s.IsQuad() {
		builder.WriteRune(' ')
		builder.WriteString(s.Context.String())
	}
	builder.WriteString(" .")
	return builder.String()
}

// BlankPrefix is prepended to the id of blank nodes to turn them into resource uris.
const BlankPrefix = "bnode://"

// ContextResource identifies a single resource within an optional named graph.
// It is comparable and may be used as a map key.
type ContextResource struct {
	URI string

	// Graph is the uri of the named graph, only meaningful when HasGraph is set.
	Graph    string
	HasGraph bool
}

// Resource returns the ContextResource of the given iri or blank node term within the given context.
// context may be the zero term.
func Resource(term, context Term) ContextResource {
	res := ContextResource{URI: resourceURI(term)}
	if !context.IsZero() {
		res.Graph = resourceURI(context)
		res.HasGraph = true
	}
	return res
}

func resourceURI(term Term) string {
	if term.Kind == KindBlank {
		return BlankPrefix + term.Value
	}
	return term.Value
}

// IsBlank checks if this resource originated from a blank node.
func (cr ContextResource) IsBlank() bool {
	return strings.HasPrefix(cr.URI, BlankPrefix)
}

// Term returns the term identifying this resource.
func (cr ContextResource) Term() Term {
	return uriTerm(cr.URI)
}

// Context returns the term naming the graph of this resource, or the zero term.
func (cr ContextResource) Context() Term {
	if !cr.HasGraph {
		return Term{}
	}
	return uriTerm(cr.Graph)
}

func uriTerm(uri string) Term {
	if id, ok := strings.CutPrefix(uri, BlankPrefix); ok {
		return Blank(id)
	}
	return IRI(uri)
}

func (cr ContextResource) String() string {
	if !cr.HasGraph {
		return cr.URI
	}
	return cr.URI + " in " + cr.Graph
}
