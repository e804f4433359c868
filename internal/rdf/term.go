// Package rdf holds the statement side of the mapping: terms, statements, resource identities and triple patterns.
package rdf

import (
	"strconv"
	"strings"
)

// Kind is the kind of a [Term].
type Kind uint8

const (
	KindIRI Kind = iota + 1
	KindBlank
	KindLiteral
)

// Term is an rdf term.
// The zero Term is not a valid term and is used to represent an absent term.
type Term struct {
	Kind Kind

	// Value holds the iri, the blank node id, or the lexical form of a literal.
	Value string

	// Datatype and Language are only set for literals.
	// Every literal has a datatype, language-tagged strings use [LangString].
	Datatype string
	Language string
}

// IRI returns a new iri term.
func IRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// Blank returns a new blank node with the given id.
func Blank(id string) Term {
	return Term{Kind: KindBlank, Value: id}
}

// Literal returns a new literal with the given datatype.
// An empty datatype means [XSDString].
func Literal(lexical, datatype string) Term {
	if datatype == "" {
		datatype = XSDString
	}
	return Term{Kind: KindLiteral, Value: lexical, Datatype: datatype}
}

// LangLiteral returns a new language-tagged string.
// An empty language returns a plain string literal.
func LangLiteral(lexical, language string) Term {
	if language == "" {
		return Literal(lexical, XSDString)
	}
	return Term{Kind: KindLiteral, Value: lexical, Datatype: LangString, Language: language}
}

func (t Term) IsZero() bool    { return t.Kind == 0 }
func (t Term) IsIRI() bool     { return t.Kind == KindIRI }
func (t Term) IsBlank() bool   { return t.Kind == KindBlank }
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// IsResource checks if this term is an iri or a blank node.
func (t Term) IsResource() bool {
	return t.Kind == KindIRI || t.Kind == KindBlank
}

// String formats this term the way it would appear in an n-triples document.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		var builder strings.Builder
		builder.WriteString(strconv.Quote(t.Value))
		switch {
		case t.Language != "":
			builder.WriteString("@" + t.Language)
		case t.Datatype != XSDString && t.Datatype != "":
			builder.WriteString("^^<" + t.Datatype + ">")
		}
		return builder.String()
	default:
		return ""
	}
}
