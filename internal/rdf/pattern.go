package rdf

// TriplePattern is a statement template.
// Empty fields are unbound and match anything.
type TriplePattern struct {
	Subject   string
	Predicate string
	Object    string

	// IsLiteral indicates that Object is the lexical form of a literal instead of an iri.
	IsLiteral bool

	// LiteralType and LiteralLang further restrict literal objects when non-empty.
	LiteralType string
	LiteralLang string
}

// Matches checks if the given statement matches all bound fields of this pattern.
func (p TriplePattern) Matches(s Statement) bool {
	if p.Subject != "" && (!s.Subject.IsResource() || resourceURI(s.Subject) != p.Subject) {
		return false
	}
	if p.Predicate != "" && s.Predicate.Value != p.Predicate {
		return false
	}
	return p.MatchesObject(s.Object)
}

// MatchesObject checks if the given object matches the object of this pattern.
func (p TriplePattern) MatchesObject(object Term) bool {
	if p.Object == "" {
		return true
	}
	if !p.IsLiteral {
		return object.IsResource() && resourceURI(object) == p.Object
	}
	if !object.IsLiteral() || object.Value != p.Object {
		return false
	}
	if p.LiteralLang != "" && object.Language != p.LiteralLang {
		return false
	}
	if p.LiteralType != "" && object.Datatype != p.LiteralType {
		return false
	}
	return true
}
