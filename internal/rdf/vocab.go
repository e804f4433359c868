package rdf

import rdfvoc "github.com/cayleygraph/quad/voc/rdf"

// cspell:words rdfvoc langString

// XSDNamespace is the namespace of the xml schema datatypes.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema#"

const (
	XSDString   = XSDNamespace + "string"
	XSDBoolean  = XSDNamespace + "boolean"
	XSDDecimal  = XSDNamespace + "decimal"
	XSDDouble   = XSDNamespace + "double"
	XSDFloat    = XSDNamespace + "float"
	XSDDate     = XSDNamespace + "date"
	XSDDateTime = XSDNamespace + "dateTime"

	XSDInteger            = XSDNamespace + "integer"
	XSDLong               = XSDNamespace + "long"
	XSDInt                = XSDNamespace + "int"
	XSDShort              = XSDNamespace + "short"
	XSDByte               = XSDNamespace + "byte"
	XSDNonNegativeInteger = XSDNamespace + "nonNegativeInteger"
	XSDNonPositiveInteger = XSDNamespace + "nonPositiveInteger"
	XSDPositiveInteger    = XSDNamespace + "positiveInteger"
	XSDNegativeInteger    = XSDNamespace + "negativeInteger"
	XSDUnsignedLong       = XSDNamespace + "unsignedLong"
	XSDUnsignedInt        = XSDNamespace + "unsignedInt"
	XSDUnsignedShort      = XSDNamespace + "unsignedShort"
	XSDUnsignedByte       = XSDNamespace + "unsignedByte"
)

// Namespace is the rdf namespace.
const Namespace = rdfvoc.NS

const (
	// Type is the "is-a" predicate.
	Type = Namespace + "type"

	// LangString is the datatype of language-tagged strings.
	LangString = Namespace + "langString"
)
