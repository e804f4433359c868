// Package vocab translates between iris and the names of labels, relationship types and properties.
package vocab

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode determines how vocabulary iris are turned into names.
type Mode string

const (
	// Shorten replaces the namespace of an iri with a prefix, generating prefixes where needed.
	Shorten Mode = "SHORTEN"

	// ShortenStrict is like Shorten, but fails for namespaces without a prefix.
	ShortenStrict Mode = "SHORTEN_STRICT"

	// Ignore uses only the local name of an iri.
	Ignore Mode = "IGNORE"

	// Map uses explicit mappings, falling back to the local name.
	Map Mode = "MAP"

	// Keep uses the full iri.
	Keep Mode = "KEEP"
)

var ErrUnknownMode = errors.New("unknown vocabulary mode")

// ParseMode parses a mode, ignoring case.
func ParseMode(value string) (Mode, error) {
	mode := Mode(strings.ToUpper(value))
	switch mode {
	case Shorten, ShortenStrict, Ignore, Map, Keep:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
}

// Refreshes checks if this mode keeps the namespace prefix table up-to-date.
func (mode Mode) Refreshes() bool {
	return mode == Shorten || mode == ShortenStrict
}

// Role is the role a name plays within the property graph.
type Role int

const (
	Label Role = iota
	Relationship
	Property
	Datatype
)

const (
	// PrefixSeparator separates prefix and local name of shortened names.
	PrefixSeparator = "__"

	// BaseNamespace is the namespace of names that carry no namespace of their own.
	BaseNamespace = "neo4j://vocabulary#"
)

// ErrMissingPrefix is returned when a name uses a prefix that is not defined.
var ErrMissingPrefix = errors.New("prefix in use but not in the namespace prefix definition")

// Translator translates between iris and names.
type Translator struct {
	Mode       Mode
	Namespaces *Namespaces

	// Mappings maps iris to names in Map mode.
	Mappings map[string]string

	// Neo4jNaming capitalizes labels, upper-cases relationship types and lower-cases the first letter of properties
	// in Ignore and Map mode.
	Neo4jNaming bool
}

// Refreshes checks if the namespace table of this translator must be refreshed before each batch.
func (t *Translator) Refreshes() bool {
	return t.Mode.Refreshes()
}

// Name returns the name of iri in the given role.
// In Shorten mode, this may add new prefixes to the namespace table.
func (t *Translator) Name(iri string, role Role) (string, error) {
	switch t.Mode {
	case Shorten, ShortenStrict:
		namespace, local := Split(iri)
		prefix, err := t.Namespaces.PrefixOrAdd(namespace, t.Mode == ShortenStrict)
		if err != nil {
			return "", err
		}
		return prefix + PrefixSeparator + local, nil
	case Ignore:
		_, local := Split(iri)
		return t.capitalize(local, role), nil
	case Map:
		if name, ok := t.Mappings[iri]; ok {
			return name, nil
		}
		_, local := Split(iri)
		return t.capitalize(local, role), nil
	default:
		return iri, nil
	}
}

// Lookup is like Name, but never modifies the namespace table.
// In Shorten mode, an iri without a known prefix is reported as not ok.
func (t *Translator) Lookup(iri string, role Role) (name string, ok bool) {
	switch t.Mode {
	case Shorten, ShortenStrict:
		namespace, local := Split(iri)
		prefix, ok := t.Namespaces.Prefix(namespace)
		if !ok {
			return "", false
		}
		return prefix + PrefixSeparator + local, true
	default:
		name, err := t.Name(iri, role)
		return name, err == nil
	}
}

func (t *Translator) capitalize(name string, role Role) string {
	if !t.Neo4jNaming || name == "" {
		return name
	}

	first, size := utf8.DecodeRuneInString(name)
	switch role {
	case Relationship:
		return strings.ToUpper(name)
	case Label:
		return string(unicode.ToUpper(first)) + name[size:]
	case Property:
		return string(unicode.ToLower(first)) + name[size:]
	default:
		return name
	}
}

var prefixedName = regexp.MustCompile(`^(\w+?)` + PrefixSeparator + `(.*)$`)

// IRI returns the iri of a name.
//
// Names of the form prefix__local are expanded using the namespace table, failing with [ErrMissingPrefix] when prefix is unknown.
// Names starting with "http" are returned as is, any other name is placed into [BaseNamespace].
func (t *Translator) IRI(name string) (string, error) {
	switch t.Mode {
	case Keep:
		return name, nil
	case Map:
		for iri, mapped := range t.Mappings {
			if mapped == name {
				return iri, nil
			}
		}
	}

	if match := prefixedName.FindStringSubmatch(name); match != nil {
		namespace, ok := t.namespace(match[1])
		if !ok {
			return "", fmt.Errorf("%w: prefix %q", ErrMissingPrefix, match[1])
		}
		return namespace + match[2], nil
	}
	if strings.HasPrefix(name, "http") {
		return name, nil
	}
	return BaseNamespace + name, nil
}

// Rename replaces the prefix of a name of the form prefix__local according to renamed.
// Other names are returned unchanged.
func Rename(name string, renamed map[string]string) string {
	match := prefixedName.FindStringSubmatch(name)
	if match == nil {
		return name
	}
	prefix, ok := renamed[match[1]]
	if !ok {
		return name
	}
	return prefix + PrefixSeparator + match[2]
}

func (t *Translator) namespace(prefix string) (string, bool) {
	if t.Namespaces == nil {
		return "", false
	}
	return t.Namespaces.Namespace(prefix)
}

// Split splits an iri into namespace and local name.
// The local name starts after the last '#', or failing that the last '/', or failing that the last ':'.
func Split(iri string) (namespace, local string) {
	index := strings.LastIndexByte(iri, '#')
	if index < 0 {
		index = strings.LastIndexByte(iri, '/')
	}
	if index < 0 {
		index = strings.LastIndexByte(iri, ':')
	}
	return iri[:index+1], iri[index+1:]
}
