// Package codec converts between rdf literals and property values.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/FAU-CDI/pgrdf/internal/vocab"
	"golang.org/x/exp/slices"
)

// CustomDatatypeSeparator separates the lexical form of a literal from its custom datatype.
const CustomDatatypeSeparator = "^^"

// Config determines how literals are encoded.
//
// The configuration used by a load is persisted in the store, so that an export can decode values the same way.
type Config struct {
	// KeepLangTag appends "@lang" to language-tagged strings.
	KeepLangTag bool `json:"keepLangTag,omitempty"`

	// LanguageFilter rejects language-tagged strings of other languages.
	LanguageFilter string `json:"languageFilter,omitempty"`

	// KeepCustomDataTypes appends "^^datatype" to literals of non-standard datatypes.
	// CustomDataTypeProperties restricts this to the given predicates.
	KeepCustomDataTypes      bool     `json:"keepCustomDataTypes,omitempty"`
	CustomDataTypeProperties []string `json:"customDataTypePropList,omitempty"`
}

// metaKey is the metadata key holding the persisted configuration
const metaKey = "codec"

// Store persists config in the given store.
func (config Config) Store(store vocab.MetaStore) error {
	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode codec config: %w", err)
	}
	return store.SetMeta(metaKey, data)
}

// ReadConfig reads the configuration last persisted in store.
// A store without a persisted configuration yields the zero Config.
func ReadConfig(store vocab.MetaStore) (config Config, err error) {
	data, ok, err := store.Meta(metaKey)
	if err != nil || !ok {
		return config, err
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to decode codec config: %w", err)
	}
	return config, nil
}

// Codec converts between literals and property values.
type Codec struct {
	Config
	Vocab *vocab.Translator
}

var integerTypes = []string{
	rdf.XSDInteger, rdf.XSDLong, rdf.XSDInt, rdf.XSDShort, rdf.XSDByte,
	rdf.XSDNonNegativeInteger, rdf.XSDNonPositiveInteger, rdf.XSDPositiveInteger, rdf.XSDNegativeInteger,
	rdf.XSDUnsignedLong, rdf.XSDUnsignedInt, rdf.XSDUnsignedShort, rdf.XSDUnsignedByte,
}

var floatTypes = []string{rdf.XSDDecimal, rdf.XSDDouble, rdf.XSDFloat}

// Scalar encodes the literal object of a statement with the given predicate.
//
// When the literal is rejected by the language filter, ok is false.
// Literals that fail to parse as their datatype are kept as strings.
func (codec *Codec) Scalar(predicate string, literal rdf.Term) (value graph.Scalar, ok bool, err error) {
	lexical := literal.Value

	switch dt := literal.Datatype; {
	case dt == rdf.XSDString || dt == rdf.LangString || dt == "":
		if codec.LanguageFilter != "" && literal.Language != "" && literal.Language != codec.LanguageFilter {
			return value, false, nil
		}
		if codec.KeepLangTag && literal.Language != "" {
			lexical += "@" + literal.Language
		}
		return graph.String(lexical), true, nil

	case slices.Contains(integerTypes, dt):
		i, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(lexical), "+"), 10, 64)
		if err != nil {
			return graph.String(lexical), true, nil
		}
		return graph.Integer(i), true, nil

	case slices.Contains(floatTypes, dt):
		f, err := parseFloat(lexical)
		if err != nil {
			return graph.String(lexical), true, nil
		}
		return graph.Float(f), true, nil

	case dt == rdf.XSDBoolean:
		switch strings.TrimSpace(lexical) {
		case "true", "1":
			return graph.Boolean(true), true, nil
		case "false", "0":
			return graph.Boolean(false), true, nil
		}
		return graph.String(lexical), true, nil

	case dt == rdf.XSDDateTime:
		t, err := parseTime(lexical, dateTimeLayouts)
		if err != nil {
			return graph.String(lexical), true, nil
		}
		return graph.DateTime(t), true, nil

	case dt == rdf.XSDDate:
		t, err := parseTime(lexical, dateLayouts)
		if err != nil {
			return graph.String(lexical), true, nil
		}
		return graph.Date(t), true, nil

	default:
		if !codec.keepsDatatype(predicate) {
			return graph.String(lexical), true, nil
		}

		datatype := dt
		if codec.Vocab != nil && codec.Vocab.Mode == vocab.Shorten {
			datatype, err = codec.Vocab.Name(dt, vocab.Datatype)
			if err != nil {
				return value, false, err
			}
		}
		return graph.String(lexical + CustomDatatypeSeparator + datatype), true, nil
	}
}

// keepsDatatype checks if custom datatypes are kept for the given predicate
func (codec *Codec) keepsDatatype(predicate string) bool {
	if !codec.KeepCustomDataTypes {
		return false
	}
	if codec.Vocab != nil && (codec.Vocab.Mode == vocab.Ignore || codec.Vocab.Mode == vocab.Map) {
		return false
	}
	return len(codec.CustomDataTypeProperties) == 0 || slices.Contains(codec.CustomDataTypeProperties, predicate)
}

func parseFloat(lexical string) (float64, error) {
	switch lexical = strings.TrimSpace(lexical); lexical {
	case "INF", "+INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(lexical, 64)
}

var (
	dateTimeLayouts = []string{time.RFC3339Nano, graph.DateTimeFormat}
	dateLayouts     = []string{graph.DateFormat, graph.DateFormat + "Z07:00"}
)

func parseTime(lexical string, layouts []string) (t time.Time, err error) {
	lexical = strings.TrimSpace(lexical)
	for _, layout := range layouts {
		t, err = time.Parse(layout, lexical)
		if err == nil {
			return t, nil
		}
	}
	return t, err
}

var (
	langTagPattern  = regexp.MustCompile(`^(?s)(.*)@([a-z,\-]+)$`)
	datatypePattern = regexp.MustCompile(`^(?s)(.*)` + regexp.QuoteMeta(CustomDatatypeSeparator) + `(.*)$`)
)

// Literal decodes a property value of the given predicate into a literal.
//
// When language tags are kept, strings with a language tag suffix become language-tagged literals.
// When custom datatypes are kept for predicate, strings with a datatype suffix become custom-typed literals.
// Custom datatypes are expanded using the vocabulary translator.
func (codec *Codec) Literal(predicate string, value graph.Scalar) (rdf.Term, error) {
	switch value.Kind {
	case graph.KindInteger:
		return rdf.Literal(value.String(), rdf.XSDInteger), nil
	case graph.KindFloat:
		return rdf.Literal(value.String(), rdf.XSDDouble), nil
	case graph.KindBoolean:
		return rdf.Literal(value.String(), rdf.XSDBoolean), nil
	case graph.KindDate:
		return rdf.Literal(value.String(), rdf.XSDDate), nil
	case graph.KindDateTime:
		return rdf.Literal(value.String(), rdf.XSDDateTime), nil
	case graph.KindString:
		if !codec.KeepLangTag && !codec.keepsDatatype(predicate) {
			return rdf.Literal(value.Str, rdf.XSDString), nil
		}
		if match := langTagPattern.FindStringSubmatch(value.Str); codec.KeepLangTag && match != nil {
			return rdf.LangLiteral(match[1], match[2]), nil
		}
		if match := datatypePattern.FindStringSubmatch(value.Str); codec.keepsDatatype(predicate) && match != nil {
			datatype := match[2]
			if codec.Vocab != nil {
				var err error
				datatype, err = codec.Vocab.IRI(datatype)
				if err != nil {
					return rdf.Term{}, err
				}
			}
			return rdf.Literal(match[1], datatype), nil
		}
		return rdf.Literal(value.Str, rdf.XSDString), nil
	default:
		return rdf.Term{}, fmt.Errorf("unknown value kind %s", value.Kind)
	}
}

// Rename replaces namespace prefixes in the custom datatype of a value encoded for predicate.
func (codec *Codec) Rename(predicate string, value graph.Scalar, renamed map[string]string) graph.Scalar {
	if value.Kind != graph.KindString || !codec.keepsDatatype(predicate) {
		return value
	}
	match := datatypePattern.FindStringSubmatch(value.Str)
	if match == nil {
		return value
	}
	return graph.String(match[1] + CustomDatatypeSeparator + vocab.Rename(match[2], renamed))
}
