package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the kind of a [Scalar].
type Kind uint8

const (
	KindString Kind = iota + 1
	KindInteger
	KindFloat
	KindBoolean
	KindDate
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Scalar is a single typed property value.
// Only the field corresponding to Kind is meaningful.
type Scalar struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Time  time.Time
}

func String(value string) Scalar { return Scalar{Kind: KindString, Str: value} }
func Integer(value int64) Scalar { return Scalar{Kind: KindInteger, Int: value} }
func Float(value float64) Scalar { return Scalar{Kind: KindFloat, Float: value} }
func Boolean(value bool) Scalar  { return Scalar{Kind: KindBoolean, Bool: value} }

// Date and DateTime keep the wall clock reading of value, dropping its location.
func Date(value time.Time) Scalar { return Scalar{Kind: KindDate, Time: civil(value, true)} }
func DateTime(value time.Time) Scalar {
	return Scalar{Kind: KindDateTime, Time: civil(value, false)}
}

// civil drops the location of t, keeping its wall clock reading.
func civil(t time.Time, dateOnly bool) time.Time {
	if dateOnly {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// scalarKey is a comparable representation of a scalar
type scalarKey struct {
	kind  Kind
	str   string
	int   int64
	float uint64
	bool  bool
	sec   int64
	nsec  int
}

func (s Scalar) key() scalarKey {
	k := scalarKey{kind: s.Kind}
	switch s.Kind {
	case KindString:
		k.str = s.Str
	case KindInteger:
		k.int = s.Int
	case KindFloat:
		k.float = math.Float64bits(s.Float)
	case KindBoolean:
		k.bool = s.Bool
	case KindDate, KindDateTime:
		k.sec = s.Time.Unix()
		k.nsec = s.Time.Nanosecond()
	}
	return k
}

// Equal checks if two scalars have the same kind and value.
func (s Scalar) Equal(other Scalar) bool {
	return s.key() == other.key()
}

// Formats used for the lexical form of dates and datetimes.
const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02T15:04:05.999999999"
)

// String returns the lexical form of this scalar.
func (s Scalar) String() string {
	switch s.Kind {
	case KindString:
		return s.Str
	case KindInteger:
		return strconv.FormatInt(s.Int, 10)
	case KindFloat:
		switch {
		case math.IsInf(s.Float, 1):
			return "INF"
		case math.IsInf(s.Float, -1):
			return "-INF"
		case math.IsNaN(s.Float):
			return "NaN"
		}
		return strconv.FormatFloat(s.Float, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(s.Bool)
	case KindDate:
		return s.Time.Format(DateFormat)
	case KindDateTime:
		return s.Time.Format(DateTimeFormat)
	default:
		return ""
	}
}

// ErrMixedKinds is returned when an array would hold scalars of different kinds.
var ErrMixedKinds = errors.New("array elements must all be of the same kind")

// Value is a property value.
// It is either a single scalar, or a duplicate-free array of scalars of the same kind.
//
// The zero value holds nothing.
type Value struct {
	items []Scalar
	array bool
}

// Single returns a new single-valued Value.
func Single(s Scalar) Value {
	return Value{items: []Scalar{s}}
}

// Array returns a new array holding the distinct items in order of their first occurrence.
func Array(items ...Scalar) (Value, error) {
	return Value{array: true}.Append(items...)
}

// IsZero checks if v holds no value.
func (v Value) IsZero() bool {
	return len(v.items) == 0 && !v.array
}

// IsArray checks if v holds an array.
func (v Value) IsArray() bool {
	return v.array
}

// Len returns the number of scalars in v.
func (v Value) Len() int {
	return len(v.items)
}

// Kind returns the kind of scalars held by v, or 0 when v is empty.
func (v Value) Kind() Kind {
	if len(v.items) == 0 {
		return 0
	}
	return v.items[0].Kind
}

// Items returns a copy of the scalars held by v.
func (v Value) Items() []Scalar {
	return append([]Scalar(nil), v.items...)
}

// Scalar returns the first scalar held by v.
func (v Value) Scalar() (Scalar, bool) {
	if len(v.items) == 0 {
		return Scalar{}, false
	}
	return v.items[0], true
}

// Contains checks if v holds a scalar equal to s.
func (v Value) Contains(s Scalar) bool {
	return v.index(s) >= 0
}

func (v Value) index(s Scalar) int {
	for i, item := range v.items {
		if item.Equal(s) {
			return i
		}
	}
	return -1
}

// Append returns an array holding the items of v followed by every item not yet contained.
// A single value is promoted into a one-element array first.
func (v Value) Append(items ...Scalar) (Value, error) {
	result := Value{
		items: append(make([]Scalar, 0, len(v.items)+len(items)), v.items...),
		array: true,
	}

	kind := result.Kind()
	for _, item := range items {
		if kind == 0 {
			kind = item.Kind
		}
		if item.Kind != kind {
			return v, fmt.Errorf("%w: %s and %s", ErrMixedKinds, kind, item.Kind)
		}
		if result.Contains(item) {
			continue
		}
		result.items = append(result.items, item)
	}
	return result, nil
}

// Remove returns a copy of v without the given items, and the number of items actually removed.
func (v Value) Remove(items ...Scalar) (Value, int) {
	result := Value{
		items: append([]Scalar(nil), v.items...),
		array: v.array,
	}

	var removed int
	for _, item := range items {
		index := result.index(item)
		if index < 0 {
			continue
		}
		result.items = append(result.items[:index], result.items[index+1:]...)
		removed++
	}
	return result, removed
}

// Equal checks if v and other hold the same items.
// Arrays are compared as sets.
func (v Value) Equal(other Value) bool {
	if v.array != other.array || len(v.items) != len(other.items) {
		return false
	}
	for _, item := range v.items {
		if !other.Contains(item) {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	if !v.array {
		if s, ok := v.Scalar(); ok {
			return s.String()
		}
		return ""
	}

	parts := make([]string, len(v.items))
	for i, item := range v.items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MarshalJSON encodes v as a single json value, or an array of them.
// Numbers and booleans are kept, all other scalars use their lexical form.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.array {
		if s, ok := v.Scalar(); ok {
			return json.Marshal(s.native())
		}
		return []byte("null"), nil
	}

	items := make([]any, len(v.items))
	for i, s := range v.items {
		items[i] = s.native()
	}
	return json.Marshal(items)
}

func (s Scalar) native() any {
	switch s.Kind {
	case KindInteger:
		return s.Int
	case KindFloat:
		if math.IsInf(s.Float, 0) || math.IsNaN(s.Float) {
			return s.String()
		}
		return s.Float
	case KindBoolean:
		return s.Bool
	default:
		return s.String()
	}
}
