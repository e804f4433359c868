package source

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	akrdf "github.com/anglo-korean/rdf"
	"github.com/cayleygraph/quad"
)

// Format is a serialization format of statements.
type Format struct {
	Name       string
	Extensions []string

	// Quads indicates that the format can express named graphs.
	Quads bool

	open func(r io.ReadSeeker) Source
}

// Source returns a new source reading statements in this format from r.
func (f Format) Source(r io.ReadSeeker) Source {
	return f.open(r)
}

func (f Format) String() string {
	return f.Name
}

var formats = []Format{
	{
		Name:       "nquads",
		Extensions: []string{".nq"},
		Quads:      true,
		open:       func(r io.ReadSeeker) Source { return &QuadSource{Reader: r} },
	},
	{
		Name:       "ntriples",
		Extensions: []string{".nt"},
		open:       func(r io.ReadSeeker) Source { return &QuadSource{Reader: r} },
	},
	{
		Name:       "turtle",
		Extensions: []string{".ttl"},
		open:       func(r io.ReadSeeker) Source { return &TripleSource{Reader: r, Format: akrdf.Turtle} },
	},
	{
		Name:       "rdfxml",
		Extensions: []string{".rdf", ".owl", ".xml"},
		open:       func(r io.ReadSeeker) Source { return &TripleSource{Reader: r, Format: akrdf.RDFXML} },
	},
	{
		Name:       "jsonld",
		Extensions: []string{".jsonld"},
		Quads:      true,
		open:       func(r io.ReadSeeker) Source { return &FormatSource{Reader: r, Format: quad.FormatByName("jsonld")} },
	},
}

var (
	ErrUnknownFormat = errors.New("unknown format")
	ErrNotQuadFormat = errors.New("not a quad serialisation format")
)

// Formats returns the names of all known formats.
func Formats() []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	return names
}

// ByName returns the format with the given name.
func ByName(name string) (Format, error) {
	name = strings.ToLower(name)
	for _, f := range formats {
		if f.Name == name {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ByPath returns the format of the given path, based on its extension.
func ByPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range formats {
		for _, e := range f.Extensions {
			if e == ext {
				return f, nil
			}
		}
	}
	return Format{}, fmt.Errorf("%w: no format for extension %q", ErrUnknownFormat, ext)
}

// RequireQuads returns an error unless f can express named graphs.
func RequireQuads(f Format) error {
	if !f.Quads {
		return fmt.Errorf("%w: %s", ErrNotQuadFormat, f.Name)
	}
	return nil
}
