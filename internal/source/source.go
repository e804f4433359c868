// Package source implements sources of rdf statements.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
)

// Source represents a source of statements.
type Source interface {
	// Open opens this data source.
	//
	// It is valid to call open more than once after Next() returned io.EOF.
	// In this case the second call to open should reset the data source.
	Open() error

	// Close closes this source.
	Close() error

	// Next returns the next statement.
	// At the end of the stream, returns io.EOF.
	// Any other error indicates malformed input.
	Next() (rdf.Statement, error)
}

// Slice is a source reading statements from a slice.
type Slice struct {
	Statements []rdf.Statement
	index      int
}

func (s *Slice) Open() error {
	s.index = 0
	return nil
}

func (s *Slice) Next() (rdf.Statement, error) {
	if s.index >= len(s.Statements) {
		return rdf.Statement{}, io.EOF
	}
	s.index++
	return s.Statements[s.index-1], nil
}

func (s *Slice) Close() error {
	return nil
}

// File is a source that reads statements from a file on disk.
type File struct {
	Path   string
	Format Format

	file   *os.File
	source Source
}

func (f *File) Open() error {
	if f.source != nil {
		return f.source.Open()
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	f.file = file
	f.source = f.Format.Source(file)

	if err := f.source.Open(); err != nil {
		f.Close()
		return err
	}
	return nil
}

func (f *File) Next() (rdf.Statement, error) {
	if f.source == nil {
		return rdf.Statement{}, errNotOpen
	}
	return f.source.Next()
}

func (f *File) Close() error {
	var errs []error
	if f.source != nil {
		errs = append(errs, f.source.Close())
		f.source = nil
	}
	if f.file != nil {
		errs = append(errs, f.file.Close())
		f.file = nil
	}
	return errors.Join(errs...)
}

var errNotOpen = errors.New("source is not open")

// Limit reads at most N statements from Source.
// A non-positive N reads all statements.
type Limit struct {
	Source
	N int

	read int
}

func (l *Limit) Open() error {
	l.read = 0
	return l.Source.Open()
}

func (l *Limit) Next() (rdf.Statement, error) {
	if l.N > 0 && l.read >= l.N {
		return rdf.Statement{}, io.EOF
	}
	statement, err := l.Source.Next()
	if err == nil {
		l.read++
	}
	return statement, err
}

// Collect opens source, reads all statements, and closes it again.
func Collect(source Source) (statements []rdf.Statement, err error) {
	if err := source.Open(); err != nil {
		return nil, err
	}
	defer func() {
		if cerr := source.Close(); err == nil {
			err = cerr
		}
	}()

	for {
		statement, err := source.Next()
		if errors.Is(err, io.EOF) {
			return statements, nil
		}
		if err != nil {
			return statements, err
		}
		statements = append(statements, statement)
	}
}
