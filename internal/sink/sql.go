package sink

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/huandu/go-sqlbuilder"
)

const (
	subjectColumn   = "subject"
	predicateColumn = "predicate"
	objectColumn    = "object"
	literalColumn   = "is_literal"
	datatypeColumn  = "datatype"
	languageColumn  = "language"
	graphColumn     = "graph"

	// DefaultTable is the default name of the statements table
	DefaultTable = "statements"

	// DefaultMaxQueryVar is the maximum number of query variables supported by sqlite
	DefaultMaxQueryVar = 32766
)

var columns = []string{subjectColumn, predicateColumn, objectColumn, literalColumn, datatypeColumn, languageColumn, graphColumn}

var errInsufficientQueryVars = errors.New("insufficient query variables")

// SQL writes statements into a single table of an sql database.
//
// Statements are inserted in batches.
// The table is dropped and re-created by Begin.
type SQL struct {
	DB          *sql.DB
	Table       string // name of the table, defaults to DefaultTable
	BatchSize   int    // number of statements per insert
	MaxQueryVar int    // maximum number of query variables (overrides BatchSize), defaults to DefaultMaxQueryVar

	pending [][]any
}

func (s *SQL) table() string {
	if s.Table == "" {
		return DefaultTable
	}
	return s.Table
}

// Begin (re-)creates the statements table.
func (s *SQL) Begin() error {
	if _, err := s.DB.Exec("DROP TABLE IF EXISTS " + s.table() + ";"); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}

	table := sqlbuilder.CreateTable(s.table()).IfNotExists()
	table.Define(subjectColumn, "TEXT", "NOT NULL")
	table.Define(predicateColumn, "TEXT", "NOT NULL")
	table.Define(objectColumn, "TEXT", "NOT NULL")
	table.Define(literalColumn, "BOOLEAN", "NOT NULL")
	table.Define(datatypeColumn, "TEXT")
	table.Define(languageColumn, "TEXT")
	table.Define(graphColumn, "TEXT")

	query, args := table.Build()
	if _, err := s.DB.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (s *SQL) Write(statement rdf.Statement) error {
	object := statement.Object

	row := []any{
		resourceString(statement.Subject),
		statement.Predicate.Value,
		object.Value,
		object.IsLiteral(),
		nullString(object.Datatype),
		nullString(object.Language),
		nullString(""),
	}
	if !object.IsLiteral() {
		row[2] = resourceString(object)
	}
	if !statement.Context.IsZero() {
		row[6] = resourceString(statement.Context)
	}

	s.pending = append(s.pending, row)
	if len(s.pending) < s.chunkSize() {
		return nil
	}
	return s.Flush()
}

// Flush inserts all pending statements.
func (s *SQL) Flush() error {
	rows := s.pending
	s.pending = nil
	return s.insert(rows)
}

// Close flushes pending statements and closes the database.
func (s *SQL) Close() error {
	return errors.Join(s.Flush(), s.DB.Close())
}

func (s *SQL) chunkSize() int {
	limit := s.MaxQueryVar
	if limit <= 0 {
		limit = DefaultMaxQueryVar
	}

	size := limit / len(columns)
	if s.BatchSize > 0 && s.BatchSize < size {
		size = s.BatchSize
	}
	return size
}

// insert inserts the given rows.
// When this would exceed the maximum number of query variables, multiple inserts are executed.
func (s *SQL) insert(rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	chunkSize := s.chunkSize()
	if chunkSize <= 0 {
		return errInsufficientQueryVars
	}

	for start := 0; start < len(rows); start += chunkSize {
		end := min(start+chunkSize, len(rows))

		insert := sqlbuilder.InsertInto(s.table())
		insert.Cols(columns...)
		for _, row := range rows[start:end] {
			insert.Values(row...)
		}

		query, args := insert.Build()
		if _, err := s.DB.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to insert statements: %w", err)
		}
	}
	return nil
}

// resourceString returns the string representation of an iri or blank node
func resourceString(term rdf.Term) string {
	if term.IsBlank() {
		return "_:" + term.Value
	}
	return term.Value
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
