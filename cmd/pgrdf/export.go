package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/FAU-CDI/pgrdf/internal/export"
	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/ingest"
	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/FAU-CDI/pgrdf/internal/sink"
	"github.com/FAU-CDI/pgrdf/internal/stats"
	"github.com/FAU-CDI/pgrdf/pkg/progress"
	_ "github.com/glebarez/go-sqlite"
	_ "github.com/go-sql-driver/mysql"
)

const sqlBatchSize = 1000

var errBothSqliteAndMysql = errors.New("both -sqlite and -mysql were given")

func doExport(ctx context.Context, store graph.Store, config ingest.Config, st *stats.Stats) {
	if sqlite != "" && mysql != "" {
		st.Log(usage)
		st.LogFatal("parse arguments", errBothSqliteAndMysql)
	}

	exporter, err := export.New(ctx, store, config.HandleVocabURIs, config.VocabMappings)
	if err != nil {
		st.LogFatal("create exporter", err)
	}

	pattern := rdf.TriplePattern{
		Subject:     exportSubject,
		Predicate:   exportPredicate,
		Object:      exportObject,
		IsLiteral:   exportLiteral,
		LiteralType: exportDatatype,
		LiteralLang: exportLanguage,
	}
	statements := exporter.Pattern(ctx, pattern)

	switch {
	case mysql != "":
		doSQL(statements, "mysql", mysql, st)
	case sqlite != "":
		doSQL(statements, "sqlite", sqlite, st)
	default:
		doWrite(statements, st)
	}
}

// doWrite writes statements to the selected output file
func doWrite(statements iter.Seq2[rdf.Statement, error], st *stats.Stats) {
	var output io.Writer = os.Stdout
	if exportOut != "" {
		file, err := os.Create(exportOut)
		if err != nil {
			st.LogFatal("create output", err)
		}
		defer file.Close()

		// report the number of bytes written
		output = &progress.Writer{Writer: file, Rewritable: st.Rewritable()}
	}

	var out sink.Sink
	switch format {
	case "", "nquads":
		out = sink.NewNQuads(output)
	case "turtle":
		out = sink.NewTurtle(output)
	default:
		st.LogFatal("parse arguments", fmt.Errorf("unknown output format %q", format))
	}

	var count int
	if err := st.DoStage(stats.StageExport, func() (err error) {
		count, err = sink.Drain(statements, out, nil)
		return errors.Join(err, out.Close())
	}); err != nil {
		st.LogFatal("export", err)
	}
	st.Log("exported statements", "count", count)
}

// doSQL writes statements into an sql database
func doSQL(statements iter.Seq2[rdf.Statement, error], proto, addr string, st *stats.Stats) {
	db, err := sql.Open(proto, addr)
	if err != nil {
		st.LogFatal("open sql", err)
	}

	out := &sink.SQL{
		DB:    db,
		Table: sqlTable,

		BatchSize:   sqlBatchSize,
		MaxQueryVar: sink.DefaultMaxQueryVar,
	}

	var count int
	if err := st.DoStage(stats.StageExportSQL, func() (err error) {
		if err := out.Begin(); err != nil {
			return err
		}
		count, err = sink.Drain(statements, out, st)
		return errors.Join(err, out.Close())
	}); err != nil {
		st.LogFatal("export sql", err)
	}
	st.Log("exported statements", "count", count)
}
