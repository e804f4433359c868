// Command pgrdf loads rdf statements into a property graph, deletes them, and exports them again.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/ingest"
	"github.com/FAU-CDI/pgrdf/internal/kv"
	"github.com/FAU-CDI/pgrdf/internal/source"
	"github.com/FAU-CDI/pgrdf/internal/stats"
	"github.com/pkg/profile"
	"github.com/tkw1536/pkglib/perf"
)

// cspell:words pgrdf leveldb nquads

const usage = "Usage: pgrdf [-help] [...flags] load FILE | delete FILE | preview FILE | stream FILE | export | stats | constraint"

var errUnknownStore = errors.New("unknown store kind")

func main() {
	level := slog.LevelInfo
	if debugLog {
		level = slog.LevelDebug
	}
	st := stats.NewStats(os.Stderr, level)

	if debugProfile != "" {
		defer profile.Start(profile.ProfilePath(debugProfile)).Stop()
	}
	if debugListen != "" {
		go listenDebug(st)
	}

	if len(nArgs) == 0 {
		st.Log(usage)
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	config := ingest.DefaultConfig()
	if configPath != "" {
		var err error
		if config, err = ingest.LoadConfig(configPath); err != nil {
			st.LogFatal("read config", err)
		}
	}

	// commands that do not need a store
	switch nArgs[0] {
	case "preview":
		doPreview(ctx, config, nArgs[1:], st)
		return
	case "stream":
		doStream(nArgs[1:], st)
		return
	}

	var store *graph.KV
	if err := st.DoStage(stats.StageOpen, func() (err error) {
		store, err = openStore()
		return err
	}); err != nil {
		st.LogFatal("open store", err)
	}
	defer store.Close()

	if createConstraint || nArgs[0] == "constraint" {
		if err := st.DoStage(stats.StageConstraint, func() error {
			return store.CreateIdentityConstraint(ctx)
		}); err != nil {
			st.LogFatal("create constraint", err)
		}
	}

	switch nArgs[0] {
	case "load":
		doLoad(ctx, store, config, nArgs[1:], st)
	case "delete":
		doDelete(ctx, store, config, nArgs[1:], st)
	case "export":
		doExport(ctx, store, config, st)
	case "stats":
		doStats(ctx, store, st)
	case "constraint":
		// already created above
	default:
		st.Log(usage)
		st.LogFatal("parse arguments", fmt.Errorf("unknown command %q", nArgs[0]))
	}

	if compact {
		if err := st.DoStage(stats.StageCompact, store.Compact); err != nil {
			st.LogError("compact store", err)
		}
	}

	st.Log("finished", "took", st.Diff(), "now", perf.Now())
}

// openStore opens the store selected on the command line
func openStore() (*graph.KV, error) {
	var engine kv.Engine
	var err error

	switch storeKind {
	case "memory":
		engine = kv.NewMemory()
	case "leveldb":
		engine, err = kv.OpenLevelDB(storePath)
	case "badger":
		engine, err = kv.OpenBadger(storePath)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownStore, storeKind)
	}
	if err != nil {
		return nil, err
	}
	return graph.New(engine), nil
}

func doStats(ctx context.Context, store *graph.KV, st *stats.Stats) {
	if err := st.DoStage(stats.StageStatistics, func() error {
		gs, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		st.StoreGraphStats(gs)
		return nil
	}); err != nil {
		st.LogFatal("compute stats", err)
	}

	constraint, err := store.HasIdentityConstraint(ctx)
	if err != nil {
		st.LogFatal("check constraint", err)
	}
	st.Log("store statistics", "stats", st.GraphStats().String(), "constraint", constraint)
}

// ===================

var nArgs []string

var storeKind = "leveldb"
var storePath = "pgrdf.db"
var configPath string
var createConstraint bool
var compact bool

var format string
var requireQuads bool
var limit = source.DefaultStreamLimit

var exportSubject string
var exportPredicate string
var exportObject string
var exportLiteral bool
var exportDatatype string
var exportLanguage string
var exportOut string

var sqlite string
var mysql string
var sqlTable string

var debugProfile string
var debugListen string
var debugLog bool

func init() {
	flag.StringVar(&storeKind, "store", storeKind, "kind of store to use, one of `memory`, `leveldb` or `badger`")
	flag.StringVar(&storePath, "path", storePath, "directory holding the store (an empty path keeps a badger store in memory)")
	flag.StringVar(&configPath, "config", configPath, "read load and delete settings from the given toml file")
	flag.BoolVar(&createConstraint, "constraint", createConstraint, "create the identity constraint if it does not exist")
	flag.BoolVar(&compact, "compact", compact, "compact the store after the command finished")

	flag.StringVar(&format, "format", format, "format of input files (default: by extension), or of the export output (`nquads` or `turtle`)")
	flag.BoolVar(&requireQuads, "quads", requireQuads, "require input files in a format supporting named graphs")
	flag.IntVar(&limit, "limit", limit, "maximal number of statements read by preview and stream, 0 for no limit")

	flag.StringVar(&exportSubject, "s", exportSubject, "export only statements with the given subject")
	flag.StringVar(&exportPredicate, "p", exportPredicate, "export only statements with the given predicate")
	flag.StringVar(&exportObject, "o", exportObject, "export only statements with the given object")
	flag.BoolVar(&exportLiteral, "literal", exportLiteral, "treat the object given by -o as a literal")
	flag.StringVar(&exportDatatype, "datatype", exportDatatype, "export only literals with the given datatype")
	flag.StringVar(&exportLanguage, "lang", exportLanguage, "export only literals with the given language")
	flag.StringVar(&exportOut, "out", exportOut, "write exported statements to the given file instead of standard output")

	flag.StringVar(&sqlite, "sqlite", sqlite, "export statements into an sqlite database at the given path")
	flag.StringVar(&mysql, "mysql", mysql, "export statements into a mysql database. Use a connection string of the form `username:password@host/database`")
	flag.StringVar(&sqlTable, "sql-table", sqlTable, "name of the table to export statements into")

	flag.StringVar(&debugProfile, "debug-profile", debugProfile, "write out a debugging profile to the given path")
	flag.StringVar(&debugListen, "debug-listen", debugListen, "start a profiling and progress server on the given address")
	flag.BoolVar(&debugLog, "debug", debugLog, "log debug messages")

	flag.Parse()
	nArgs = flag.Args()
}
