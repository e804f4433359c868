package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/FAU-CDI/pgrdf"
	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/ingest"
	"github.com/FAU-CDI/pgrdf/internal/source"
	"github.com/FAU-CDI/pgrdf/internal/stats"
)

// findSource finds the source named on the command line
func findSource(args []string, st *stats.Stats) *source.File {
	src, err := pgrdf.FindSource(format, args...)
	if err != nil {
		st.Log(usage)
		st.LogFatal("find source", err)
	}
	if requireQuads {
		if err := source.RequireQuads(src.Format); err != nil {
			st.LogFatal("check format", err)
		}
	}
	return src
}

func doLoad(ctx context.Context, store graph.Store, config ingest.Config, args []string, st *stats.Stats) {
	src := findSource(args, st)
	st.Log("loading statements", "path", src.Path, "format", src.Format.Name)

	result, err := ingest.Load(ctx, store, src, config, st)
	writeResult(result, st)
	if err != nil {
		st.LogFatal("load", err)
	}
	st.Log("loaded statements", "loaded", result.TriplesLoaded, "parsed", result.TriplesParsed, "skipped", len(result.Outcome.Skipped))
}

func doDelete(ctx context.Context, store graph.Store, config ingest.Config, args []string, st *stats.Stats) {
	src := findSource(args, st)
	st.Log("deleting statements", "path", src.Path, "format", src.Format.Name)

	result, err := ingest.Delete(ctx, store, src, config, st)
	writeResult(result, st)
	if err != nil {
		st.LogFatal("delete", err)
	}
	st.Log("deleted statements", "deleted", result.TriplesDeleted, "info", result.ExtraInfo)
}

func doPreview(ctx context.Context, config ingest.Config, args []string, st *stats.Stats) {
	src := findSource(args, st)
	st.Log("previewing statements", "path", src.Path, "format", src.Format.Name, "limit", limit)

	preview, err := ingest.Preview(ctx, src, config, limit, st)
	if err != nil {
		st.LogFatal("preview", err)
	}
	writeResult(preview, st)
}

func doStream(args []string, st *stats.Stats) {
	src := findSource(args, st)
	st.Log("streaming statements", "path", src.Path, "format", src.Format.Name, "limit", limit)

	encoder := json.NewEncoder(os.Stdout)
	if err := st.DoStage(stats.StageStream, func() error {
		count, err := source.Stream(src, limit, func(statement source.Streamed) error {
			return encoder.Encode(statement)
		})
		st.SetCT(count, limit)
		return err
	}); err != nil {
		st.LogFatal("stream", err)
	}
}

// writeResult writes the result of an operation to standard output
func writeResult(result any, st *stats.Stats) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		st.LogError("write result", err)
	}
}
