//spellchecker:words main
package main

//spellchecker:words encoding json http pprof time github pgrdf internal stats gorilla
import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/FAU-CDI/pgrdf/internal/stats"
	"github.com/gorilla/mux"
)

// debugProgress is the response of the progress route
type debugProgress struct {
	stats.Progress
	Stages []stats.StageStats `json:"stages"`
}

func listenDebug(st *stats.Stats) {
	router := mux.NewRouter()
	router.Handle("/debug/pprof/", http.HandlerFunc(pprof.Index))
	router.Handle("/debug/pprof/cmdline", http.HandlerFunc(pprof.Cmdline))
	router.Handle("/debug/pprof/profile", http.HandlerFunc(pprof.Profile))
	router.Handle("/debug/pprof/symbol", http.HandlerFunc(pprof.Symbol))
	router.Handle("/debug/pprof/trace", http.HandlerFunc(pprof.Trace))
	router.Handle("/debug/pprof/{cmd}", http.HandlerFunc(pprof.Index)) // special handling for Gorilla mux

	router.HandleFunc("/progress", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(debugProgress{
			Progress: st.Progress(),
			Stages:   st.All(),
		})
	}).Methods(http.MethodGet)

	st.Log("debug server listening", "addr", debugListen)

	server := http.Server{
		Addr:              debugListen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := server.ListenAndServe()

	st.LogFatal("debug server listen", err)
}
