package stats_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/FAU-CDI/pgrdf/internal/stats"
)

func TestStats_DoStage(t *testing.T) {
	t.Parallel()

	st := stats.NewStats(io.Discard, slog.LevelInfo)

	if err := st.DoStage(stats.StageLoad, func() error {
		st.SetCT(10, 20)
		if got := st.Progress(); got.Stage != stats.StageLoad || got.Current != 10 || got.Total != 20 {
			t.Errorf("Progress() got = %v, want = load 10/20", got)
		}
		return nil
	}); err != nil {
		t.Fatalf("DoStage() returned error %v", err)
	}

	errFailed := errors.New("failed")
	if err := st.DoStage(stats.StageStatistics, func() error { return errFailed }); !errors.Is(err, errFailed) {
		t.Errorf("DoStage() got err = %v, want = %v", err, errFailed)
	}

	all := st.All()
	if len(all) != 2 {
		t.Fatalf("All() got %d stages, want = 2", len(all))
	}
	if all[0].Stage != stats.StageLoad || all[0].Current != 10 || all[0].Total != 20 {
		t.Errorf("All()[0] got = %v, want = load 10/20", all[0])
	}
	if all[1].Stage != stats.StageStatistics {
		t.Errorf("All()[1].Stage got = %v, want = %v", all[1].Stage, stats.StageStatistics)
	}

	st.Close()
	if got := st.Progress(); !got.Done {
		t.Errorf("Progress() got = %v, want = done", got)
	}
}

func TestStats_Nil(t *testing.T) {
	t.Parallel()

	var st *stats.Stats

	called := false
	if err := st.DoStage(stats.StageExport, func() error {
		called = true
		return nil
	}); err != nil || !called {
		t.Errorf("DoStage() got called = %v, err = %v, want = true, nil", called, err)
	}

	st.SetCT(1, 2)
	st.Log("ignored")

	if all := st.All(); len(all) != 0 {
		t.Errorf("All() got = %v, want = empty", all)
	}
	if !st.Done() {
		t.Error("Done() got = false, want = true")
	}
}
