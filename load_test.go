package pgrdf_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/FAU-CDI/pgrdf"
	"github.com/FAU-CDI/pgrdf/internal/source"
)

func TestFindSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"data.nq", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name       string
		format     string
		argv       []string
		wantPath   string
		wantFormat string
		wantErr    bool
	}{
		{"file", "", []string{filepath.Join(dir, "data.nq")}, filepath.Join(dir, "data.nq"), "nquads", false},
		{"directory", "", []string{dir}, filepath.Join(dir, "data.nq"), "nquads", false},
		{"override", "ntriples", []string{filepath.Join(dir, "notes.txt")}, filepath.Join(dir, "notes.txt"), "ntriples", false},
		{"unknown extension", "", []string{filepath.Join(dir, "notes.txt")}, "", "", true},
		{"missing", "", []string{filepath.Join(dir, "missing.nq")}, "", "", true},
		{"no arguments", "", nil, "", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := pgrdf.FindSource(tt.format, tt.argv...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Path != tt.wantPath {
				t.Errorf("FindSource() got path = %q, want = %q", got.Path, tt.wantPath)
			}
			if got.Format.Name != tt.wantFormat {
				t.Errorf("FindSource() got format = %q, want = %q", got.Format.Name, tt.wantFormat)
			}
		})
	}

	if _, err := pgrdf.FindSource("", filepath.Join(dir, "notes.txt")); !errors.Is(err, source.ErrUnknownFormat) {
		t.Errorf("FindSource() got err = %v, want = %v", err, source.ErrUnknownFormat)
	}
}
