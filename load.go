// Package pgrdf maps rdf statements onto a property graph, and back.
package pgrdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FAU-CDI/pgrdf/internal/source"
)

var errWrongArgCount = errors.New("need exactly one argument")

// FindSource finds the source of statements for the given path.
//
// When format is empty, it is determined by the file extension.
// A directory must contain exactly one file of a known format.
// FindSource does not guarantee that contents are loadable.
func FindSource(format string, argv ...string) (*source.File, error) {
	if len(argv) != 1 {
		return nil, errWrongArgCount
	}
	path := argv[0]

	isDir, err := isDirectory(path)
	if err != nil {
		return nil, err
	}
	if isDir {
		path, err = findFile(path)
		if err != nil {
			return nil, err
		}
	}

	ok, err := isFile(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%q is not a regular file", path)
	}

	var f source.Format
	if format == "" {
		f, err = source.ByPath(path)
	} else {
		f, err = source.ByName(format)
	}
	if err != nil {
		return nil, err
	}
	return &source.File{Path: path, Format: f}, nil
}

// findFile finds the only file of a known format in base
func findFile(base string) (string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", err
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := source.ByPath(entry.Name()); err == nil {
			found = append(found, filepath.Join(base, entry.Name()))
		}
	}
	if len(found) != 1 {
		return "", fmt.Errorf("need exactly one file of a known format in %q, but got %d", base, len(found))
	}
	return found[0], nil
}

func isDirectory(path string) (ok bool, err error) {
	stats, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return stats.Mode().IsDir(), nil
}

// isFile checks if path is a regular file.
func isFile(path string) (ok bool, err error) {
	stats, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return stats.Mode().IsRegular(), nil
}
