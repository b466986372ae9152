// Package writer persists a cleaned music dataset to the output directory.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/hiway/sampleset/pkg/dataset"
	"github.com/hiway/sampleset/pkg/diag"
	"github.com/hiway/sampleset/pkg/pathutil"
)

// Supported output formats.
const (
	FormatPickle = "pickle"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// Formats lists every supported format name.
var Formats = []string{FormatPickle, FormatCSV, FormatSQLite}

// Writer is the interface for dataset sinks. Each writer owns one fixed
// file name inside the output directory and overwrites it on every write.
type Writer interface {
	Format() string
	FileName() string
	Write(ds *dataset.Dataset, path string) error
}

// New returns the writer for a format name.
func New(format string, log zerolog.Logger) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatPickle:
		return NewPickleWriter(log), nil
	case FormatCSV:
		return NewCSVWriter(log), nil
	case FormatSQLite:
		return NewSQLiteWriter(log), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// NewAll returns writers for several formats, in order.
func NewAll(formats []string, log zerolog.Logger) ([]Writer, error) {
	writers := make([]Writer, 0, len(formats))
	for _, f := range formats {
		w, err := New(f, log)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	return writers, nil
}

// Save writes ds into dir with every writer and returns the written paths.
// Nothing is written when ds is empty or dir is not an existing directory.
func Save(ds *dataset.Dataset, dir string, sink diag.Sink, writers ...Writer) ([]string, error) {
	if ds.Empty() {
		return nil, fmt.Errorf("failed to save dataset: %w", dataset.ErrEmptyDataset)
	}
	if err := pathutil.RequireDir(dir); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = diag.Nop{}
	}

	paths := make([]string, 0, len(writers))
	for _, w := range writers {
		path := filepath.Join(dir, w.FileName())
		if err := w.Write(ds, path); err != nil {
			return paths, fmt.Errorf("failed to write %s dataset: %w", w.Format(), err)
		}
		fields := diag.Fields{"path": path, "format": w.Format(), "rows": ds.Len()}
		if info, err := os.Stat(path); err == nil {
			fields["size"] = humanize.Bytes(uint64(info.Size()))
		}
		sink.Info("Saved music dataset", fields)
		paths = append(paths, path)
	}
	return paths, nil
}
