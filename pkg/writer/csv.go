package writer

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/hiway/sampleset/pkg/dataset"
)

// CSVFileName is the CSV dataset artifact.
const CSVFileName = "music_info_df.csv"

// CSVWriter writes a header row followed by one row per record.
type CSVWriter struct {
	log zerolog.Logger
}

// NewCSVWriter creates a CSVWriter.
func NewCSVWriter(log zerolog.Logger) *CSVWriter {
	return &CSVWriter{log: log.With().Str("writer", FormatCSV).Logger()}
}

func (w *CSVWriter) Format() string   { return FormatCSV }
func (w *CSVWriter) FileName() string { return CSVFileName }

// Write renders ds to path.
func (w *CSVWriter) Write(ds *dataset.Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(dataset.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range ds.Rows() {
		if err := cw.Write(r.Strings()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv file: %w", err)
	}
	w.log.Debug().Str("path", path).Int("rows", ds.Len()).Msg("CSV written")
	return f.Close()
}
