package writer

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/hiway/sampleset/pkg/dataset"
	"github.com/hiway/sampleset/pkg/pickler"
)

// PickleFileName is the primary dataset artifact.
const PickleFileName = "music_info_df.pkl"

// DataFrame is the pandas class the pickle is rebuilt as.
var DataFrame = pickler.Global{Module: "pandas.core.frame", Name: "DataFrame"}

// PickleWriter writes the dataset as a pickled pandas DataFrame, built on load
// as DataFrame(data, None, columns). pd.read_pickle and pickle.load both return
// the table with the fixed column order.
type PickleWriter struct {
	log zerolog.Logger
}

// NewPickleWriter creates a PickleWriter.
func NewPickleWriter(log zerolog.Logger) *PickleWriter {
	return &PickleWriter{log: log.With().Str("writer", FormatPickle).Logger()}
}

func (w *PickleWriter) Format() string   { return FormatPickle }
func (w *PickleWriter) FileName() string { return PickleFileName }

// Write encodes ds to path.
func (w *PickleWriter) Write(ds *dataset.Dataset, path string) error {
	rows := ds.Rows()
	data := make([][]interface{}, len(rows))
	for i, r := range rows {
		data[i] = r.Values()
	}
	payload := pickler.Call{
		Func: DataFrame,
		Args: pickler.Tuple{data, nil, dataset.Columns},
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create pickle file: %w", err)
	}
	if err := pickler.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close pickle file: %w", err)
	}
	w.log.Debug().Str("path", path).Int("rows", len(rows)).Msg("Pickle written")
	return nil
}
