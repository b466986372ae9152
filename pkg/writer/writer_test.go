package writer

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiway/sampleset/pkg/dataset"
	"github.com/hiway/sampleset/pkg/diag"
	"github.com/hiway/sampleset/pkg/metadata"
	"github.com/hiway/sampleset/pkg/pathutil"
)

func testDataset() *dataset.Dataset {
	return dataset.New([]dataset.Record{
		{
			RelativePath:   "freesound/s1/audio.wav",
			Channels:       metadata.ValueOf(int64(2)),
			Filesize:       metadata.ValueOf(int64(12345)),
			Bitrate:        metadata.ValueOf(int64(320)),
			Bitdepth:       metadata.ValueOf(int64(16)),
			Duration:       metadata.ValueOf(60.5),
			Samplerate:     metadata.ValueOf(int64(44100)),
			InstrumentName: "violin",
		},
		{
			RelativePath:   "freesound/s2/take, 2.wav",
			Channels:       metadata.ValueOf(int64(1)),
			InstrumentName: "oboe",
		},
	})
}

func allWriters(t *testing.T) []Writer {
	t.Helper()
	writers, err := NewAll(Formats, zerolog.Nop())
	require.NoError(t, err)
	return writers
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New("parquet", zerolog.Nop())
	assert.Error(t, err)

	w, err := New(" CSV ", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, CSVFileName, w.FileName())
}

// frame captures the DataFrame(data, index, columns) call a pickle makes.
type frame struct {
	rows    []interface{}
	index   interface{}
	columns []string
}

type frameClass struct{}

func (frameClass) Call(args ...interface{}) (interface{}, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("DataFrame called with %d args", len(args))
	}
	f := frame{rows: *args[0].(*types.List), index: args[1]}
	for _, c := range *args[2].(*types.List) {
		f.columns = append(f.columns, c.(string))
	}
	return f, nil
}

func readFrame(t *testing.T, path string) frame {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	u := pickle.NewUnpickler(f)
	u.FindClass = func(module, name string) (interface{}, error) {
		if module != DataFrame.Module || name != DataFrame.Name {
			return nil, fmt.Errorf("unexpected global %s.%s", module, name)
		}
		return frameClass{}, nil
	}
	obj, err := u.Load()
	require.NoError(t, err)
	fr, ok := obj.(frame)
	require.True(t, ok, "got %T", obj)
	return fr
}

func TestSavePickle(t *testing.T) {
	dir := t.TempDir()
	sink := diag.NewRecorder()

	paths, err := Save(testDataset(), dir, sink, NewPickleWriter(zerolog.Nop()))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, PickleFileName)}, paths)

	frame := readFrame(t, paths[0])
	assert.Equal(t, dataset.Columns, frame.columns)
	assert.Nil(t, frame.index)
	rows := frame.rows
	require.Len(t, rows, 2)

	first := *rows[0].(*types.List)
	assert.Equal(t, "freesound/s1/audio.wav", first[0])
	assert.Equal(t, 2, first[1])
	assert.Equal(t, 60.5, first[5])
	assert.Equal(t, "violin", first[7])

	second := *rows[1].(*types.List)
	assert.Equal(t, "", second[2])
	assert.Equal(t, "oboe", second[7])

	infos := sink.Infos()
	require.Len(t, infos, 1)
	assert.Equal(t, "Saved music dataset", infos[0].Msg)
	assert.Equal(t, 2, infos[0].Fields["rows"])
	assert.NotEmpty(t, infos[0].Fields["size"])
}

func TestSaveCSV(t *testing.T) {
	dir := t.TempDir()
	_, err := Save(testDataset(), dir, nil, NewCSVWriter(zerolog.Nop()))
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, CSVFileName))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, dataset.Columns, records[0])
	assert.Equal(t, []string{"freesound/s1/audio.wav", "2", "12345", "320", "16", "60.5", "44100", "violin"}, records[1])
	assert.Equal(t, []string{"freesound/s2/take, 2.wav", "1", "", "", "", "", "", "oboe"}, records[2])
}

func TestSaveSQLite(t *testing.T) {
	dir := t.TempDir()
	w := NewSQLiteWriter(zerolog.Nop())

	// Writing twice replaces the table instead of appending.
	for i := 0; i < 2; i++ {
		_, err := Save(testDataset(), dir, nil, w)
		require.NoError(t, err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, SQLiteFileName))
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+SQLiteTable).Scan(&count))
	assert.Equal(t, 2, count)

	var (
		path       string
		samplerate int64
		instrument string
	)
	require.NoError(t, db.QueryRow(
		"SELECT relative_path, samplerate, instrument_name FROM "+SQLiteTable+" WHERE instrument_name = ?", "violin",
	).Scan(&path, &samplerate, &instrument))
	assert.Equal(t, "freesound/s1/audio.wav", path)
	assert.Equal(t, int64(44100), samplerate)
}

func TestSaveAllFormats(t *testing.T) {
	dir := t.TempDir()
	paths, err := Save(testDataset(), dir, nil, allWriters(t)...)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, PickleFileName),
		filepath.Join(dir, CSVFileName),
		filepath.Join(dir, SQLiteFileName),
	}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
}

func TestSaveEmptyWritesNothing(t *testing.T) {
	dir := t.TempDir()
	_, err := Save(dataset.New(nil), dir, nil, allWriters(t)...)
	assert.ErrorIs(t, err, dataset.ErrEmptyDataset)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveInvalidDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	_, err := Save(testDataset(), dir, nil, allWriters(t)...)
	assert.ErrorIs(t, err, pathutil.ErrInvalidDirectory)
	assert.NoDirExists(t, dir)
}

func TestSavePickleNonUTF8Path(t *testing.T) {
	ds := dataset.New([]dataset.Record{{RelativePath: "freesound/s\xff/a.wav", InstrumentName: "violin"}})
	paths, err := Save(ds, t.TempDir(), nil, NewPickleWriter(zerolog.Nop()))
	require.NoError(t, err)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "freesound/s\xed\xb3\xbf/a.wav")
	assert.NotContains(t, string(data), "s\xff/")
}
