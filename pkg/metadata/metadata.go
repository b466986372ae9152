// Package metadata loads per-sample metadata records written next to the audio.
//
// Records are usually Python pickles of a plain dict (the format produced by the
// sample downloader), JSON objects are accepted too. The format is sniffed
// from the content, never from the file name.
package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"
	"sort"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
)

// DefaultFileName is the metadata file expected at the top of a sample directory.
const DefaultFileName = "sound_metadata.pkl"

// Well-known field names.
const (
	FieldName       = "name"
	FieldChannels   = "channels"
	FieldFilesize   = "filesize"
	FieldBitrate    = "bitrate"
	FieldBitdepth   = "bitdepth"
	FieldDuration   = "duration"
	FieldSamplerate = "samplerate"
)

// ErrDeserialization is matched by every DeserializationError.
var ErrDeserialization = errors.New("metadata deserialization failed")

// DeserializationError reports metadata bytes that are not a valid record.
type DeserializationError struct {
	Path   string
	Format string
	Err    error
}

func (e *DeserializationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to decode %s metadata: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("failed to decode %s metadata %s: %v", e.Format, e.Path, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDeserialization) match.
func (e *DeserializationError) Is(target error) bool {
	return target == ErrDeserialization
}

// Record maps field names to scalar values. Field presence is not guaranteed.
type Record map[string]interface{}

// Get returns the field, or an absent Value reading as "".
func (r Record) Get(key string) Value {
	v, ok := r[key]
	if !ok {
		return Value{}
	}
	return ValueOf(v)
}

// Keys returns the field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Loader reads metadata files from disk.
type Loader struct{}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and decodes the metadata file at path.
func (l *Loader) Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	rec, err := Decode(data)
	if err != nil {
		var de *DeserializationError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	return rec, nil
}

// Decode turns serialized metadata bytes into a Record.
func Decode(data []byte) (Record, error) {
	if mimetype.Detect(data).Is("application/json") {
		return decodeJSON(data)
	}
	return decodePickle(data)
}

func decodePickle(data []byte) (rec Record, err error) {
	// gopickle panics on some malformed streams, unknown opcodes among them.
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = &DeserializationError{Format: "pickle", Err: fmt.Errorf("%v", r)}
		}
	}()

	u := pickle.NewUnpickler(bytes.NewReader(data))
	obj, err := u.Load()
	if err != nil {
		return nil, &DeserializationError{Format: "pickle", Err: err}
	}

	dict, ok := obj.(*types.Dict)
	if !ok {
		return nil, &DeserializationError{Format: "pickle", Err: fmt.Errorf("expected a dict, got %T", obj)}
	}

	rec = make(Record, dict.Len())
	for _, entry := range *dict {
		rec[keyString(entry.Key)] = normalize(entry.Value)
	}
	return rec, nil
}

func decodeJSON(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, &DeserializationError{Format: "json", Err: err}
	}
	if raw == nil {
		return nil, &DeserializationError{Format: "json", Err: errors.New("expected an object, got null")}
	}

	rec := make(Record, len(raw))
	for k, v := range raw {
		rec[k] = normalize(v)
	}
	return rec, nil
}

func keyString(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

// normalize folds decoded values into int64, float64, string, bool or nil.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x)
		}
		return fmt.Sprint(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return fmt.Sprint(x)
	case float32:
		return float64(x)
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case []byte:
		return string(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
