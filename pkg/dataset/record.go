// Package dataset builds the labeled music dataset from sample directories.
package dataset

import (
	"errors"

	"github.com/hiway/sampleset/pkg/metadata"
)

// ErrEmptyDataset is returned when cleaning or writing a dataset without rows.
var ErrEmptyDataset = errors.New("dataset contains no records")

// Column names, in output order.
const (
	ColRelativePath   = "relative_path"
	ColChannels       = "channels"
	ColFilesize       = "filesize"
	ColBitrate        = "bitrate"
	ColBitdepth       = "bitdepth"
	ColDuration       = "duration"
	ColSamplerate     = "samplerate"
	ColInstrumentName = "instrument_name"
)

// Columns is the fixed dataset schema.
var Columns = []string{
	ColRelativePath,
	ColChannels,
	ColFilesize,
	ColBitrate,
	ColBitdepth,
	ColDuration,
	ColSamplerate,
	ColInstrumentName,
}

// Record is one row of the music dataset.
type Record struct {
	RelativePath   string
	Channels       metadata.Value
	Filesize       metadata.Value
	Bitrate        metadata.Value
	Bitdepth       metadata.Value
	Duration       metadata.Value
	Samplerate     metadata.Value
	InstrumentName string
}

// Values returns the row's scalars in column order. Absent metadata fields are "".
func (r Record) Values() []interface{} {
	return []interface{}{
		r.RelativePath,
		r.Channels.Interface(),
		r.Filesize.Interface(),
		r.Bitrate.Interface(),
		r.Bitdepth.Interface(),
		r.Duration.Interface(),
		r.Samplerate.Interface(),
		r.InstrumentName,
	}
}

// Strings returns the row rendered as text in column order.
func (r Record) Strings() []string {
	return []string{
		r.RelativePath,
		r.Channels.String(),
		r.Filesize.String(),
		r.Bitrate.String(),
		r.Bitdepth.String(),
		r.Duration.String(),
		r.Samplerate.String(),
		r.InstrumentName,
	}
}

// Labeled reports whether the row carries an instrument label.
func (r Record) Labeled() bool {
	return r.InstrumentName != ""
}

// Dataset is an ordered table of records.
type Dataset struct {
	rows []Record
}

// New creates a dataset holding a copy of rows.
func New(rows []Record) *Dataset {
	d := &Dataset{rows: make([]Record, len(rows))}
	copy(d.rows, rows)
	return d
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// Empty reports whether the dataset has no rows.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// Rows returns a copy of the rows.
func (d *Dataset) Rows() []Record {
	if d == nil {
		return nil
	}
	out := make([]Record, len(d.rows))
	copy(out, d.rows)
	return out
}

// Row returns the i-th row.
func (d *Dataset) Row(i int) Record {
	return d.rows[i]
}

// Filter returns a new dataset with the rows keep accepts, order preserved.
func (d *Dataset) Filter(keep func(Record) bool) *Dataset {
	out := &Dataset{rows: make([]Record, 0, d.Len())}
	for _, r := range d.Rows() {
		if keep(r) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// LabelCounts counts rows per instrument name. Unlabeled rows count under "".
func (d *Dataset) LabelCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range d.Rows() {
		counts[r.InstrumentName]++
	}
	return counts
}
