// Package diag carries human-readable diagnostics out of the dataset pipeline.
package diag

import (
	"sync"

	"github.com/rs/zerolog"
)

// Fields are structured key/value pairs attached to a diagnostic.
type Fields map[string]interface{}

// Sink receives pipeline diagnostics. Per-directory skips are warnings,
// dataset summaries and write confirmations are informational.
type Sink interface {
	Warn(msg string, fields Fields)
	Info(msg string, fields Fields)
}

// LogSink forwards diagnostics to a zerolog logger.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink writing through the given logger.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Warn logs at warn level.
func (s *LogSink) Warn(msg string, fields Fields) {
	s.log.Warn().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Info logs at info level.
func (s *LogSink) Info(msg string, fields Fields) {
	s.log.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Warn(string, Fields) {}
func (Nop) Info(string, Fields) {}

// Level distinguishes recorded entries.
type Level string

const (
	LevelWarn Level = "warn"
	LevelInfo Level = "info"
)

// Entry is one recorded diagnostic.
type Entry struct {
	Level  Level
	Msg    string
	Fields Fields
}

// Recorder keeps diagnostics in memory, mostly for tests and summaries.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Warn(msg string, fields Fields) { r.add(LevelWarn, msg, fields) }
func (r *Recorder) Info(msg string, fields Fields) { r.add(LevelInfo, msg, fields) }

func (r *Recorder) add(level Level, msg string, fields Fields) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Fields: fields})
	r.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Warnings returns only warn entries.
func (r *Recorder) Warnings() []Entry {
	return r.filter(LevelWarn)
}

// Infos returns only info entries.
func (r *Recorder) Infos() []Entry {
	return r.filter(LevelInfo)
}

func (r *Recorder) filter(level Level) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Tee fans diagnostics out to several sinks in order.
type Tee []Sink

func (t Tee) Warn(msg string, fields Fields) {
	for _, s := range t {
		s.Warn(msg, fields)
	}
}

func (t Tee) Info(msg string, fields Fields) {
	for _, s := range t {
		s.Info(msg, fields)
	}
}
