// Package logging builds the zerolog logger used by the whole run.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rs/zerolog"

	"github.com/hiway/sampleset/pkg/config"
	"github.com/hiway/sampleset/pkg/terminal"
)

// Logger is a configured zerolog logger plus the file it may write to.
type Logger struct {
	zerolog.Logger
	file io.Writer
}

// Setup creates the logger described by cfg. Console output goes to console;
// it is human-readable when console is a terminal, JSON otherwise. When cfg
// names a log directory, records are also written to a file rotated daily.
func Setup(cfg config.Log, console *os.File) (*Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = console
	if !cfg.JSON && terminal.IsTerminal(console) {
		out = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	}

	l := &Logger{}
	if path := cfg.Path(); path != "" {
		w, err := newFileWriter(path)
		if err != nil {
			return nil, err
		}
		l.file = w
		out = zerolog.MultiLevelWriter(out, w)
	}

	l.Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return l, nil
}

func newFileWriter(path string) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	w, err := rotatelogs.New(
		path+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithMaxAge((24*time.Hour)*14),  // keep for 14 days
		rotatelogs.WithRotationTime(24*time.Hour), // rotate every 24 hours
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return w, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if c, ok := l.file.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
