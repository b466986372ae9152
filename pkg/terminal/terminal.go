// Package terminal answers questions about the terminal attached to a stream.
package terminal

import (
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// DefaultWidth is reported when the width cannot be determined.
const DefaultWidth = 80

// Terminal describes the terminal behind one file descriptor.
type Terminal struct {
	log zerolog.Logger
	fd  int
}

// NewTerminal creates a Terminal for f, usually os.Stderr.
func NewTerminal(f *os.File, log zerolog.Logger) *Terminal {
	return &Terminal{
		log: log.With().Str("component", "terminal").Logger(),
		fd:  int(f.Fd()),
	}
}

// IsTerminal reports whether the stream is an interactive terminal.
func (t *Terminal) IsTerminal() bool {
	return term.IsTerminal(t.fd)
}

// Width returns the terminal width in columns, or DefaultWidth.
func (t *Terminal) Width() int {
	if !t.IsTerminal() {
		return DefaultWidth
	}
	w, _, err := term.GetSize(t.fd)
	if err != nil || w <= 0 {
		t.log.Debug().Err(err).Msg("Could not read terminal size")
		return DefaultWidth
	}
	return w
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
