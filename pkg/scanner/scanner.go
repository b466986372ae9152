// Package scanner enumerates the candidate sample directories below a root.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/hiway/sampleset/pkg/diag"
	"github.com/hiway/sampleset/pkg/pathutil"
)

// Scanner walks a directory tree top-down.
type Scanner struct {
	sink diag.Sink
}

// New creates a Scanner reporting unreadable directories to sink.
func New(sink diag.Sink) *Scanner {
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Scanner{sink: sink}
}

// Scan returns every directory below root, root excluded. For each visited
// directory all of its children are listed by name before any child is
// descended into. Symlinks are not followed.
func (s *Scanner) Scan(ctx context.Context, root string) ([]string, error) {
	if err := pathutil.RequireDir(root); err != nil {
		return nil, err
	}
	var dirs []string
	if err := s.visit(ctx, root, &dirs); err != nil {
		return nil, err
	}
	return dirs, nil
}

func (s *Scanner) visit(ctx context.Context, dir string, dirs *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.sink.Warn("Cannot read directory", diag.Fields{"dir": dir, "error": err.Error()})
		if len(entries) == 0 {
			return nil
		}
	}

	var children []string
	for _, e := range entries {
		if e.IsDir() {
			children = append(children, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(children)

	*dirs = append(*dirs, children...)
	for _, child := range children {
		if err := s.visit(ctx, child, dirs); err != nil {
			return err
		}
	}
	return nil
}

// Scan walks root with a scanner that discards diagnostics.
func Scan(ctx context.Context, root string) ([]string, error) {
	return New(nil).Scan(ctx, root)
}
