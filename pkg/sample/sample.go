package sample

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ryanuber/go-glob"

	"github.com/hiway/sampleset/pkg/pathutil"
)

// DefaultAudioPattern matches the audio files a sample directory holds.
const DefaultAudioPattern = "*.wav"

// Validator decides whether a directory looks like a sample directory.
type Validator struct {
	Pattern         string // glob applied to file base names
	CaseInsensitive bool   // match Pattern regardless of case
}

// NewValidator returns a Validator for pattern, falling back to DefaultAudioPattern.
func NewValidator(pattern string, caseInsensitive bool) *Validator {
	if pattern == "" {
		pattern = DefaultAudioPattern
	}
	return &Validator{Pattern: pattern, CaseInsensitive: caseInsensitive}
}

// Validate checks if the validator configuration is usable.
func (v *Validator) Validate() error {
	if v.Pattern == "" {
		return errors.New("audio pattern cannot be empty")
	}
	if strings.ContainsRune(v.Pattern, '/') || strings.ContainsRune(v.Pattern, filepath.Separator) {
		return fmt.Errorf("audio pattern must match base names only, got %q", v.Pattern)
	}
	return nil
}

// IsAudio reports whether a base file name matches the audio pattern.
func (v *Validator) IsAudio(name string) bool {
	if v.CaseInsensitive {
		return glob.Glob(strings.ToLower(v.Pattern), strings.ToLower(name))
	}
	return glob.Glob(v.Pattern, name)
}

// HasAudio reports whether any file anywhere under dir is an audio file.
func (v *Validator) HasAudio(dir string) (bool, error) {
	if err := pathutil.RequireDir(dir); err != nil {
		return false, err
	}

	found := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are ignored, the walk goes on.
			return nil
		}
		if isFileEntry(path, d) && v.IsAudio(d.Name()) {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found, nil
}

// HasMetadata reports whether a regular file exists at path. The parent
// directory of path must exist.
func (v *Validator) HasMetadata(path string) (bool, error) {
	if err := pathutil.RequireDir(filepath.Dir(path)); err != nil {
		return false, err
	}
	return pathutil.IsFile(path), nil
}

// FindAudio lists audio files under dir at any depth. Hidden files and
// hidden directories are not searched. Symlinked files count, symlinked
// directories are not descended into.
func (v *Validator) FindAudio(dir string) []string {
	var matches []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if isFileEntry(path, d) && v.IsAudio(d.Name()) {
			matches = append(matches, path)
		}
		return nil
	})
	return matches
}

// ResolveAudio returns the audio file of dir when exactly one exists.
// Zero or several candidates resolve to ("", false).
func (v *Validator) ResolveAudio(dir string) (string, bool) {
	matches := v.FindAudio(dir)
	if len(matches) != 1 {
		return "", false
	}
	return matches[0], true
}

// isFileEntry reports whether d is a regular file or a symlink that does not
// resolve to a directory.
func isFileEntry(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err != nil || !info.IsDir()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
