package pathutil

import (
	"errors"
	"fmt"
	"os"
)

// ErrInvalidDirectory is matched by every InvalidDirectoryError.
var ErrInvalidDirectory = errors.New("invalid directory")

// InvalidDirectoryError reports a required directory that does not exist.
type InvalidDirectoryError struct {
	Path string
}

func (e *InvalidDirectoryError) Error() string {
	return fmt.Sprintf("the path %s is not a valid directory", e.Path)
}

// Is lets errors.Is(err, ErrInvalidDirectory) match.
func (e *InvalidDirectoryError) Is(target error) bool {
	return target == ErrInvalidDirectory
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile reports whether path exists and is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// RequireDir returns an InvalidDirectoryError unless path is a directory.
func RequireDir(path string) error {
	if !IsDir(path) {
		return &InvalidDirectoryError{Path: path}
	}
	return nil
}
