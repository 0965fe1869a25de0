// Package fsutil holds small filesystem helpers shared by the session
// store and the export packager.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirPermissions is the default permission for data directories
	DefaultDirPermissions = 0o750
	// DefaultFilePermissions is the default permission for data files
	DefaultFilePermissions = 0o600
)

// ResolveDir returns the directory from the given environment variable
// when set, or the provided default. It returns an absolute path when
// possible.
func ResolveDir(envVar, defaultDir string) string {
	if env := os.Getenv(envVar); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
		return env
	}
	return defaultDir
}

// EnsureDir creates the directory if it doesn't exist
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, DefaultDirPermissions); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// AtomicWriteFile writes data through a temp file and rename so the
// target is never observed partially written.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			return fmt.Errorf("failed to rename file: %w (temp file left at %s)", err, tmpPath)
		}
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
