// Package fsops provides the filesystem metadata queries used while building
// overlay trees.
//
// Every lookup modoverlay performs against module roots and the stock tree goes
// through the FS interface so the decision logic can be exercised without a
// kernel. Stock content is reached through a DirHandle opened before the root
// is remounted.
//
// Key features:
//   - Existence and directory probes that follow symlinks
//   - Atomic writes using temp file + rename for state files
//   - Directory handles resolving paths relative to an open descriptor
package fsops

import (
	"fmt"
	"os"
	"path/filepath"
)

// Kind classifies what a path resolves to.
type Kind int

const (
	// KindMissing means the path does not resolve (or cannot be inspected).
	KindMissing Kind = iota
	// KindDir means the path resolves to a directory.
	KindDir
	// KindOther means the path resolves to anything that is not a directory.
	KindOther
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindOther:
		return "file"
	default:
		return "missing"
	}
}

// Exists reports whether the kind denotes an existing entry.
func (k Kind) Exists() bool {
	return k != KindMissing
}

// FS provides an abstraction for filesystem operations.
type FS interface {
	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file or empty directory.
	Remove(path string) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// ReadDir lists a directory sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// OpenDir opens a handle on a directory whose identity stays fixed even
	// if something is later mounted over its path.
	OpenDir(path string) (DirHandle, error)
}

// DirHandle resolves paths relative to a directory opened earlier.
type DirHandle interface {
	// Root returns the path the handle was opened from.
	Root() string

	// Probe classifies rel (absolute-style, "/" for the directory itself)
	// as seen through the handle.
	Probe(rel string) Kind

	// Path returns a path the kernel can use to reach rel through the handle.
	Path(rel string) string

	// Close releases the handle.
	Close() error
}

// Probe classifies path using fs, following symlinks. Any stat failure is
// reported as KindMissing.
func Probe(fs FS, path string) Kind {
	info, err := fs.Stat(path)
	if err != nil {
		return KindMissing
	}
	if info.IsDir() {
		return KindDir
	}
	return KindOther
}

// RealFS implements FS using actual OS operations.
type RealFS struct{}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

// Stat returns file info, following symlinks.
func (fs *RealFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// MkdirAll creates a directory and all parent directories.
func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Remove removes a file or empty directory.
func (fs *RealFS) Remove(path string) error {
	return os.Remove(path)
}

// ReadFile reads the entire contents of a file.
func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ReadDir lists a directory sorted by name.
func (fs *RealFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Create temp file in the same directory as target
	tmpFile, err := os.CreateTemp(dir, ".modoverlay-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	// Success - don't clean up temp file
	tmpFile = nil
	return nil
}

// OpenDir opens a descriptor-backed handle on path.
func (fs *RealFS) OpenDir(path string) (DirHandle, error) {
	d, err := OpenDir(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}
