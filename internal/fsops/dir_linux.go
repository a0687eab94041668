//go:build linux

package fsops

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// HostDir is a DirHandle backed by an O_PATH descriptor. Lookups go through
// the descriptor, so they keep resolving to the original directory after a
// filesystem is mounted over its path.
type HostDir struct {
	fd   int
	root string
}

// OpenDir opens path as an O_PATH directory descriptor.
func OpenDir(path string) (*HostDir, error) {
	fd, err := unix.Open(path, unix.O_PATH|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory handle on %s: %w", path, err)
	}
	return &HostDir{fd: fd, root: filepath.Clean(path)}, nil
}

// Root returns the path the handle was opened from.
func (d *HostDir) Root() string {
	return d.root
}

// Probe classifies rel as seen through the descriptor, following symlinks.
func (d *HostDir) Probe(rel string) Kind {
	var st unix.Stat_t
	if err := unix.Fstatat(d.fd, relName(rel), &st, 0); err != nil {
		return KindMissing
	}
	if st.Mode&unix.S_IFMT == unix.S_IFDIR {
		return KindDir
	}
	return KindOther
}

// Path returns the /proc/self/fd form of rel. The kernel walks the magic
// link to the descriptor's directory, not to whatever now covers root.
func (d *HostDir) Path(rel string) string {
	name := relName(rel)
	if name == "." {
		return fmt.Sprintf("/proc/self/fd/%d", d.fd)
	}
	return fmt.Sprintf("/proc/self/fd/%d/%s", d.fd, name)
}

// Close releases the descriptor.
func (d *HostDir) Close() error {
	return unix.Close(d.fd)
}

func relName(rel string) string {
	name := strings.TrimPrefix(filepath.Clean("/"+rel), "/")
	if name == "" {
		return "."
	}
	return name
}
