// Package mounttable enumerates the mounts nested under a directory.
//
// A snapshot must be taken before anything is mounted on the directory
// itself, since that changes what the table reports.
package mounttable

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/moby/sys/mountinfo"
)

// ErrMountTableRead indicates the mount table could not be read.
var ErrMountTableRead = errors.New("failed to read mount table")

// Source lists rows of a mount table.
type Source interface {
	// Mounts returns the rows accepted by filter (nil accepts all).
	Mounts(filter mountinfo.FilterFunc) ([]*mountinfo.Info, error)
}

// HostSource reads /proc/self/mountinfo of the current process.
type HostSource struct{}

// Mounts returns the current process's mounts.
func (HostSource) Mounts(filter mountinfo.FilterFunc) ([]*mountinfo.Info, error) {
	return mountinfo.GetMounts(filter)
}

// Under reports whether path lies strictly below root, comparing whole
// path components. root itself and its ancestors are not under root.
func Under(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if root == "/" {
		return path != "/" && strings.HasPrefix(path, "/")
	}
	return strings.HasPrefix(path, root+"/")
}

// ChildFilter accepts mounts strictly below root.
func ChildFilter(root string) mountinfo.FilterFunc {
	return func(m *mountinfo.Info) (skip, stop bool) {
		return !Under(m.Mountpoint, root), false
	}
}

// Snapshot returns the sorted, deduplicated mount points strictly below root.
func Snapshot(src Source, root string) ([]string, error) {
	mounts, err := src.Mounts(ChildFilter(root))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMountTableRead, err)
	}

	points := make([]string, 0, len(mounts))
	for _, m := range mounts {
		// Sources are not required to honor the filter.
		if !Under(m.Mountpoint, root) {
			continue
		}
		points = append(points, filepath.Clean(m.Mountpoint))
	}
	slices.Sort(points)
	return slices.Compact(points), nil
}
