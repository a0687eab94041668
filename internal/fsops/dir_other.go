//go:build !linux

package fsops

import (
	"errors"
	"fmt"
)

// HostDir is unavailable off Linux.
type HostDir struct{}

// OpenDir always fails off Linux.
func OpenDir(path string) (*HostDir, error) {
	return nil, fmt.Errorf("failed to open directory handle on %s: %w", path, errors.ErrUnsupported)
}

func (d *HostDir) Root() string { return "" }

func (d *HostDir) Probe(string) Kind { return KindMissing }

func (d *HostDir) Path(string) string { return "" }

func (d *HostDir) Close() error { return errors.ErrUnsupported }
