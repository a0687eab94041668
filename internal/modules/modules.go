// Package modules discovers the module roots layered over a partition.
package modules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/modoverlay/internal/fsops"
)

// Marker files that exclude a module from mounting.
const (
	DisableFile   = "disable"
	RemoveFile    = "remove"
	SkipMountFile = "skip_mount"
)

// Module is one installed module directory.
type Module struct {
	// Name is the module's directory name
	Name string

	// Path is the module's directory
	Path string

	// Skipped names the marker file that excludes the module, if any
	Skipped string
}

// List returns every module under modulesDir sorted by name. A missing
// modulesDir yields no modules.
func List(fs fsops.FS, modulesDir string) ([]Module, error) {
	entries, err := fs.ReadDir(modulesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list modules in %s: %w", modulesDir, err)
	}

	var mods []Module
	for _, e := range entries {
		path := filepath.Join(modulesDir, e.Name())
		if fsops.Probe(fs, path) != fsops.KindDir {
			continue
		}
		mod := Module{Name: e.Name(), Path: path}
		for _, marker := range []string{DisableFile, RemoveFile, SkipMountFile} {
			if fsops.Probe(fs, filepath.Join(path, marker)).Exists() {
				mod.Skipped = marker
				break
			}
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// Discover returns the module roots contributing to partition, highest
// priority first. A module contributes <module>/<partition> when it is
// enabled and that path is a directory.
func Discover(fs fsops.FS, modulesDir, partition string) ([]string, error) {
	mods, err := List(fs, modulesDir)
	if err != nil {
		return nil, err
	}

	var roots []string
	for _, mod := range mods {
		if mod.Skipped != "" {
			continue
		}
		root := filepath.Join(mod.Path, partition)
		if fsops.Probe(fs, root) == fsops.KindDir {
			roots = append(roots, root)
		}
	}
	return roots, nil
}
