// Package config manages modoverlay configuration and filesystem paths.
//
// Configuration includes the locations of modoverlay data directories, which
// can be customized via environment variables. The default root is
// /data/adb/modoverlay containing modules/, state/, a lock file and
// config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultRoot is the data root used when MODOVERLAY_ROOT is unset.
const DefaultRoot = "/data/adb/modoverlay"

// Paths contains all the filesystem paths used by modoverlay.
type Paths struct {
	// Root is the base directory for all modoverlay data
	Root string

	// Modules is the directory containing one subdirectory per module
	Modules string

	// State is the directory containing recorded tree state files
	State string

	// Lock is the file locked while trees are built or torn down
	Lock string

	// Config is the path to the config file
	Config string
}

// DefaultPaths returns the default paths for modoverlay.
// Paths can be overridden with environment variables:
// - MODOVERLAY_ROOT: Override the root directory
// - MODOVERLAY_MODULES: Override the modules directory
func DefaultPaths() *Paths {
	root := os.Getenv("MODOVERLAY_ROOT")
	if root == "" {
		root = DefaultRoot
	}

	modules := os.Getenv("MODOVERLAY_MODULES")
	if modules == "" {
		modules = filepath.Join(root, "modules")
	}

	return &Paths{
		Root:    root,
		Modules: modules,
		State:   filepath.Join(root, "state"),
		Lock:    filepath.Join(root, "lock"),
		Config:  filepath.Join(root, "config.toml"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.State,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
