// Package engine provides the core orchestration for modoverlay operations.
//
// The engine sits between CLI commands and the mount primitives. It takes
// the pre-mutation snapshot, asks the planner what to do with every child
// mount, performs the mounts in order and unwinds them when a child fails.
//
// Key components:
//   - Engine: main orchestrator that coordinates all operations
//   - BuildOverlayTree: root overlay plus child mount replay with rollback
//   - Teardown: removes a previously built tree from its recorded ledger
//   - Status/Mounts: read-only views of recorded trees and live mounts
//
// The engine does not serialize callers. Two builds against overlapping
// subtrees must not run at the same time.
package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/modoverlay/internal/fsops"
	"github.com/danieljhkim/modoverlay/internal/mounttable"
	"github.com/danieljhkim/modoverlay/internal/state"
)

// Mounter is the subset of mount primitives the engine composes.
type Mounter interface {
	MountOverlay(lowers []string, lowest, upper, work, dest string) error
	BindMount(from, to string) error
	UnmountPath(path string) error
	Detach(path string) error
}

// Engine orchestrates all modoverlay operations.
// It is the main API surface called by the CLI.
type Engine struct {
	mounter Mounter
	table   mounttable.Source
	fs      fsops.FS
	states  state.StateStore
	log     logrus.FieldLogger
	now     func() time.Time
}

// New creates a new Engine with the given dependencies.
func New(
	mounter Mounter,
	table mounttable.Source,
	fs fsops.FS,
	states state.StateStore,
	log logrus.FieldLogger,
) *Engine {
	return &Engine{
		mounter: mounter,
		table:   table,
		fs:      fs,
		states:  states,
		log:     log,
		now:     time.Now,
	}
}
