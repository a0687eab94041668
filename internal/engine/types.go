package engine

import (
	"github.com/danieljhkim/modoverlay/internal/planner"
	"github.com/danieljhkim/modoverlay/internal/state"
)

// TreeRequest represents a request to build an overlay tree.
type TreeRequest struct {
	// Root is the directory to patch
	Root string

	// ModuleRoots are the module layers, highest priority first
	ModuleRoots []string

	// UpperDir and WorkDir make the root overlay writable when both exist
	UpperDir string
	WorkDir  string

	// DryRun performs planning only without mounting anything
	DryRun bool
}

// TreeResult represents the outcome of a tree build.
type TreeResult struct {
	// Plan is the per-child plan the build executed (or would execute)
	Plan *planner.TreePlan

	// Tree is the recorded ledger; nil for dry runs
	Tree *state.TreeState

	// Fallbacks lists children whose nested overlay degraded to a bind mount
	Fallbacks []string

	// StateErr is set when the ledger could not be persisted; the tree is
	// still mounted
	StateErr error
}

// TeardownResult represents the outcome of tearing down a tree.
type TeardownResult struct {
	// Root is the tree's root
	Root string

	// Unmounted lists mount points removed, in unmount order
	Unmounted []string
}
