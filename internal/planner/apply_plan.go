package planner

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/modoverlay/internal/fsops"
	"github.com/danieljhkim/modoverlay/internal/mounttable"
)

// ErrInvalidPlan indicates the inputs cannot produce a plan.
var ErrInvalidPlan = errors.New("invalid tree plan input")

// BuildTreePlan generates a deterministic plan for patching stock.Root() with
// moduleRoots. mountPoints is the snapshot of child mounts taken before any
// mutation; every entry must lie strictly under the root.
func BuildTreePlan(
	moduleRoots []string,
	mountPoints []string,
	stock fsops.DirHandle,
	fs fsops.FS,
) (*TreePlan, error) {
	root := filepath.Clean(stock.Root())

	plan := NewTreePlan(root, moduleRoots)
	for _, mp := range mountPoints {
		if !mounttable.Under(mp, root) {
			return nil, fmt.Errorf("%w: mount point %s is not under %s", ErrInvalidPlan, mp, root)
		}
		plan.AddChild(PlanChild(filepath.Clean(mp), Relative(root, mp), moduleRoots, stock, fs))
	}
	return plan, nil
}

// Relative returns path relative to root with a leading slash.
func Relative(root, path string) string {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if root == "/" {
		return path
	}
	rel := strings.TrimPrefix(path, root)
	if rel == "" {
		return "/"
	}
	return rel
}

// PlanChild decides what happens to one child mount.
//
// A module with a directory at the child's path contributes a layer; a
// module with anything else there masks the child, whatever the other
// modules hold.
func PlanChild(mountPoint, rel string, moduleRoots []string, stock fsops.DirHandle, fs fsops.FS) ChildOp {
	op := ChildOp{
		MountPoint: mountPoint,
		Relative:   rel,
		Stock:      stock.Path(rel),
	}

	stockKind := stock.Probe(rel)
	if !stockKind.Exists() {
		op.Action = ActionSkip
		return op
	}

	kinds := make([]fsops.Kind, len(moduleRoots))
	found := false
	for i, lower := range moduleRoots {
		kinds[i] = fsops.Probe(fs, moduleEntry(lower, rel))
		found = found || kinds[i].Exists()
	}
	if !found {
		op.Action = ActionPassthrough
		return op
	}

	if stockKind != fsops.KindDir {
		op.Action = ActionUntouched
		return op
	}

	var lowers []string
	for i, lower := range moduleRoots {
		switch kinds[i] {
		case fsops.KindDir:
			lowers = append(lowers, moduleEntry(lower, rel))
		case fsops.KindOther:
			op.Action = ActionMask
			op.MaskedBy = moduleEntry(lower, rel)
			return op
		}
	}

	if len(lowers) == 0 {
		op.Action = ActionUntouched
		return op
	}
	op.Action = ActionOverlay
	op.Lowers = lowers
	return op
}

func moduleEntry(moduleRoot, rel string) string {
	return filepath.Join(moduleRoot, rel)
}
