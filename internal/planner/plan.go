package planner

import (
	"fmt"
	"strings"

	"github.com/danieljhkim/modoverlay/internal/mount"
)

// Action is what the executor does with one pre-existing child mount.
type Action string

const (
	// ActionPassthrough bind-mounts the stock child back onto its mount point.
	ActionPassthrough Action = "passthrough"

	// ActionOverlay mounts a nested overlay of module directories over the stock child.
	ActionOverlay Action = "overlay"

	// ActionMask leaves the mount point unmounted because a module placed a
	// non-directory entry at its path.
	ActionMask Action = "mask"

	// ActionSkip ignores a child whose stock content no longer resolves.
	ActionSkip Action = "skip"

	// ActionUntouched leaves the mount point alone; modules have entries there
	// but nothing that can be layered.
	ActionUntouched Action = "untouched"
)

// Mutates reports whether executing the action mounts something.
func (a Action) Mutates() bool {
	return a == ActionPassthrough || a == ActionOverlay
}

// ChildOp is the decision for a single pre-existing child mount.
type ChildOp struct {
	// MountPoint is the absolute mount point under the root.
	MountPoint string

	// Relative is MountPoint relative to the root, with a leading slash.
	Relative string

	// Action is what to do with the child.
	Action Action

	// Lowers are the module directories layered over the stock child, in
	// priority order. Only set for ActionOverlay.
	Lowers []string

	// Stock is the kernel-reachable path of the pre-mutation child content.
	// It is only valid while the planning handle is open.
	Stock string

	// MaskedBy is the module entry that caused ActionMask.
	MaskedBy string
}

// Lowerdir returns the lowerdir of an overlay child as it reads to a user:
// the stock layer is named by its mount point, not by the handle path.
func (op ChildOp) Lowerdir() string {
	return mount.LowerDir(op.Lowers, op.MountPoint)
}

// TreePlan describes a complete overlay tree build.
type TreePlan struct {
	// Root is the directory being patched.
	Root string

	// ModuleRoots are the module layers in priority order.
	ModuleRoots []string

	// Children is one op per snapshotted child mount, in sorted mount point order.
	Children []ChildOp
}

// NewTreePlan creates an empty plan for root.
func NewTreePlan(root string, moduleRoots []string) *TreePlan {
	return &TreePlan{
		Root:        root,
		ModuleRoots: moduleRoots,
		Children:    []ChildOp{},
	}
}

// RootLowerdir returns the lowerdir option of the root overlay: every module
// root followed by the root itself.
func (p *TreePlan) RootLowerdir() string {
	return mount.LowerDir(p.ModuleRoots, p.Root)
}

// AddChild appends a child op to the plan.
func (p *TreePlan) AddChild(op ChildOp) {
	p.Children = append(p.Children, op)
}

// Count returns how many children carry the given action.
func (p *TreePlan) Count(action Action) int {
	n := 0
	for _, c := range p.Children {
		if c.Action == action {
			n++
		}
	}
	return n
}

// Summary renders the per-action counts in a fixed order.
func (p *TreePlan) Summary() string {
	parts := make([]string, 0, 5)
	for _, a := range []Action{ActionPassthrough, ActionOverlay, ActionMask, ActionSkip, ActionUntouched} {
		if n := p.Count(a); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, a))
		}
	}
	if len(parts) == 0 {
		return "no child mounts"
	}
	return strings.Join(parts, ", ")
}
