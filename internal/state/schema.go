package state

import "time"

// Mount kinds recorded in the ledger.
const (
	KindOverlay = "overlay"
	KindBind    = "bind"
)

// TreeState is the authoritative record of what a tree build mounted.
type TreeState struct {
	// Root is the directory the tree was built on
	Root string `json:"root"`

	// ModuleRoots is the ordered list of module layers
	ModuleRoots []string `json:"moduleRoots"`

	// UpperDir and WorkDir are set when the root overlay was writable
	UpperDir string `json:"upperDir,omitempty"`
	WorkDir  string `json:"workDir,omitempty"`

	// Mounts is the ledger in mount order; the root overlay comes first
	Mounts []MountRecord `json:"mounts"`

	// Masked lists child mount points deliberately left unmounted
	Masked []string `json:"masked,omitempty"`

	// BuiltAt is when the build completed
	BuiltAt time.Time `json:"builtAt"`
}

// MountRecord describes a single mount performed during a build.
type MountRecord struct {
	// Path is the mount point
	Path string `json:"path"`

	// Kind is "overlay" or "bind"
	Kind string `json:"kind"`

	// Lowerdir is the overlay lowerdir, stock layer named by its mount
	// point (overlay only)
	Lowerdir string `json:"lowerdir,omitempty"`

	// Source is the bind source as it was named before the build (bind only)
	Source string `json:"source,omitempty"`

	// Fallback is set when a bind replaced a failed nested overlay
	Fallback bool `json:"fallback,omitempty"`
}

// NewTreeState creates an empty TreeState for root.
func NewTreeState(root string, moduleRoots []string) *TreeState {
	return &TreeState{
		Root:        root,
		ModuleRoots: moduleRoots,
		Mounts:      []MountRecord{},
	}
}

// Record appends a mount to the ledger.
func (s *TreeState) Record(rec MountRecord) {
	s.Mounts = append(s.Mounts, rec)
}

// Reversed returns the ledger in unmount order.
func (s *TreeState) Reversed() []MountRecord {
	out := make([]MountRecord, len(s.Mounts))
	for i, rec := range s.Mounts {
		out[len(s.Mounts)-1-i] = rec
	}
	return out
}
