package mount

// Namespace is the handle on the mount namespace every primitive mutates.
// It exposes the kernel calls the primitives compose, so the same mount
// logic can run against the host or against a recording fake.
//
// The namespace is shared by the whole process. Callers must not run
// overlapping tree builds against it concurrently.
type Namespace interface {
	// Fsopen creates a filesystem context for fsName.
	Fsopen(fsName string, flags int) (int, error)

	// FsconfigSetString sets a string option on a filesystem context.
	FsconfigSetString(fd int, key, value string) error

	// FsconfigSetFlag sets a flag option on a filesystem context.
	FsconfigSetFlag(fd int, key string) error

	// FsconfigCreate materializes the superblock of a filesystem context.
	FsconfigCreate(fd int) error

	// Fsmount turns a materialized context into a detached mount.
	Fsmount(fd int, flags, attrs int) (int, error)

	// MoveMount grafts a mount handle onto a path.
	MoveMount(fromDirfd int, fromPath string, toDirfd int, toPath string, flags int) error

	// OpenTree opens (or clones) the mount tree at path.
	OpenTree(dirfd int, path string, flags uint) (int, error)

	// Mount is the legacy single-call mount.
	Mount(source, target, fstype string, flags uintptr, data string) error

	// Unmount detaches whatever is mounted at target.
	Unmount(target string, flags int) error

	// Close releases a descriptor returned by the calls above.
	Close(fd int) error
}
