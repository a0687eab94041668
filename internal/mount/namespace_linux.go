//go:build linux

package mount

import "golang.org/x/sys/unix"

// HostNamespace issues real syscalls against the calling process's mount
// namespace.
type HostNamespace struct{}

// NewHostNamespace returns the namespace of the current process.
func NewHostNamespace() *HostNamespace {
	return &HostNamespace{}
}

func (HostNamespace) Fsopen(fsName string, flags int) (int, error) {
	return unix.Fsopen(fsName, flags)
}

func (HostNamespace) FsconfigSetString(fd int, key, value string) error {
	return unix.FsconfigSetString(fd, key, value)
}

func (HostNamespace) FsconfigSetFlag(fd int, key string) error {
	return unix.FsconfigSetFlag(fd, key)
}

func (HostNamespace) FsconfigCreate(fd int) error {
	return unix.FsconfigCreate(fd)
}

func (HostNamespace) Fsmount(fd int, flags, attrs int) (int, error) {
	return unix.Fsmount(fd, flags, attrs)
}

func (HostNamespace) MoveMount(fromDirfd int, fromPath string, toDirfd int, toPath string, flags int) error {
	return unix.MoveMount(fromDirfd, fromPath, toDirfd, toPath, flags)
}

func (HostNamespace) OpenTree(dirfd int, path string, flags uint) (int, error) {
	return unix.OpenTree(dirfd, path, flags)
}

func (HostNamespace) Mount(source, target, fstype string, flags uintptr, data string) error {
	return unix.Mount(source, target, fstype, flags, data)
}

func (HostNamespace) Unmount(target string, flags int) error {
	return unix.Unmount(target, flags)
}

func (HostNamespace) Close(fd int) error {
	return unix.Close(fd)
}
