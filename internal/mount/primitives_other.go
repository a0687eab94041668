//go:build !linux

package mount

// MountExt4 is unsupported off Linux.
func (m *Mounter) MountExt4(source, target string) error { return ErrUnsupported }

// MountOverlay is unsupported off Linux.
func (m *Mounter) MountOverlay(lowers []string, lowest, upper, work, dest string) error {
	return ErrUnsupported
}

// MountTmpfs is unsupported off Linux.
func (m *Mounter) MountTmpfs(dest string) error { return ErrUnsupported }

// MountDevpts is unsupported off Linux.
func (m *Mounter) MountDevpts(dest string) error { return ErrUnsupported }

// BindMount is unsupported off Linux.
func (m *Mounter) BindMount(from, to string) error { return ErrUnsupported }

// UnmountPath is unsupported off Linux.
func (m *Mounter) UnmountPath(path string) error { return ErrUnsupported }

// Detach is unsupported off Linux.
func (m *Mounter) Detach(path string) error { return ErrUnsupported }
