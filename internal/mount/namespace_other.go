//go:build !linux

package mount

// HostNamespace rejects every call off Linux.
type HostNamespace struct{}

// NewHostNamespace returns a namespace whose every call fails with ErrUnsupported.
func NewHostNamespace() *HostNamespace {
	return &HostNamespace{}
}

func (HostNamespace) Fsopen(string, int) (int, error)                     { return -1, ErrUnsupported }
func (HostNamespace) FsconfigSetString(int, string, string) error         { return ErrUnsupported }
func (HostNamespace) FsconfigSetFlag(int, string) error                   { return ErrUnsupported }
func (HostNamespace) FsconfigCreate(int) error                            { return ErrUnsupported }
func (HostNamespace) Fsmount(int, int, int) (int, error)                  { return -1, ErrUnsupported }
func (HostNamespace) MoveMount(int, string, int, string, int) error       { return ErrUnsupported }
func (HostNamespace) OpenTree(int, string, uint) (int, error)             { return -1, ErrUnsupported }
func (HostNamespace) Mount(string, string, string, uintptr, string) error { return ErrUnsupported }
func (HostNamespace) Unmount(string, int) error                           { return ErrUnsupported }
func (HostNamespace) Close(int) error                                     { return ErrUnsupported }
