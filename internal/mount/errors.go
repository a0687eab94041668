package mount

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceMissing indicates the backing file of an ext4 image is absent.
	// It is only ever logged; the mount proceeds and fails at loop attach.
	ErrSourceMissing = errors.New("backing file missing")

	// ErrLoopAttach indicates no loop device could be attached to a backing file.
	ErrLoopAttach = errors.New("loop attach failed")

	// ErrMountFailed indicates every mount strategy for an operation failed.
	ErrMountFailed = errors.New("mount failed")

	// ErrUnmount indicates an unmount was rejected by the kernel.
	ErrUnmount = errors.New("unmount failed")

	// ErrUnsupported indicates the platform offers neither mount API.
	ErrUnsupported = fmt.Errorf("mount api unavailable on this platform: %w", errors.ErrUnsupported)
)
