//go:build linux

package loop

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

func detectPattern() string {
	if _, err := os.Stat(fmt.Sprintf(AndroidDevicePattern, 0)); err == nil {
		return AndroidDevicePattern
	}
	return DefaultDevicePattern
}

// attachOnce asks the control device for a free index and binds backing to it.
func (a *Allocator) attachOnce(backing string) (string, error) {
	ctl, err := unix.Open(a.control, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", a.control, err)
	}
	defer func() {
		_ = unix.Close(ctl)
	}()

	idx, err := unix.IoctlRetInt(ctl, unix.LOOP_CTL_GET_FREE)
	if err != nil {
		return "", fmt.Errorf("failed to find a free loop device: %w", err)
	}
	dev := fmt.Sprintf(a.pattern, idx)

	var flags uint32
	file, err := os.OpenFile(backing, os.O_RDWR, 0)
	if err != nil {
		// Fall back to a read-only attachment for read-only images.
		file, err = os.OpenFile(backing, os.O_RDONLY, 0)
		if err != nil {
			return "", fmt.Errorf("failed to open backing file: %w", err)
		}
		flags |= unix.LO_FLAGS_READ_ONLY
	}
	defer func() {
		_ = file.Close()
	}()

	devFd, err := unix.Open(dev, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", dev, err)
	}
	defer func() {
		_ = unix.Close(devFd)
	}()

	cfg := unix.LoopConfig{
		Fd: uint32(file.Fd()),
		Info: unix.LoopInfo64{
			Flags: flags,
		},
	}
	copy(cfg.Info.File_name[:len(cfg.Info.File_name)-1], backing)

	err = unix.IoctlLoopConfigure(devFd, &cfg)
	if errors.Is(err, unix.EBUSY) {
		return "", fmt.Errorf("%w: %s", ErrDeviceBusy, dev)
	}
	if err != nil {
		// LOOP_CONFIGURE needs Linux 5.8.
		a.log.WithFields(logrus.Fields{"device": dev}).WithError(err).Debug("LOOP_CONFIGURE failed, using LOOP_SET_FD")
		if err := unix.IoctlSetInt(devFd, unix.LOOP_SET_FD, int(file.Fd())); err != nil {
			if errors.Is(err, unix.EBUSY) {
				return "", fmt.Errorf("%w: %s", ErrDeviceBusy, dev)
			}
			return "", fmt.Errorf("failed to attach %s to %s: %w", backing, dev, err)
		}
		if err := unix.IoctlLoopSetStatus64(devFd, &cfg.Info); err != nil {
			_ = unix.IoctlSetInt(devFd, unix.LOOP_CLR_FD, 0)
			return "", fmt.Errorf("failed to configure %s: %w", dev, err)
		}
	}

	a.log.WithFields(logrus.Fields{"backing": backing, "device": dev}).Info("attached loop device")
	return dev, nil
}
