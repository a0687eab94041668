//go:build linux

package mount

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// fsOption is a single fsconfig call.
type fsOption struct {
	key   string
	value string
	flag  bool
}

// contextMount creates a filesystem context, configures it, and grafts the
// resulting mount onto target.
func (m *Mounter) contextMount(fstype string, opts []fsOption, target string) error {
	fd, err := m.ns.Fsopen(fstype, unix.FSOPEN_CLOEXEC)
	if err != nil {
		return fmt.Errorf("fsopen %s: %w", fstype, err)
	}
	defer func() {
		_ = m.ns.Close(fd)
	}()

	for _, opt := range opts {
		if opt.flag {
			err = m.ns.FsconfigSetFlag(fd, opt.key)
		} else {
			err = m.ns.FsconfigSetString(fd, opt.key, opt.value)
		}
		if err != nil {
			return fmt.Errorf("fsconfig %s: %w", opt.key, err)
		}
	}
	if err := m.ns.FsconfigCreate(fd); err != nil {
		return fmt.Errorf("fsconfig create: %w", err)
	}

	mfd, err := m.ns.Fsmount(fd, unix.FSMOUNT_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("fsmount: %w", err)
	}
	defer func() {
		_ = m.ns.Close(mfd)
	}()

	if err := m.ns.MoveMount(mfd, "", unix.AT_FDCWD, target, unix.MOVE_MOUNT_F_EMPTY_PATH); err != nil {
		return fmt.Errorf("move_mount: %w", err)
	}
	return nil
}

// MountExt4 attaches source to a loop device and mounts it as ext4 on target.
// The loop device stays attached; detaching it is the caller's concern.
func (m *Mounter) MountExt4(source, target string) error {
	dev, err := m.loops.Attach(source)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoopAttach, source, err)
	}
	m.log.WithFields(logrus.Fields{"source": source, "device": dev, "target": target}).Info("mount ext4")

	return tryStrategies(m.log, "mount ext4", target,
		strategy{"fsopen", func() error {
			return m.contextMount("ext4", []fsOption{{key: "source", value: dev}}, target)
		}},
		strategy{"mount", func() error {
			return m.ns.Mount(dev, target, "ext4", 0, "")
		}},
	)
}

// MountOverlay mounts overlayfs on dest with lowers (highest priority first)
// above lowest. upper and work are used only when both exist.
func (m *Mounter) MountOverlay(lowers []string, lowest, upper, work, dest string) error {
	lowerdir := LowerDir(lowers, lowest)
	upper, work = m.upperWork(upper, work)
	m.log.WithFields(logrus.Fields{
		"target":   dest,
		"lowerdir": lowerdir,
		"upperdir": upper,
		"workdir":  work,
	}).Info("mount overlayfs")

	opts := []fsOption{{key: "lowerdir", value: lowerdir}}
	data := "lowerdir=" + lowerdir
	if upper != "" && work != "" {
		opts = append(opts, fsOption{key: "upperdir", value: upper}, fsOption{key: "workdir", value: work})
		data += ",upperdir=" + upper + ",workdir=" + work
	}
	opts = append(opts, fsOption{key: "source", value: m.source})

	return tryStrategies(m.log, "mount overlayfs", dest,
		strategy{"fsopen", func() error {
			return m.contextMount("overlay", opts, dest)
		}},
		strategy{"mount", func() error {
			return m.ns.Mount(m.source, dest, "overlay", 0, data)
		}},
	)
}

// MountTmpfs mounts a private tmpfs on the existing directory dest, then
// tries to mount a devpts instance at dest/pts. The devpts step only logs.
func (m *Mounter) MountTmpfs(dest string) error {
	m.log.WithField("target", dest).Info("mount tmpfs")

	err := tryStrategies(m.log, "mount tmpfs", dest,
		strategy{"fsopen", func() error {
			return m.contextMount("tmpfs", []fsOption{{key: "source", value: m.source}}, dest)
		}},
		strategy{"mount", func() error {
			return m.ns.Mount(m.source, dest, "tmpfs", 0, "")
		}},
	)
	if err != nil {
		return err
	}
	if err := m.makePrivate(dest); err != nil {
		return fmt.Errorf("failed to make tmpfs private: %w", err)
	}

	if err := m.MountDevpts(filepath.Join(dest, PtsName)); err != nil {
		m.log.WithField("target", dest).WithError(err).Warn("devpts mount failed")
	}
	return nil
}

// MountDevpts creates dest if needed and mounts a private, new devpts instance on it.
func (m *Mounter) MountDevpts(dest string) error {
	if err := m.fs.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	err := tryStrategies(m.log, "mount devpts", dest,
		strategy{"fsopen", func() error {
			return m.contextMount("devpts", []fsOption{
				{key: "newinstance", flag: true},
				{key: "source", value: m.source},
			}, dest)
		}},
		strategy{"mount", func() error {
			return m.ns.Mount(m.source, dest, "devpts", 0, "newinstance")
		}},
	)
	if err != nil {
		return err
	}
	if err := m.makePrivate(dest); err != nil {
		return fmt.Errorf("failed to make devpts private: %w", err)
	}
	return nil
}

// BindMount recursively clones the mount tree at from onto to.
func (m *Mounter) BindMount(from, to string) error {
	m.log.WithFields(logrus.Fields{"source": from, "target": to}).Info("bind mount")

	return tryStrategies(m.log, "bind mount", to,
		strategy{"open_tree", func() error {
			fd, err := m.ns.OpenTree(unix.AT_FDCWD, from, unix.OPEN_TREE_CLONE|unix.OPEN_TREE_CLOEXEC|unix.AT_RECURSIVE)
			if err != nil {
				return fmt.Errorf("open_tree %s: %w", from, err)
			}
			defer func() {
				_ = m.ns.Close(fd)
			}()
			if err := m.ns.MoveMount(fd, "", unix.AT_FDCWD, to, unix.MOVE_MOUNT_F_EMPTY_PATH); err != nil {
				return fmt.Errorf("move_mount: %w", err)
			}
			return nil
		}},
		strategy{"mount", func() error {
			return m.ns.Mount(from, to, "", unix.MS_BIND|unix.MS_REC, "")
		}},
	)
}

// UnmountPath unmounts whatever is mounted at path.
func (m *Mounter) UnmountPath(path string) error {
	if err := m.ns.Unmount(path, 0); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnmount, path, err)
	}
	return nil
}

// Detach lazily unmounts path, tolerating busy references.
func (m *Mounter) Detach(path string) error {
	if err := m.ns.Unmount(path, unix.MNT_DETACH); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnmount, path, err)
	}
	return nil
}

func (m *Mounter) makePrivate(path string) error {
	return m.ns.Mount("", path, "", unix.MS_PRIVATE, "")
}
