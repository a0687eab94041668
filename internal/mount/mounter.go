// Package mount provides the mount primitives modoverlay composes: ext4 images
// over loop devices, overlayfs, tmpfs, devpts and recursive bind mounts.
//
// Every primitive first tries the fs-context mount API (fsopen, fsconfig,
// fsmount, move_mount, open_tree) and falls back to the legacy mount(2) call.
// Only the failure of both is reported, as a *StrategyError wrapping
// ErrMountFailed.
package mount

import (
	"errors"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/modoverlay/internal/fsops"
)

const (
	// DefaultSource is the source name shown for overlay, tmpfs and devpts mounts.
	DefaultSource = "modoverlay"

	// PtsName is the directory mountTmpfs creates its devpts instance in.
	PtsName = "pts"
)

// LoopAttacher attaches a backing file to a free loop device.
type LoopAttacher interface {
	// Attach returns the device path the file is now attached to.
	Attach(backing string) (string, error)
}

// Mounter performs mount primitives against a Namespace.
type Mounter struct {
	ns     Namespace
	loops  LoopAttacher
	fs     fsops.FS
	log    logrus.FieldLogger
	source string
}

// New creates a Mounter. An empty source selects DefaultSource.
func New(ns Namespace, loops LoopAttacher, fs fsops.FS, log logrus.FieldLogger, source string) *Mounter {
	if source == "" {
		source = DefaultSource
	}
	return &Mounter{
		ns:     ns,
		loops:  loops,
		fs:     fs,
		log:    log,
		source: source,
	}
}

// LowerDir joins lowers (highest priority first) and lowest into an overlay
// lowerdir option value.
func LowerDir(lowers []string, lowest string) string {
	all := make([]string, 0, len(lowers)+1)
	all = append(all, lowers...)
	all = append(all, lowest)
	return strings.Join(all, ":")
}

// upperWork returns upper and work when both exist, and empty strings otherwise.
func (m *Mounter) upperWork(upper, work string) (string, string) {
	if upper == "" && work == "" {
		return "", ""
	}
	upperOK := upper != "" && m.exists(upper)
	workOK := work != "" && m.exists(work)
	if upperOK && workOK {
		return upper, work
	}
	m.log.WithFields(logrus.Fields{
		"upperdir": upper,
		"workdir":  work,
	}).Warn("upperdir or workdir missing, mounting overlay read-only")
	return "", ""
}

func (m *Mounter) exists(path string) bool {
	return fsops.Probe(m.fs, path).Exists()
}

// inspectSource logs diagnostics about an image before it is attached.
// A missing image is not an error here; the loop attach reports it.
func (m *Mounter) inspectSource(source string) {
	info, err := m.fs.Stat(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.log.WithField("source", source).Warn(ErrSourceMissing.Error())
		}
		return
	}
	mode := info.Mode().Perm()
	if mode&0222 == 0 {
		m.log.WithField("source", source).Infof("image is read-only, permissions %o", mode)
	}
}
