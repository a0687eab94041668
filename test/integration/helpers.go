//go:build linux

package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moby/sys/mountinfo"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/sys/unix"

	"github.com/danieljhkim/modoverlay/internal/engine"
	"github.com/danieljhkim/modoverlay/internal/fsops"
	"github.com/danieljhkim/modoverlay/internal/loop"
	"github.com/danieljhkim/modoverlay/internal/mount"
	"github.com/danieljhkim/modoverlay/internal/mounttable"
	"github.com/danieljhkim/modoverlay/internal/state"
)

type harness struct {
	base    string
	log     *logrus.Logger
	hook    *logtest.Hook
	fs      *fsops.RealFS
	mounter *mount.Mounter
	states  *state.FileStateStore
	engine  *engine.Engine
}

// newHarness mounts a private tmpfs scratch area and wires real components.
func newHarness(t *testing.T) *harness {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("requires root")
	}
	if !overlaySupported() {
		t.Skip("overlayfs not available")
	}

	base := t.TempDir()
	if err := unix.Mount("modoverlay-test", base, "tmpfs", 0, ""); err != nil {
		t.Skipf("cannot mount tmpfs: %v", err)
	}
	t.Cleanup(func() { _ = unix.Unmount(base, unix.MNT_DETACH) })
	if err := unix.Mount("", base, "", unix.MS_PRIVATE|unix.MS_REC, ""); err != nil {
		t.Fatalf("failed to make %s private: %v", base, err)
	}

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	fs := fsops.NewRealFS()
	h := &harness{
		base:   base,
		log:    logger,
		hook:   hook,
		fs:     fs,
		states: state.NewFileStateStore(fs, filepath.Join(base, "state")),
	}
	h.mounter = mount.New(mount.NewHostNamespace(), loop.NewAllocator(logger, ""), fs, logger, "")
	h.engine = engine.New(h.mounter, mounttable.HostSource{}, fs, h.states, logger)
	return h
}

func overlaySupported() bool {
	data, err := os.ReadFile("/proc/filesystems")
	return err == nil && strings.Contains(string(data), "\toverlay\n")
}

// path joins rel onto the scratch area.
func (h *harness) path(rel string) string {
	return filepath.Join(h.base, rel)
}

func (h *harness) mkdir(t *testing.T, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		if err := os.MkdirAll(h.path(rel), 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func (h *harness) write(t *testing.T, rel, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(h.path(rel)), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(h.path(rel), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(h.path(rel))
	if err != nil {
		t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data)
}

// tmpfs mounts a fresh tmpfs on rel, creating it first.
func (h *harness) tmpfs(t *testing.T, rel string) {
	t.Helper()
	h.mkdir(t, rel)
	if err := unix.Mount("modoverlay-test", h.path(rel), "tmpfs", 0, ""); err != nil {
		t.Fatalf("failed to mount tmpfs on %s: %v", rel, err)
	}
}

// mountsAt returns every mount table row whose mount point is exactly rel,
// stacked mounts included, oldest first.
func (h *harness) mountsAt(t *testing.T, rel string) []*mountinfo.Info {
	t.Helper()
	target := h.path(rel)
	infos, err := mountinfo.GetMounts(func(m *mountinfo.Info) (skip, stop bool) {
		return m.Mountpoint != target, false
	})
	if err != nil {
		t.Fatalf("failed to read mount table: %v", err)
	}
	return infos
}
