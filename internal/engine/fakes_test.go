package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/moby/sys/mountinfo"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/danieljhkim/modoverlay/internal/fsops/fsopstest"
	"github.com/danieljhkim/modoverlay/internal/mount"
	"github.com/danieljhkim/modoverlay/internal/state"
)

// fakeMounter records every primitive call as a string and fails the calls
// listed in fail.
type fakeMounter struct {
	calls []string
	fail  map[string]error
}

func newFakeMounter() *fakeMounter {
	return &fakeMounter{fail: make(map[string]error)}
}

func (f *fakeMounter) record(call string) error {
	f.calls = append(f.calls, call)
	return f.fail[call]
}

func (f *fakeMounter) MountOverlay(lowers []string, lowest, upper, work, dest string) error {
	call := fmt.Sprintf("overlay %s -> %s", mount.LowerDir(lowers, lowest), dest)
	if upper != "" || work != "" {
		call += fmt.Sprintf(" (upper=%s work=%s)", upper, work)
	}
	return f.record(call)
}

func (f *fakeMounter) BindMount(from, to string) error {
	return f.record(fmt.Sprintf("bind %s -> %s", from, to))
}

func (f *fakeMounter) UnmountPath(path string) error {
	return f.record("umount " + path)
}

func (f *fakeMounter) Detach(path string) error {
	return f.record("detach " + path)
}

// fakeTable is a mount table listing fixed mount points.
type fakeTable struct {
	points []string
	err    error
}

func (t *fakeTable) Mounts(filter mountinfo.FilterFunc) ([]*mountinfo.Info, error) {
	if t.err != nil {
		return nil, t.err
	}
	var out []*mountinfo.Info
	for _, p := range t.points {
		info := &mountinfo.Info{Mountpoint: p}
		if filter != nil {
			if skip, _ := filter(info); skip {
				continue
			}
		}
		out = append(out, info)
	}
	return out, nil
}

type testEnv struct {
	engine  *Engine
	mounter *fakeMounter
	table   *fakeTable
	fs      *fsopstest.MemFS
	states  *state.FileStateStore
	hook    *logtest.Hook
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestEnv returns an engine over an in-memory /system with module roots
// /data/m1 and /data/m2 and the given child mounts.
func newTestEnv(t *testing.T, children ...string) *testEnv {
	t.Helper()
	fs := fsopstest.NewMemFS()
	fs.AddDir("/system", "/data/m1", "/data/m2", "/state")
	for _, c := range children {
		fs.AddDir(c)
	}

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	env := &testEnv{
		mounter: newFakeMounter(),
		table:   &fakeTable{points: append([]string{"/", "/system"}, children...)},
		fs:      fs,
		states:  state.NewFileStateStore(fs, "/state/trees"),
		hook:    hook,
	}
	env.engine = New(env.mounter, env.table, fs, env.states, logger)
	env.engine.now = func() time.Time { return testNow }
	return env
}

func systemRequest() *TreeRequest {
	return &TreeRequest{
		Root:        "/system",
		ModuleRoots: []string{"/data/m1", "/data/m2"},
	}
}
