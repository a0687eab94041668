//go:build linux

package mount

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// fakeNamespace records every call and fails the ones named in failures.
type fakeNamespace struct {
	calls    []string
	failures map[string]error
	nextFd   int
	open     map[int]bool
	configs  map[int][]string
}

func newFakeNamespace() *fakeNamespace {
	return &fakeNamespace{
		failures: make(map[string]error),
		nextFd:   100,
		open:     make(map[int]bool),
		configs:  make(map[int][]string),
	}
}

func (f *fakeNamespace) fail(call string, err error) {
	f.failures[call] = err
}

func (f *fakeNamespace) record(call string) error {
	f.calls = append(f.calls, call)
	name := call
	if i := strings.IndexByte(call, ' '); i > 0 {
		name = call[:i]
	}
	if err, ok := f.failures[call]; ok {
		return err
	}
	return f.failures[name]
}

func (f *fakeNamespace) fd() int {
	f.nextFd++
	f.open[f.nextFd] = true
	return f.nextFd
}

func (f *fakeNamespace) Fsopen(fsName string, flags int) (int, error) {
	if err := f.record("fsopen " + fsName); err != nil {
		return -1, err
	}
	return f.fd(), nil
}

func (f *fakeNamespace) FsconfigSetString(fd int, key, value string) error {
	f.configs[fd] = append(f.configs[fd], key+"="+value)
	return f.record("fsconfig " + key + "=" + value)
}

func (f *fakeNamespace) FsconfigSetFlag(fd int, key string) error {
	f.configs[fd] = append(f.configs[fd], key)
	return f.record("fsconfig " + key)
}

func (f *fakeNamespace) FsconfigCreate(fd int) error {
	return f.record("fsconfig_create")
}

func (f *fakeNamespace) Fsmount(fd int, flags, attrs int) (int, error) {
	if err := f.record("fsmount"); err != nil {
		return -1, err
	}
	return f.fd(), nil
}

func (f *fakeNamespace) MoveMount(fromDirfd int, fromPath string, toDirfd int, toPath string, flags int) error {
	return f.record("move_mount " + toPath)
}

func (f *fakeNamespace) OpenTree(dirfd int, path string, flags uint) (int, error) {
	if flags&unix.OPEN_TREE_CLONE == 0 || flags&unix.AT_RECURSIVE == 0 {
		return -1, fmt.Errorf("open_tree without clone|recursive")
	}
	if err := f.record("open_tree " + path); err != nil {
		return -1, err
	}
	return f.fd(), nil
}

func (f *fakeNamespace) Mount(source, target, fstype string, flags uintptr, data string) error {
	return f.record(fmt.Sprintf("mount %s %s %s %#x %s", source, target, fstype, flags, data))
}

func (f *fakeNamespace) Unmount(target string, flags int) error {
	return f.record(fmt.Sprintf("umount %s %#x", target, flags))
}

func (f *fakeNamespace) Close(fd int) error {
	delete(f.open, fd)
	return nil
}

// fakeLoops hands out sequential loop devices.
type fakeLoops struct {
	attached []string
	err      error
}

func (l *fakeLoops) Attach(backing string) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	l.attached = append(l.attached, backing)
	return fmt.Sprintf("/dev/block/loop%d", len(l.attached)-1), nil
}
