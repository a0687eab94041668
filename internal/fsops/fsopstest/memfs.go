// Package fsopstest provides in-memory implementations of fsops.FS and
// fsops.DirHandle for tests.
package fsopstest

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/danieljhkim/modoverlay/internal/fsops"
)

// MemFS is an in-memory fsops.FS. Paths are stored cleaned; parents are not
// created implicitly.
type MemFS struct {
	mu    sync.Mutex
	kinds map[string]fsops.Kind
	modes map[string]os.FileMode
	files map[string][]byte
	dirs  map[string]*MemDir

	// OpenDirErr, when set, is returned by OpenDir.
	OpenDirErr error
	// WriteErr, when set, is returned by AtomicWrite.
	WriteErr error
	// HandlePrefix, when set, replaces the root in Path of handles opened by
	// OpenDir, the way a descriptor path would.
	HandlePrefix string
}

// NewMemFS returns an empty MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		kinds: make(map[string]fsops.Kind),
		modes: make(map[string]os.FileMode),
		files: make(map[string][]byte),
		dirs:  make(map[string]*MemDir),
	}
}

// AddDir records path (and each of its parents) as a directory.
func (m *MemFS) AddDir(paths ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		for p = filepath.Clean(p); ; p = filepath.Dir(p) {
			m.kinds[p] = fsops.KindDir
			if p == "/" || p == "." {
				break
			}
		}
	}
}

// AddFile records path as a regular file with the given mode.
func (m *MemFS) AddFile(path string, mode os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.kinds[path] = fsops.KindOther
	m.modes[path] = mode
}

// Kind returns what path is recorded as.
func (m *MemFS) Kind(path string) fsops.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kinds[filepath.Clean(path)]
}

// Dir returns the handle most recently opened on path, if any.
func (m *MemFS) Dir(path string) *MemDir {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirs[filepath.Clean(path)]
}

func (m *MemFS) info(path string) (os.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	switch m.kinds[path] {
	case fsops.KindDir:
		return fileInfo{name: filepath.Base(path), mode: fs.ModeDir | 0755}, nil
	case fsops.KindOther:
		return fileInfo{name: filepath.Base(path), mode: m.modes[path], size: int64(len(m.files[path]))}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
}

func (m *MemFS) Stat(path string) (os.FileInfo, error) { return m.info(path) }

func (m *MemFS) MkdirAll(path string, perm os.FileMode) error {
	m.AddDir(path)
	return nil
}

func (m *MemFS) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if _, ok := m.kinds[path]; !ok {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	delete(m.kinds, path)
	delete(m.files, path)
	delete(m.modes, path)
	return nil
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	data, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (m *MemFS) ReadDir(path string) ([]os.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if m.kinds[path] != fsops.KindDir {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fs.ErrNotExist}
	}
	var entries []os.DirEntry
	for p, k := range m.kinds {
		if p == path || filepath.Dir(p) != path {
			continue
		}
		info := fileInfo{name: filepath.Base(p), mode: m.modes[p]}
		if k == fsops.KindDir {
			info.mode = fs.ModeDir | 0755
		}
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *MemFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.AddDir(filepath.Dir(path))
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.kinds[path] = fsops.KindOther
	m.modes[path] = perm
	m.files[path] = append([]byte(nil), data...)
	return nil
}

// OpenDir returns a MemDir that reads through m.
func (m *MemFS) OpenDir(path string) (fsops.DirHandle, error) {
	if m.OpenDirErr != nil {
		return nil, m.OpenDirErr
	}
	path = filepath.Clean(path)
	if m.Kind(path) != fsops.KindDir {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	d := &MemDir{fs: m, root: path, alias: m.HandlePrefix}
	m.mu.Lock()
	m.dirs[path] = d
	m.mu.Unlock()
	return d, nil
}

// MemDir is an fsops.DirHandle over a MemFS subtree. Unless its MemFS has a
// HandlePrefix, Path returns plain joined paths so tests can assert on them
// directly.
type MemDir struct {
	fs     *MemFS
	root   string
	alias  string
	closed bool
}

// NewMemDir returns a handle on root backed by m without recording it.
func NewMemDir(m *MemFS, root string) *MemDir {
	return &MemDir{fs: m, root: filepath.Clean(root)}
}

func (d *MemDir) Root() string { return d.root }

func (d *MemDir) Probe(rel string) fsops.Kind {
	return d.fs.Kind(join(d.root, rel))
}

func (d *MemDir) Path(rel string) string {
	if d.alias != "" {
		return join(d.alias, rel)
	}
	return join(d.root, rel)
}

func join(base, rel string) string {
	rel = strings.TrimPrefix(filepath.Clean("/"+rel), "/")
	if rel == "" {
		return base
	}
	return filepath.Join(base, rel)
}

func (d *MemDir) Close() error {
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *MemDir) Closed() bool { return d.closed }

type fileInfo struct {
	name string
	mode os.FileMode
	size int64
}

func (f fileInfo) Name() string       { return f.name }
func (f fileInfo) Size() int64        { return f.size }
func (f fileInfo) Mode() os.FileMode  { return f.mode }
func (f fileInfo) ModTime() time.Time { return time.Time{} }
func (f fileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fileInfo) Sys() any           { return nil }
