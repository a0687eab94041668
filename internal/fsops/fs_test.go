package fsops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProbe(t *testing.T) {
	fs := NewRealFS()
	tmpDir := t.TempDir()

	dir := filepath.Join(tmpDir, "dir")
	file := filepath.Join(tmpDir, "file")
	dirLink := filepath.Join(tmpDir, "dir-link")
	dangling := filepath.Join(tmpDir, "dangling")

	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := os.Symlink(dir, dirLink); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(tmpDir, "nowhere"), dangling); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	tests := []struct {
		name string
		path string
		want Kind
	}{
		{"directory", dir, KindDir},
		{"regular file", file, KindOther},
		{"symlink to directory", dirLink, KindDir},
		{"dangling symlink", dangling, KindMissing},
		{"missing", filepath.Join(tmpDir, "missing"), KindMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Probe(fs, tt.path); got != tt.want {
				t.Errorf("Probe(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestKind_Exists(t *testing.T) {
	if KindMissing.Exists() {
		t.Error("KindMissing.Exists() = true, want false")
	}
	if !KindDir.Exists() || !KindOther.Exists() {
		t.Error("expected KindDir and KindOther to exist")
	}
}

func TestRealFS_AtomicWrite(t *testing.T) {
	fs := NewRealFS()
	tmpDir := t.TempDir()

	t.Run("creates parent directories", func(t *testing.T) {
		target := filepath.Join(tmpDir, "a", "b", "state.json")
		if err := fs.AtomicWrite(target, []byte(`{"ok":true}`), 0600); err != nil {
			t.Fatalf("AtomicWrite() error = %v", err)
		}
		data, err := os.ReadFile(target)
		if err != nil {
			t.Fatalf("failed to read written file: %v", err)
		}
		if string(data) != `{"ok":true}` {
			t.Errorf("content = %q, want %q", data, `{"ok":true}`)
		}
		info, err := os.Stat(target)
		if err != nil {
			t.Fatalf("failed to stat written file: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("mode = %o, want %o", info.Mode().Perm(), 0600)
		}
	})

	t.Run("replaces existing content without leftovers", func(t *testing.T) {
		target := filepath.Join(tmpDir, "replace.json")
		if err := fs.AtomicWrite(target, []byte("one"), 0644); err != nil {
			t.Fatalf("AtomicWrite() error = %v", err)
		}
		if err := fs.AtomicWrite(target, []byte("two"), 0644); err != nil {
			t.Fatalf("AtomicWrite() error = %v", err)
		}
		data, _ := os.ReadFile(target)
		if string(data) != "two" {
			t.Errorf("content = %q, want %q", data, "two")
		}
		matches, _ := filepath.Glob(filepath.Join(tmpDir, ".modoverlay-tmp-*"))
		if len(matches) != 0 {
			t.Errorf("temp files left behind: %v", matches)
		}
	})
}
