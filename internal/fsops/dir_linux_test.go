//go:build linux

package fsops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHostDir_ResolvesOriginalDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "root")
	if err := os.MkdirAll(filepath.Join(root, "vendor"), 0755); err != nil {
		t.Fatalf("failed to create stock tree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "build.prop"), []byte("stock"), 0644); err != nil {
		t.Fatalf("failed to write stock file: %v", err)
	}

	handle, err := OpenDir(root)
	if err != nil {
		t.Fatalf("OpenDir() error = %v", err)
	}
	defer func() {
		_ = handle.Close()
	}()

	// Replace the path with unrelated content; the handle must not follow.
	if err := os.Rename(root, filepath.Join(tmpDir, "moved")); err != nil {
		t.Fatalf("failed to move root: %v", err)
	}
	if err := os.Mkdir(root, 0755); err != nil {
		t.Fatalf("failed to recreate root: %v", err)
	}

	if got := handle.Probe("/vendor"); got != KindDir {
		t.Errorf("Probe(/vendor) = %v, want %v", got, KindDir)
	}
	if got := handle.Probe("/build.prop"); got != KindOther {
		t.Errorf("Probe(/build.prop) = %v, want %v", got, KindOther)
	}
	if got := handle.Probe("/"); got != KindDir {
		t.Errorf("Probe(/) = %v, want %v", got, KindDir)
	}

	data, err := os.ReadFile(handle.Path("/build.prop"))
	if err != nil {
		t.Fatalf("failed to read through handle path: %v", err)
	}
	if string(data) != "stock" {
		t.Errorf("content = %q, want %q", data, "stock")
	}
	if handle.Root() != root {
		t.Errorf("Root() = %q, want %q", handle.Root(), root)
	}
}

func TestRelName(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"/", "."},
		{"", "."},
		{"/vendor", "vendor"},
		{"vendor/app", "vendor/app"},
		{"/vendor/../odm", "odm"},
	}
	for _, tt := range tests {
		if got := relName(tt.rel); got != tt.want {
			t.Errorf("relName(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}
