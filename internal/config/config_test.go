package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testPaths(t *testing.T) *Paths {
	t.Helper()
	root := t.TempDir()
	return &Paths{
		Root:    root,
		Modules: filepath.Join(root, "modules"),
		State:   filepath.Join(root, "state"),
		Lock:    filepath.Join(root, "lock"),
		Config:  filepath.Join(root, "config.toml"),
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MODOVERLAY_LOG_LEVEL", "")
	paths := testPaths(t)

	cfg, err := Load(paths)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(paths), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv("MODOVERLAY_LOG_LEVEL", "")
	paths := testPaths(t)
	data := `
partitions = ["system", "vendor"]
modules_dir = "/data/adb/modules"
upper_dir = "/data/adb/upper"
work_dir = "/data/adb/work"
source_name = "APatch"
log_level = "debug"
`
	if err := os.WriteFile(paths.Config, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(paths)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := &Config{
		Partitions: []string{"system", "vendor"},
		ModulesDir: "/data/adb/modules",
		UpperDir:   "/data/adb/upper",
		WorkDir:    "/data/adb/work",
		SourceName: "APatch",
		LogLevel:   "debug",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverridesLogLevel(t *testing.T) {
	paths := testPaths(t)
	if err := os.WriteFile(paths.Config, []byte(`log_level = "warn"`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MODOVERLAY_LOG_LEVEL", "trace")

	cfg, err := Load(paths)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "trace" {
		t.Errorf("LogLevel = %s, want trace", cfg.LogLevel)
	}
}

func TestLoad_EmptyPartitionsFallBack(t *testing.T) {
	t.Setenv("MODOVERLAY_LOG_LEVEL", "")
	paths := testPaths(t)
	if err := os.WriteFile(paths.Config, []byte(`partitions = []`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(paths)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(DefaultPartitions, cfg.Partitions); diff != "" {
		t.Errorf("Partitions mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"malformed", `partitions = [`, "failed to read config"},
		{"unknown key", `lowerdir = "/x"`, "unknown config key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := testPaths(t)
			if err := os.WriteFile(paths.Config, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(paths)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
