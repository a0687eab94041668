package planner

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danieljhkim/modoverlay/internal/fsops/fsopstest"
)

func newSystemFS() *fsopstest.MemFS {
	fs := fsopstest.NewMemFS()
	fs.AddDir("/system/vendor", "/system/odm", "/data/m1", "/data/m2")
	return fs
}

func TestBuildTreePlan_VendorScenario(t *testing.T) {
	fs := newSystemFS()
	fs.AddDir("/data/m1/vendor/app")

	plan, err := BuildTreePlan(
		[]string{"/data/m1", "/data/m2"},
		[]string{"/system/vendor"},
		fsopstest.NewMemDir(fs, "/system"),
		fs,
	)
	if err != nil {
		t.Fatalf("BuildTreePlan() error = %v", err)
	}

	if got, want := plan.RootLowerdir(), "/data/m1:/data/m2:/system"; got != want {
		t.Errorf("RootLowerdir() = %q, want %q", got, want)
	}

	want := []ChildOp{{
		MountPoint: "/system/vendor",
		Relative:   "/vendor",
		Action:     ActionOverlay,
		Lowers:     []string{"/data/m1/vendor"},
		Stock:      "/system/vendor",
	}}
	if diff := cmp.Diff(want, plan.Children); diff != "" {
		t.Errorf("Children mismatch (-want +got):\n%s", diff)
	}
	if got, want := plan.Children[0].Lowerdir(), "/data/m1/vendor:/system/vendor"; got != want {
		t.Errorf("Lowerdir() = %q, want %q", got, want)
	}
}

func TestPlanChild(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*fsopstest.MemFS)
		wantAction Action
		wantLowers []string
		wantMasked string
	}{
		{
			name:       "no module entry is passthrough",
			setup:      func(*fsopstest.MemFS) {},
			wantAction: ActionPassthrough,
		},
		{
			name: "module directories layer in priority order",
			setup: func(fs *fsopstest.MemFS) {
				fs.AddDir("/data/m1/vendor", "/data/m2/vendor")
			},
			wantAction: ActionOverlay,
			wantLowers: []string{"/data/m1/vendor", "/data/m2/vendor"},
		},
		{
			name: "file in any module masks",
			setup: func(fs *fsopstest.MemFS) {
				fs.AddDir("/data/m1/vendor")
				fs.AddFile("/data/m2/vendor", 0644)
			},
			wantAction: ActionMask,
			wantMasked: "/data/m2/vendor",
		},
		{
			name: "file in highest priority module masks",
			setup: func(fs *fsopstest.MemFS) {
				fs.AddFile("/data/m1/vendor", 0644)
				fs.AddDir("/data/m2/vendor")
			},
			wantAction: ActionMask,
			wantMasked: "/data/m1/vendor",
		},
		{
			name: "vanished stock child is skipped",
			setup: func(fs *fsopstest.MemFS) {
				_ = fs.Remove("/system/vendor")
				fs.AddDir("/data/m1/vendor")
			},
			wantAction: ActionSkip,
		},
		{
			name: "non-directory stock with module entry is untouched",
			setup: func(fs *fsopstest.MemFS) {
				_ = fs.Remove("/system/vendor")
				fs.AddFile("/system/vendor", 0644)
				fs.AddDir("/data/m1/vendor")
			},
			wantAction: ActionUntouched,
		},
		{
			name: "non-directory stock without module entry is passthrough",
			setup: func(fs *fsopstest.MemFS) {
				_ = fs.Remove("/system/vendor")
				fs.AddFile("/system/vendor", 0644)
			},
			wantAction: ActionPassthrough,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newSystemFS()
			tt.setup(fs)

			op := PlanChild("/system/vendor", "/vendor", []string{"/data/m1", "/data/m2"},
				fsopstest.NewMemDir(fs, "/system"), fs)

			if op.Action != tt.wantAction {
				t.Errorf("Action = %s, want %s", op.Action, tt.wantAction)
			}
			if diff := cmp.Diff(tt.wantLowers, op.Lowers); diff != "" {
				t.Errorf("Lowers mismatch (-want +got):\n%s", diff)
			}
			if op.MaskedBy != tt.wantMasked {
				t.Errorf("MaskedBy = %q, want %q", op.MaskedBy, tt.wantMasked)
			}
			if op.Stock != "/system/vendor" {
				t.Errorf("Stock = %q, want /system/vendor", op.Stock)
			}
		})
	}
}

func TestBuildTreePlan_KeepsSnapshotOrder(t *testing.T) {
	fs := newSystemFS()
	fs.AddDir("/system/vendor/firmware", "/data/m2/vendor/firmware")

	plan, err := BuildTreePlan(
		[]string{"/data/m1", "/data/m2"},
		[]string{"/system/odm", "/system/vendor", "/system/vendor/firmware"},
		fsopstest.NewMemDir(fs, "/system"),
		fs,
	)
	if err != nil {
		t.Fatalf("BuildTreePlan() error = %v", err)
	}

	var got []string
	for _, c := range plan.Children {
		got = append(got, c.MountPoint+"="+string(c.Action))
	}
	want := []string{
		"/system/odm=passthrough",
		"/system/vendor=overlay",
		"/system/vendor/firmware=overlay",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTreePlan_InvalidInput(t *testing.T) {
	fs := newSystemFS()
	stock := fsopstest.NewMemDir(fs, "/system")

	if _, err := BuildTreePlan([]string{"/data/m1"}, []string{"/systemfoo"}, stock, fs); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("foreign mount point: error = %v, want ErrInvalidPlan", err)
	}
}

func TestBuildTreePlan_NoModuleRoots(t *testing.T) {
	fs := newSystemFS()

	plan, err := BuildTreePlan(nil, []string{"/system/odm", "/system/vendor"}, fsopstest.NewMemDir(fs, "/system"), fs)
	if err != nil {
		t.Fatalf("BuildTreePlan() error = %v", err)
	}
	if got, want := plan.RootLowerdir(), "/system"; got != want {
		t.Errorf("RootLowerdir() = %q, want %q", got, want)
	}
	if got := plan.Count(ActionPassthrough); got != 2 {
		t.Errorf("passthrough children = %d, want 2", got)
	}
}

func TestChildOp_LowerdirNamesMountPoint(t *testing.T) {
	fs := newSystemFS()
	fs.AddDir("/data/m1/vendor")
	fs.HandlePrefix = "/proc/self/fd/7"
	stock, err := fs.OpenDir("/system")
	if err != nil {
		t.Fatalf("OpenDir() error = %v", err)
	}

	plan, err := BuildTreePlan([]string{"/data/m1"}, []string{"/system/vendor"}, stock, fs)
	if err != nil {
		t.Fatalf("BuildTreePlan() error = %v", err)
	}
	op := plan.Children[0]
	if op.Action != ActionOverlay {
		t.Fatalf("Action = %s, want overlay", op.Action)
	}
	if op.Stock != "/proc/self/fd/7/vendor" {
		t.Errorf("Stock = %q, want the handle path", op.Stock)
	}
	if got, want := op.Lowerdir(), "/data/m1/vendor:/system/vendor"; got != want {
		t.Errorf("Lowerdir() = %q, want %q", got, want)
	}
}

func TestRelative(t *testing.T) {
	tests := []struct {
		root, path, want string
	}{
		{"/system", "/system/vendor", "/vendor"},
		{"/system/", "/system/vendor/firmware", "/vendor/firmware"},
		{"/", "/vendor", "/vendor"},
		{"/system", "/system", "/"},
	}
	for _, tt := range tests {
		if got := Relative(tt.root, tt.path); got != tt.want {
			t.Errorf("Relative(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}
}
