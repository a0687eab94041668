package engine

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildSystemTree(t *testing.T, env *testEnv) {
	t.Helper()
	if _, err := env.engine.BuildOverlayTree(context.Background(), systemRequest()); err != nil {
		t.Fatalf("BuildOverlayTree() error = %v", err)
	}
	env.mounter.calls = nil
}

func TestTeardown(t *testing.T) {
	env := newTestEnv(t, "/system/odm", "/system/vendor")
	buildSystemTree(t, env)

	result, err := env.engine.Teardown(context.Background(), "/system/")
	if err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}

	want := []string{"detach /system/vendor", "detach /system/odm", "detach /system"}
	if diff := cmp.Diff(want, env.mounter.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/system/vendor", "/system/odm", "/system"}, result.Unmounted); diff != "" {
		t.Errorf("Unmounted mismatch (-want +got):\n%s", diff)
	}
	if _, err := env.states.LoadTree("/system"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadTree() after teardown error = %v, want os.ErrNotExist", err)
	}
}

func TestTeardown_AllowsRebuild(t *testing.T) {
	env := newTestEnv(t, "/system/vendor")
	buildSystemTree(t, env)

	if _, err := env.engine.Teardown(context.Background(), "/system"); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}
	buildSystemTree(t, env)
}

func TestTeardown_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Teardown(context.Background(), "/system")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Teardown() error = %v, want ErrNotFound", err)
	}
}

func TestTeardown_PartialFailureKeepsRemaining(t *testing.T) {
	env := newTestEnv(t, "/system/odm", "/system/vendor")
	buildSystemTree(t, env)
	env.mounter.fail["detach /system"] = syscall.EINVAL

	_, err := env.engine.Teardown(context.Background(), "/system")
	if !errors.Is(err, syscall.EINVAL) {
		t.Fatalf("Teardown() error = %v, want EINVAL", err)
	}

	tree, err := env.states.LoadTree("/system")
	if err != nil {
		t.Fatalf("LoadTree() error = %v", err)
	}
	if len(tree.Mounts) != 1 || tree.Mounts[0].Path != "/system" {
		t.Errorf("remaining ledger = %+v, want only the root", tree.Mounts)
	}

	delete(env.mounter.fail, "detach /system")
	env.mounter.calls = nil
	if _, err := env.engine.Teardown(context.Background(), "/system"); err != nil {
		t.Fatalf("retry Teardown() error = %v", err)
	}
	if diff := cmp.Diff([]string{"detach /system"}, env.mounter.calls); diff != "" {
		t.Errorf("retry calls mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusAndMounts(t *testing.T) {
	env := newTestEnv(t, "/system/vendor")
	buildSystemTree(t, env)

	trees, err := env.engine.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(trees) != 1 || trees[0].Root != "/system" {
		t.Errorf("Status() = %+v, want the /system tree", trees)
	}

	points, err := env.engine.Mounts("/system")
	if err != nil {
		t.Fatalf("Mounts() error = %v", err)
	}
	if diff := cmp.Diff([]string{"/system/vendor"}, points); diff != "" {
		t.Errorf("Mounts() mismatch (-want +got):\n%s", diff)
	}
}
