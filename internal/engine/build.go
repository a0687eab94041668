package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/modoverlay/internal/fsops"
	"github.com/danieljhkim/modoverlay/internal/mounttable"
	"github.com/danieljhkim/modoverlay/internal/planner"
	"github.com/danieljhkim/modoverlay/internal/state"
)

// Algorithm steps:
// 1. Validate the request and refuse a root that already has a recorded tree
// 2. Open a handle on the stock root (before anything is mounted over it)
// 3. Snapshot child mounts under the root
// 4. Plan every child
// 5. Mount the root overlay (if not DryRun)
// 6. Replay the plan; on a hard failure unwind the ledger and return
// 7. Persist the ledger
//
// ctx is consulted once, before the first mount. After that the build runs
// to completion or to a rolled-back failure.
func (e *Engine) BuildOverlayTree(ctx context.Context, req *TreeRequest) (*TreeResult, error) {
	if err := validateTreeRequest(req); err != nil {
		return nil, err
	}
	root := filepath.Clean(req.Root)
	log := e.log.WithField("target", root)
	log.Infof("mount overlay for %s", root)

	if _, err := e.states.LoadTree(root); err == nil {
		return nil, fmt.Errorf("%w: %s, tear it down first", ErrTreeExists, root)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to check recorded tree on %s: %w", root, err)
	}

	stock, err := e.fs.OpenDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open stock root %s: %w", root, err)
	}
	defer func() { _ = stock.Close() }()

	points, err := mounttable.Snapshot(e.table, root)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot mounts under %s: %w", root, err)
	}

	plan, err := planner.BuildTreePlan(req.ModuleRoots, points, stock, e.fs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	result := &TreeResult{Plan: plan}
	if req.DryRun {
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree := state.NewTreeState(root, req.ModuleRoots)
	if fsops.Probe(e.fs, req.UpperDir).Exists() && fsops.Probe(e.fs, req.WorkDir).Exists() {
		tree.UpperDir, tree.WorkDir = req.UpperDir, req.WorkDir
	}

	if err := e.mounter.MountOverlay(req.ModuleRoots, root, req.UpperDir, req.WorkDir, root); err != nil {
		return nil, fmt.Errorf("failed to mount root overlay on %s: %w", root, err)
	}
	tree.Record(state.MountRecord{Path: root, Kind: state.KindOverlay, Lowerdir: plan.RootLowerdir()})

	for _, op := range plan.Children {
		fallback, err := e.executeChild(log.WithField("child", op.MountPoint), tree, op)
		if err != nil {
			return nil, e.rollback(log, tree, fmt.Errorf("failed to mount child %s: %w", op.MountPoint, err))
		}
		if fallback {
			result.Fallbacks = append(result.Fallbacks, op.MountPoint)
		}
	}

	tree.BuiltAt = e.now()
	result.Tree = tree
	if err := e.states.SaveTree(tree); err != nil {
		log.WithError(err).Warn("failed to record tree state, teardown will not find it")
		result.StateErr = err
	}

	log.WithField("children", plan.Summary()).Info("overlay tree mounted")
	return result, nil
}

// executeChild performs one planned child op and records what it mounted.
// It reports whether a nested overlay degraded to a bind mount.
func (e *Engine) executeChild(log logrus.FieldLogger, tree *state.TreeState, op planner.ChildOp) (bool, error) {
	switch op.Action {
	case planner.ActionPassthrough:
		if err := e.mounter.BindMount(op.Stock, op.MountPoint); err != nil {
			return false, err
		}
		tree.Record(state.MountRecord{Path: op.MountPoint, Kind: state.KindBind, Source: op.MountPoint})

	case planner.ActionOverlay:
		err := e.mounter.MountOverlay(op.Lowers, op.Stock, "", "", op.MountPoint)
		if err == nil {
			tree.Record(state.MountRecord{Path: op.MountPoint, Kind: state.KindOverlay, Lowerdir: op.Lowerdir()})
			return false, nil
		}
		log.WithError(err).Warn("nested overlay failed, fallback to bind mount")
		if err := e.mounter.BindMount(op.Stock, op.MountPoint); err != nil {
			return false, err
		}
		tree.Record(state.MountRecord{Path: op.MountPoint, Kind: state.KindBind, Source: op.MountPoint, Fallback: true})
		return true, nil

	case planner.ActionMask:
		log.WithField("entry", op.MaskedBy).Info("child masked by module entry")
		tree.Masked = append(tree.Masked, op.MountPoint)

	case planner.ActionSkip:
		log.Debug("stock content vanished, skipping child")

	case planner.ActionUntouched:
		log.Debug("no module layers for child, leaving it untouched")

	default:
		return false, fmt.Errorf("unknown child action: %s", op.Action)
	}
	return false, nil
}

// rollback unwinds every mount recorded in tree, newest first, and returns
// cause joined with any unwind failure.
func (e *Engine) rollback(log logrus.FieldLogger, tree *state.TreeState, cause error) error {
	log.WithError(cause).Warn("tree build failed, rolling back")

	var errs []error
	for _, rec := range tree.Reversed() {
		var err error
		if rec.Path == tree.Root {
			err = e.mounter.UnmountPath(rec.Path)
		} else {
			err = e.mounter.Detach(rec.Path)
		}
		if err != nil {
			log.WithField("child", rec.Path).WithError(err).Error("rollback unmount failed")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(cause, fmt.Errorf("%w: %w", ErrRollback, errors.Join(errs...)))
	}
	return cause
}

func validateTreeRequest(req *TreeRequest) error {
	if req == nil {
		return fmt.Errorf("%w: nil request", ErrValidation)
	}
	if req.Root == "" || !filepath.IsAbs(req.Root) {
		return fmt.Errorf("%w: root must be an absolute path, got %q", ErrValidation, req.Root)
	}
	for _, m := range req.ModuleRoots {
		if !filepath.IsAbs(m) {
			return fmt.Errorf("%w: module root must be an absolute path, got %q", ErrValidation, m)
		}
	}
	return nil
}
