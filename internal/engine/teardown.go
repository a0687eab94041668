package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/modoverlay/internal/mounttable"
	"github.com/danieljhkim/modoverlay/internal/state"
)

// Teardown detaches every mount recorded for the tree on root, newest first,
// and forgets the tree once all of them are gone. Mounts that fail to detach
// keep the record so teardown can be retried.
func (e *Engine) Teardown(ctx context.Context, root string) (*TeardownResult, error) {
	root = filepath.Clean(root)
	tree, err := e.states.LoadTree(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no tree recorded for %s", ErrNotFound, root)
		}
		return nil, fmt.Errorf("failed to load tree state: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := e.log.WithField("target", root)
	result := &TeardownResult{Root: root}
	var remaining []state.MountRecord
	var errs []error
	for _, rec := range tree.Reversed() {
		if err := e.mounter.Detach(rec.Path); err != nil {
			log.WithField("child", rec.Path).WithError(err).Warn("failed to detach")
			remaining = append([]state.MountRecord{rec}, remaining...)
			errs = append(errs, err)
			continue
		}
		result.Unmounted = append(result.Unmounted, rec.Path)
	}

	if len(errs) > 0 {
		tree.Mounts = remaining
		if err := e.states.SaveTree(tree); err != nil {
			errs = append(errs, fmt.Errorf("failed to save tree state: %w", err))
		}
		return result, fmt.Errorf("failed to tear down %s: %w", root, errors.Join(errs...))
	}

	if err := e.states.DeleteTree(root); err != nil {
		return result, err
	}
	log.Info("overlay tree removed")
	return result, nil
}

// Status returns every recorded tree.
func (e *Engine) Status() ([]*state.TreeState, error) {
	trees, err := e.states.ListTrees()
	if err != nil {
		return nil, fmt.Errorf("failed to list trees: %w", err)
	}
	return trees, nil
}

// Mounts returns the live mount points strictly under root.
func (e *Engine) Mounts(root string) ([]string, error) {
	return mounttable.Snapshot(e.table, root)
}
