package engine

import "errors"

var (
	// ErrValidation indicates a request failed validation before any mount.
	ErrValidation = errors.New("validation failed")

	// ErrRollback indicates undoing a partial tree build failed.
	ErrRollback = errors.New("rollback failed")

	// ErrNotFound indicates no tree is recorded for a root.
	ErrNotFound = errors.New("not found")

	// ErrTreeExists indicates a tree is already recorded for a root.
	ErrTreeExists = errors.New("tree already built")
)
