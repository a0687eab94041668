// Package planner handles the planning phase of overlay tree builds.
//
// The planner decides, before anything is mounted, what happens to every
// mount that already exists under the root being patched. Plans are
// deterministic: the same module roots, snapshot and stock tree always yield
// the same ordered list of child operations.
//
// Key responsibilities:
//   - Build the root overlay's lower-layer list (modules first, stock last)
//   - Classify each pre-existing child mount as passthrough, overlay, mask,
//     skip or untouched
//   - Resolve stock content through a directory handle opened before mutation
package planner
