// Package state manages persistence of built overlay trees.
//
// Mounts created by a tree build have no owning process once the build
// returns. The state package records every mount a successful build made,
// in the order it made them, so the tree can later be inspected or torn
// down. State is persisted as JSON files in the state directory.
//
// Key concepts:
//   - TreeState: the mount ledger of one built tree
//   - TreeID: unique identifier derived from the tree's root path
//   - MountRecord: one mount performed during the build
//   - StateStore: interface for persisting and loading tree state
package state
