package state

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// ComputeTreeID computes a stable ID for the tree built on root. Equivalent
// spellings of the same path yield the same ID.
func ComputeTreeID(root string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(root)))
	return hex.EncodeToString(hash[:16])
}
