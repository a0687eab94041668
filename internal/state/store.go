package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danieljhkim/modoverlay/internal/fsops"
)

// StateStore provides an interface for persisting tree state.
type StateStore interface {
	// LoadTree loads the state of the tree built on root.
	// Returns os.ErrNotExist if the state doesn't exist.
	LoadTree(root string) (*TreeState, error)

	// SaveTree saves the tree state atomically.
	SaveTree(state *TreeState) error

	// DeleteTree deletes the state of the tree built on root.
	DeleteTree(root string) error

	// ListTrees returns every recorded tree, sorted by root.
	ListTrees() ([]*TreeState, error)
}

// FileStateStore implements StateStore using JSON files on disk.
type FileStateStore struct {
	fs       fsops.FS
	treesDir string
}

// NewFileStateStore creates a new FileStateStore.
func NewFileStateStore(fs fsops.FS, treesDir string) *FileStateStore {
	return &FileStateStore{
		fs:       fs,
		treesDir: treesDir,
	}
}

func (s *FileStateStore) path(root string) string {
	return filepath.Join(s.treesDir, ComputeTreeID(root)+".json")
}

// LoadTree loads the state of the tree built on root.
func (s *FileStateStore) LoadTree(root string) (*TreeState, error) {
	return s.load(s.path(root))
}

func (s *FileStateStore) load(path string) (*TreeState, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read tree state: %w", err)
	}

	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree state: %w", err)
	}

	return &state, nil
}

// SaveTree saves the tree state atomically.
func (s *FileStateStore) SaveTree(state *TreeState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tree state: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path(state.Root), data, 0644); err != nil {
		return fmt.Errorf("failed to write tree state: %w", err)
	}

	return nil
}

// DeleteTree deletes the state of the tree built on root.
func (s *FileStateStore) DeleteTree(root string) error {
	if err := s.fs.Remove(s.path(root)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete tree state: %w", err)
	}

	return nil
}

// ListTrees returns every recorded tree, sorted by root.
func (s *FileStateStore) ListTrees() ([]*TreeState, error) {
	entries, err := s.fs.ReadDir(s.treesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list tree states: %w", err)
	}

	var trees []*TreeState
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		state, err := s.load(filepath.Join(s.treesDir, e.Name()))
		if err != nil {
			return nil, err
		}
		trees = append(trees, state)
	}

	sort.Slice(trees, func(i, j int) bool { return trees[i].Root < trees[j].Root })
	return trees, nil
}
