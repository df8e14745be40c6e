package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Asgard118/ayon-dependencies-tool/internal/fsops"
)

// Store persists lock state per bundle and platform.
type Store interface {
	// Load returns the lock for the given bundle and platform.
	// Returns os.ErrNotExist if none has been written yet.
	Load(bundle, platform string) (*LockState, error)

	// Save writes the lock atomically.
	Save(lock *LockState) error

	// Delete removes the lock file.
	Delete(bundle, platform string) error
}

// FileStore implements Store using JSON files on disk, one per
// bundle/platform pair.
type FileStore struct {
	fs  fsops.FS
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(fs fsops.FS, dir string) *FileStore {
	return &FileStore{fs: fs, dir: dir}
}

func (s *FileStore) path(bundle, platform string) string {
	return filepath.Join(s.dir, sanitize(bundle)+"_"+sanitize(platform)+".json")
}

// sanitize keeps lock filenames safe regardless of what the bundle is called.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

// Load returns the lock for the given bundle and platform.
func (s *FileStore) Load(bundle, platform string) (*LockState, error) {
	data, err := s.fs.ReadFile(s.path(bundle, platform))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read lock state: %w", err)
	}

	var lock LockState
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lock state: %w", err)
	}
	return &lock, nil
}

// Save writes the lock atomically.
func (s *FileStore) Save(lock *LockState) error {
	lock.Sort()
	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock state: %w", err)
	}
	if err := s.fs.AtomicWrite(s.path(lock.Bundle, lock.Platform), data, 0644); err != nil {
		return fmt.Errorf("failed to write lock state: %w", err)
	}
	return nil
}

// Delete removes the lock file.
func (s *FileStore) Delete(bundle, platform string) error {
	if err := s.fs.Remove(s.path(bundle, platform)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete lock state: %w", err)
	}
	return nil
}
