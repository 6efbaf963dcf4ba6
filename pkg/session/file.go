package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/erdflow/pkg/errors"
)

// FileStore keeps session snapshots as JSON files in a directory, so that
// a server can carry its sessions over a restart.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a snapshot store.
// If baseDir is empty, defaults to ~/.config/erdflow/sessions/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "get home dir")
		}
		baseDir = filepath.Join(home, ".config", "erdflow", "sessions")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create session dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) snapshotPath(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID+".json")
}

// Load reads the snapshot of a session.
func (s *FileStore) Load(_ context.Context, sessionID string) (Snapshot, error) {
	if err := ValidateID(sessionID); err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.snapshotPath(sessionID))
}

func (s *FileStore) read(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, notFound(strings.TrimSuffix(filepath.Base(path), ".json"))
		}
		return Snapshot{}, errors.Wrap(errors.ErrCodeInternal, err, "read session file")
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse session")
	}
	return snap, nil
}

// Save writes a snapshot, replacing an older one of the same session.
func (s *FileStore) Save(_ context.Context, snap Snapshot) error {
	if err := ValidateID(snap.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal session")
	}

	path := s.snapshotPath(snap.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write session file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, err, "write session file")
	}
	return nil
}

// Delete removes a snapshot. Missing snapshots are ignored.
func (s *FileStore) Delete(_ context.Context, sessionID string) error {
	if err := ValidateID(sessionID); err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.snapshotPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInternal, err, "remove session file")
	}
	return nil
}

// List returns every readable snapshot, oldest first. Unreadable files are
// skipped.
func (s *FileStore) List(_ context.Context) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read session dir")
	}

	var snaps []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		snap, err := s.read(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CreatedAt.Before(snaps[j].CreatedAt) })
	return snaps, nil
}

// Path returns the base directory for snapshot files.
func (s *FileStore) Path() string {
	return s.baseDir
}
