// Package checkpoint keeps the latest play snapshot on disk so a run can
// be continued after the client crashed or was closed mid-game.
package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/survivordash/dash/internal/world"
	"github.com/vmihailenco/msgpack/v5"
)

const version = 1

type record struct {
	Version  int            `msgpack:"v"`
	SavedAt  time.Time      `msgpack:"saved_at"`
	Snapshot world.Snapshot `msgpack:"snapshot"`
}

// Store reads and writes one msgpack checkpoint file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Save replaces the file atomically.
func (s *Store) Save(snap world.Snapshot) error {
	raw, err := msgpack.Marshal(&record{Version: version, SavedAt: time.Now().UTC(), Snapshot: snap})
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("checkpoint dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Load returns the stored snapshot. ok is false when no usable checkpoint
// exists; a file from another format version counts as none.
func (s *Store) Load() (snap world.Snapshot, ok bool, err error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return world.Snapshot{}, false, nil
	}
	if err != nil {
		return world.Snapshot{}, false, fmt.Errorf("read checkpoint: %w", err)
	}
	var rec record
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return world.Snapshot{}, false, fmt.Errorf("decode checkpoint %s: %w", s.path, err)
	}
	if rec.Version != version || rec.Snapshot.Empty() {
		return world.Snapshot{}, false, nil
	}
	return rec.Snapshot, true, nil
}

// Remove deletes the checkpoint. A missing file is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}
