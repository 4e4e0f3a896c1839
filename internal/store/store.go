// Package store persists the timer state as a JSON snapshot in the
// XDG data directory, written atomically so a crash never leaves a
// half-written file behind.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoState is returned by Load when no snapshot exists on disk.
var ErrNoState = errors.New("no persisted state")

// ErrCorrupted is returned by Load when the snapshot exists but cannot
// be parsed. The caller falls back to a fresh idle state.
var ErrCorrupted = errors.New("persisted state corrupted")

// StateStore persists a Snapshot to disk.
type StateStore interface {
	Save(s *Snapshot) error
	Load() (*Snapshot, error) // returns ErrNoState if none exists
	Delete() error
}

// diskStore is the concrete StateStore that writes to the XDG data
// directory.
type diskStore struct {
	path string // full path to state.json
}

// NewStateStore returns a StateStore backed by the XDG data directory.
// Path: $XDG_DATA_HOME/tomatod/state.json or ~/.local/share/tomatod/state.json
func NewStateStore() (StateStore, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskStore{path: filepath.Join(dir, "state.json")}, nil
}

// dataDir returns the tomatod-specific XDG data directory.
func dataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "tomatod"), nil
}

// Save marshals s to JSON and writes it atomically via a temp file +
// os.Rename.
func (d *diskStore) Save(s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to persist timer state: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(d.path), "state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist timer state: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist timer state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist timer state: %w", err)
	}

	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to persist timer state: %w", err)
	}
	return nil
}

// Load reads and unmarshals the state file. Returns ErrNoState if the
// file does not exist and ErrCorrupted if it cannot be parsed; neither
// is fatal to the daemon.
func (d *diskStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read timer state: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return &s, nil
}

// Delete removes the state file from disk.
func (d *diskStore) Delete() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete timer state: %w", err)
	}
	return nil
}
