package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCorrupt marks a state file that exists but does not parse as a
// TrialState. Callers must treat it as fatal rather than starting fresh:
// silently discarding a corrupt store would erase audit history.
var ErrCorrupt = errors.New("corrupt trial state")

// FileStore persists the TrialState aggregate as a single JSON document.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: ExpandHome(path)}
}

// Path returns the resolved state file location.
func (fs *FileStore) Path() string {
	return fs.path
}

// Load reads the persisted state. A missing file yields (nil, nil) so the
// caller can distinguish "fresh session" from a corrupt store, which
// returns ErrCorrupt.
func (fs *FileStore) Load() (*TrialState, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var st TrialState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, fs.path, err)
	}
	if st.WitnessCredibility == nil {
		st.WitnessCredibility = make(map[string]int)
	}
	if st.SurfacedExhibits == nil {
		st.SurfacedExhibits = make(map[string]bool)
	}
	if st.TopicPressure == nil {
		st.TopicPressure = make(map[string]int)
	}
	return &st, nil
}

// Save writes the state atomically: marshal to a temp file in the same
// directory, then rename over the target. A crash mid-write leaves the
// previous state file intact and never exposes a partial document.
func (fs *FileStore) Save(st *TrialState) error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gavel-state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state: %w", err)
	}

	if err := os.Rename(tmpPath, fs.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// ExpandHome resolves a leading ~/ against the user home directory.
func ExpandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
