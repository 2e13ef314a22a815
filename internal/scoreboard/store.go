// Package scoreboard keeps player profiles in memory, ranks them, and
// persists them wholesale to a single JSON file.
package scoreboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/x-yzt/psychotropic/internal/model"
)

// ScoresFile is the store's file name under the storage directory.
const ScoresFile = "scores.json"

// FileStore reads and writes the full profile mapping as one JSON
// document.
type FileStore struct {
	path string
}

// NewFileStore builds a store rooted at the given storage directory.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, ScoresFile)}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the profile mapping. A missing file is first run: parent
// directories and an empty store are created. An unrecognized profile
// shape is an error, never silently replaced with defaults.
func (s *FileStore) Load() (map[string]*model.Profile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, fmt.Errorf("creating storage dir: %w", err)
		}
		if err := os.WriteFile(s.path, []byte("{}\n"), 0o644); err != nil {
			return nil, fmt.Errorf("creating scoreboard file: %w", err)
		}
		return map[string]*model.Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading scoreboard: %w", err)
	}

	profiles := make(map[string]*model.Profile)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&profiles); err != nil {
		return nil, fmt.Errorf("decoding scoreboard: %w", err)
	}

	for id, p := range profiles {
		if p == nil {
			return nil, fmt.Errorf("scoreboard: profile %q is null", id)
		}
		if p.Balance < 0 {
			return nil, fmt.Errorf("scoreboard: profile %q has a negative balance", id)
		}
		if p.Wins == nil {
			p.Wins = make(map[string]int)
		}
		if p.Found == nil {
			p.Found = make(model.StringSet)
		}
	}
	return profiles, nil
}

// Save overwrites the store with the given mapping.
func (s *FileStore) Save(profiles map[string]*model.Profile) error {
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding scoreboard: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing scoreboard: %w", err)
	}
	return nil
}
