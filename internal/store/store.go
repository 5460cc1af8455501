// Package store persists per-application configuration records.
//
// The registry only depends on the Accessor contract; FileStore is the
// YAML-file implementation used in production and MemStore backs tests.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/goofcode/just-start-server/internal/shared/apperr"
	"github.com/goofcode/just-start-server/internal/shared/types"
)

// File is the persisted document shape: an ordered list of records.
type File struct {
	Apps []types.AppConfig `yaml:"apps"`
}

// Accessor is the configuration persistence contract.
//
// WriteConfigApplications replaces the persisted record for each given id
// and appends records with unknown ids; records not named are left alone.
// DetachConfigApplication removes one record by id and is a no-op when the
// id is absent.
type Accessor interface {
	ReadConfigFile() (*File, error)
	WriteConfigApplications(configs []types.AppConfig) error
	DetachConfigApplication(id string) error
}

// FileStore persists records in a YAML file under the workspace.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// ReadConfigFile loads the full persisted document. A missing file is an
// empty document, not an error.
func (s *FileStore) ReadConfigFile() (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) read() (*File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, s.path), err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.New(apperr.InvalidInternalResource, s.path), err)
	}
	return &f, nil
}

// WriteConfigApplications upserts the given records by id, preserving the
// order of records already in the file and appending new ids in the order
// given.
func (s *FileStore) WriteConfigApplications(configs []types.AppConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}

	f.Apps = upsert(f.Apps, configs)
	return s.write(f)
}

// DetachConfigApplication removes one record by id.
func (s *FileStore) DetachConfigApplication(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}

	kept := f.Apps[:0]
	for _, app := range f.Apps {
		if app.ID != id {
			kept = append(kept, app)
		}
	}
	f.Apps = kept
	return s.write(f)
}

// write marshals and atomically replaces the backing file.
func (s *FileStore) write(f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.New(apperr.FatalFailure, "encoding config"), err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, filepath.Dir(s.path)), err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, tmp), err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, s.path), err)
	}
	return nil
}

func upsert(existing, incoming []types.AppConfig) []types.AppConfig {
	out := make([]types.AppConfig, len(existing))
	copy(out, existing)

	for _, cfg := range incoming {
		replaced := false
		for i := range out {
			if out[i].ID == cfg.ID {
				out[i] = *cfg.Clone()
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, *cfg.Clone())
		}
	}
	return out
}
