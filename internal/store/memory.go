package store

import (
	"sync"

	"github.com/goofcode/just-start-server/internal/shared/types"
)

// MemStore is an in-memory Accessor for tests. It records detached ids so
// pruning behavior can be asserted.
type MemStore struct {
	mu       sync.Mutex
	apps     []types.AppConfig
	Detached []string
	Writes   int

	// Failure injection
	ReadErr   error
	WriteErr  error
	DetachErr error
}

// NewMemStore creates an in-memory store seeded with the given records.
func NewMemStore(apps ...types.AppConfig) *MemStore {
	m := &MemStore{}
	for _, a := range apps {
		m.apps = append(m.apps, *a.Clone())
	}
	return m
}

// ReadConfigFile returns a copy of the current document.
func (m *MemStore) ReadConfigFile() (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}

	out := make([]types.AppConfig, len(m.apps))
	for i := range m.apps {
		out[i] = *m.apps[i].Clone()
	}
	return &File{Apps: out}, nil
}

// WriteConfigApplications upserts the given records by id.
func (m *MemStore) WriteConfigApplications(configs []types.AppConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}

	m.Writes++
	m.apps = upsert(m.apps, configs)
	return nil
}

// DetachConfigApplication removes one record by id.
func (m *MemStore) DetachConfigApplication(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DetachErr != nil {
		return m.DetachErr
	}

	m.Detached = append(m.Detached, id)
	kept := m.apps[:0]
	for _, app := range m.apps {
		if app.ID != id {
			kept = append(kept, app)
		}
	}
	m.apps = kept
	return nil
}

// Records returns a snapshot of the stored records.
func (m *MemStore) Records() []types.AppConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.AppConfig, len(m.apps))
	for i := range m.apps {
		out[i] = *m.apps[i].Clone()
	}
	return out
}
