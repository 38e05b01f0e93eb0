package memory

import (
	"context"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Snapshot),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, project string, snapshot domain.Snapshot) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := cloneSnapshot(snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[project] = copied
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, project string) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.data[project]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}

	// Copy on read so the caller can't mutate stored elements through shared maps
	return cloneSnapshot(snapshot), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, project string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, project)
	return nil
}

// List returns the projects with a stored snapshot.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]string, 0, len(s.data))
	for id := range s.data {
		projects = append(projects, id)
	}
	return projects, nil
}

func cloneSnapshot(in domain.Snapshot) domain.Snapshot {
	out := make(domain.Snapshot, len(in))
	for id, el := range in {
		out[id] = el.Clone()
	}
	return out
}
