package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
	bbolt "go.etcd.io/bbolt"
)

// Store implements ports.SnapshotStore on the snapshots bucket.
type Store struct {
	d *DB
}

// Store returns the snapshot store backed by this database.
func (d *DB) Store() *Store {
	return &Store{d: d}
}

// Save persists the snapshot as JSON under the project key.
func (s *Store) Save(ctx context.Context, project string, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(snapshotsBucket).Put([]byte(project), data)
	})
}

// Load retrieves the snapshot for a project.
func (s *Store) Load(ctx context.Context, project string) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	err := s.d.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(snapshotsBucket).Get([]byte(project))
		if data == nil {
			return domain.ErrSnapshotNotFound
		}
		return json.Unmarshal(data, &snapshot)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, project string) error {
	return s.d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(snapshotsBucket).Delete([]byte(project))
	})
}

// List returns the stored projects in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var out []string
	err := s.d.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(snapshotsBucket).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}
