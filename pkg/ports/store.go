package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// SnapshotStore persists materialized design trees.
type SnapshotStore interface {
	// Save persists the snapshot for a given project.
	Save(ctx context.Context, project string, snapshot domain.Snapshot) error

	// Load retrieves the snapshot for a given project.
	// Returns domain.ErrSnapshotNotFound if nothing was saved.
	Load(ctx context.Context, project string) (domain.Snapshot, error)

	// Delete removes the snapshot for a given project.
	Delete(ctx context.Context, project string) error

	// List returns the projects that have a snapshot.
	List(ctx context.Context) ([]string, error)
}
