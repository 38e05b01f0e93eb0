package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	project := "contract-test-project-" + time.Now().Format("20060102150405")

	sample := func() domain.Snapshot {
		box := domain.NewState(domain.RootID)
		box.Style["width"] = "100px"
		label := domain.NewState("box")
		label.Properties["text"] = "hello"
		label.Alias = "Greeting"
		return domain.Snapshot{
			"box":   {ID: "box", CompKey: "Container", Pkg: domain.DefaultPkg, State: box},
			"label": {ID: "label", CompKey: "Text", Pkg: domain.DefaultPkg, State: label},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, project, sample())
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, project)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, 2)
		assert.Equal(t, "box", loaded["label"].State.Parent)
		assert.Equal(t, "Greeting", loaded["label"].State.Alias)
		assert.Equal(t, "hello", loaded["label"].State.Properties["text"])
		assert.Equal(t, "100px", loaded["box"].State.Style["width"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+project)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, project, sample())
		require.NoError(t, err)

		err = store.Delete(ctx, project)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, project)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := project + "-1"
		id2 := project + "-2"
		_ = store.Save(ctx, id1, sample())
		_ = store.Save(ctx, id2, sample())
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		projects, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, projects, id1)
		assert.Contains(t, projects, id2)
	})
}
