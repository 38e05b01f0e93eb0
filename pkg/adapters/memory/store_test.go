package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	state := domain.NewState(domain.RootID)
	state.Style["color"] = "red"
	snap := domain.Snapshot{"a": {ID: "a", CompKey: "Button", State: state}}
	require.NoError(t, store.Save(ctx, "p", snap))

	state.Style["color"] = "blue"
	loaded, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "red", loaded["a"].State.Style["color"])

	loaded["a"].State.Style["color"] = "green"
	again, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "red", again["a"].State.Style["color"])
}
