package bolt_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/bolt"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T, path string) *bolt.DB {
	t.Helper()
	db, err := bolt.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBoltEventLog_Contract(t *testing.T) {
	tests.EventLogContractTest(t, func(t *testing.T) ports.EventLog {
		return openDB(t, filepath.Join(t.TempDir(), "canopy.db")).EventLog()
	})
}

func TestBoltStore_Contract(t *testing.T) {
	db := openDB(t, filepath.Join(t.TempDir(), "canopy.db"))
	ports.RunSnapshotStoreContract(t, db.Store())
}

func TestBoltEventLog_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopy.db")
	ctx := context.Background()

	db, err := bolt.Open(path)
	require.NoError(t, err)
	state := domain.NewState(domain.RootID)
	_, err = db.EventLog().Append(ctx,
		domain.NewCreateEvent(domain.CreateData{ID: "a", CompKey: "Text", Pkg: domain.DefaultPkg, State: &state}),
		domain.NewPatchEvent("a", domain.StylePatch(map[string]any{"top": "3px"})),
	)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	records, err := openDB(t, path).EventLog().Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].Seq)
	assert.Equal(t, "2", records[1].Seq)
	assert.Equal(t, domain.EventPatch, records[1].Event.Type)
}

func TestBoltEventLog_InvalidCursor(t *testing.T) {
	log := openDB(t, filepath.Join(t.TempDir(), "canopy.db")).EventLog()
	_, err := log.Subscribe(context.Background(), "abc")
	assert.Error(t, err)
}
