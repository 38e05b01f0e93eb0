package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/bolt"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

// boltProject writes a settings file pointing at a seeded bolt log.
func boltProject(t *testing.T, events ...domain.Event) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "canopy.db")

	db, err := bolt.Open(dbPath)
	require.NoError(t, err)
	if len(events) > 0 {
		_, err = db.EventLog().Append(context.Background(), events...)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	cfgPath := filepath.Join(dir, "canopy.yaml")
	cfg := "backend: bolt\nlog_level: error\nbolt:\n  path: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath
}

func TestVersionCommand(t *testing.T) {
	out := run(t, "version")
	assert.True(t, strings.HasPrefix(out, "canopy version "))
}

func TestCatalogCommand(t *testing.T) {
	out := run(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "catalog", "-f", "json")

	var cats []domain.Category
	require.NoError(t, json.Unmarshal([]byte(out), &cats))
	require.NotEmpty(t, cats)
	assert.Equal(t, "Basic", cats[0].Name)
}

func TestStateAndSnapshotCommands(t *testing.T) {
	cfg := boltProject(t,
		domain.NewCreateEvent(domain.CreateData{ID: "box", CompKey: "Container"}),
		domain.NewCreateEvent(domain.CreateData{ID: "btn", CompKey: "Button", State: &domain.State{Parent: "box"}}),
	)

	out := run(t, "--config", cfg, "state", "-f", "json")
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap, 2)
	assert.Equal(t, "box", snap["btn"].State.Parent)

	out = run(t, "--config", cfg, "state", "-f", "mermaid")
	assert.Contains(t, out, "box --> btn")

	out = run(t, "--config", cfg, "snapshot", "ls")
	assert.Contains(t, out, "No snapshots found.")

	out = run(t, "--config", cfg, "snapshot", "capture", "landing")
	assert.Contains(t, out, "Captured 2 element(s) into 'landing'")

	out = run(t, "--config", cfg, "snapshot", "ls")
	assert.Contains(t, out, "- landing")

	out = run(t, "--config", cfg, "snapshot", "inspect", "landing", "-f", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Len(t, snap, 2)

	out = run(t, "--config", cfg, "snapshot", "rm", "landing")
	assert.Contains(t, out, "Removed snapshot 'landing'")
}

func TestSnapshotRestoreCommand(t *testing.T) {
	source := boltProject(t,
		domain.NewCreateEvent(domain.CreateData{ID: "box", CompKey: "Container"}),
	)
	run(t, "--config", source, "snapshot", "capture", "p")
	out := run(t, "--config", source, "snapshot", "inspect", "p", "-f", "json")

	target := boltProject(t)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))

	// Stores live in each bolt file, so copy the snapshot across first.
	db, err := bolt.Open(boltPath(t, target))
	require.NoError(t, err)
	require.NoError(t, db.Store().Save(context.Background(), "p", snap))
	require.NoError(t, db.Close())

	out = run(t, "--config", target, "snapshot", "restore", "p")
	assert.Contains(t, out, "Restored 1 event(s) from 'p'")

	out = run(t, "--config", target, "events")
	assert.Contains(t, out, `"type":"CREATE"`)
	assert.Contains(t, out, `"ID":"box"`)
}

func boltPath(t *testing.T, cfgPath string) string {
	t.Helper()
	return filepath.Join(filepath.Dir(cfgPath), "canopy.db")
}
