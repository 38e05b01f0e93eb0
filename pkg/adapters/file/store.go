// Package file stores snapshots as JSON documents on the local filesystem.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// DefaultDir is where snapshots go when no directory is configured.
var DefaultDir = filepath.Join(".canopy", "snapshots")

// Store implements ports.SnapshotStore using one JSON file per project.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath, or at DefaultDir when empty.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

func (f *Store) path(project string) (string, error) {
	if project == "" {
		return "", errors.New("project cannot be empty")
	}
	if strings.ContainsAny(project, `/\`) || project == "." || project == ".." {
		return "", fmt.Errorf("invalid project name %q", project)
	}
	return filepath.Join(f.BasePath, project+".json"), nil
}

// Save writes the snapshot through a temporary file and a rename.
func (f *Store) Save(ctx context.Context, project string, snapshot domain.Snapshot) error {
	path, err := f.path(project)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(f.BasePath, project+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a snapshot file.
func (f *Store) Load(ctx context.Context, project string) (domain.Snapshot, error) {
	path, err := f.path(project)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}

// Delete removes the snapshot file. Deleting a missing project is not an error.
func (f *Store) Delete(ctx context.Context, project string) error {
	path, err := f.path(project)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// List returns the projects with a snapshot file.
func (f *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			projects = append(projects, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	return projects, nil
}
