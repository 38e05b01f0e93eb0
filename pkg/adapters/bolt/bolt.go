// Package bolt implements the canopy ports on a single bbolt file.
// It suits single-node deployments that need the log to survive restarts.
package bolt

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	bbolt "go.etcd.io/bbolt"
)

var (
	eventsBucket    = []byte("events")
	snapshotsBucket = []byte("snapshots")
)

// DB wraps the bbolt file shared by the event log and the snapshot store.
type DB struct {
	db     *bbolt.DB
	logger *slog.Logger
}

// Option configures the DB.
type Option func(*DB)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *DB) {
		d.logger = logger
	}
}

// Open opens (or creates) the database file and its buckets.
func Open(path string, opts ...Option) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt file %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{eventsBucket, snapshotsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	d := &DB{db: db, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Close releases the file lock.
func (d *DB) Close() error {
	return d.db.Close()
}
