package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/adapters/bolt"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/adapters/kafka"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Backend bundles the ports selected by the settings file.
type Backend struct {
	Log       ports.EventLog
	IDs       ports.IDSource
	Snapshots ports.SnapshotStore
	// Locker is nil unless a distributed backend is configured.
	Locker ports.DistributedLocker

	closers []func() error
}

// Close releases every connection opened by BuildBackend.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// BuildBackend wires the event log, ID source and snapshot store named in cfg.
func BuildBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b := &Backend{}
	var (
		rdb    *backend.Client
		boltDB *bolt.DB
	)
	redisClient := func() (*backend.Client, error) {
		if rdb != nil {
			return rdb, nil
		}
		rdb = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		b.closers = append(b.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		return rdb, nil
	}
	boltFile := func() (*bolt.DB, error) {
		if boltDB != nil {
			return boltDB, nil
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Bolt.Path), 0o755); err != nil {
			return nil, err
		}
		db, err := bolt.Open(cfg.Bolt.Path, bolt.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		boltDB = db
		b.closers = append(b.closers, db.Close)
		return db, nil
	}

	fail := func(err error) (*Backend, error) {
		_ = b.Close()
		return nil, err
	}

	switch cfg.Backend {
	case "memory":
		b.Log = memory.NewEventLog()
		b.IDs = memory.NewIDSource()
	case "redis":
		client, err := redisClient()
		if err != nil {
			return fail(err)
		}
		b.Log = redis.NewEventLog(client, redis.WithPrefix(cfg.Redis.Prefix), redis.WithLogger(logger))
		b.IDs = redis.NewIDSource(client, redis.WithPrefix(cfg.Redis.Prefix))
		b.Locker = redis.NewLocker(client, cfg.Redis.Prefix)
	case "bolt":
		db, err := boltFile()
		if err != nil {
			return fail(err)
		}
		b.Log = db.EventLog()
		b.IDs = memory.NewIDSource()
	case "kafka":
		log, err := kafka.NewEventLog(cfg.Kafka, kafka.WithLogger(logger))
		if err != nil {
			return fail(err)
		}
		b.Log = log
		b.IDs = memory.NewIDSource()
	}

	switch cfg.SnapshotKind() {
	case "memory":
		b.Snapshots = memory.NewStore()
	case "redis":
		client, err := redisClient()
		if err != nil {
			return fail(err)
		}
		b.Snapshots = redis.NewStore(client, redis.WithPrefix(cfg.Redis.Prefix), redis.WithTTL(cfg.Redis.SnapshotTTL))
		if b.Locker == nil {
			b.Locker = redis.NewLocker(client, cfg.Redis.Prefix)
		}
	case "bolt":
		db, err := boltFile()
		if err != nil {
			return fail(err)
		}
		b.Snapshots = db.Store()
	case "file":
		b.Snapshots = file.New(cfg.File.Dir)
	}

	if err := b.protect(cfg.Protect); err != nil {
		return fail(err)
	}

	logger.Debug("Backend ready", "backend", cfg.Backend, "snapshots", cfg.SnapshotKind())
	return b, nil
}

// protect wraps the snapshot store with the configured redaction and encryption.
// Redaction runs first so masked values are what gets encrypted.
func (b *Backend) protect(cfg config.ProtectConfig) error {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.Redact)
		if err != nil {
			return err
		}
		mws = append(mws, mw)
	}

	active, fallbacks, err := cfg.EncryptionKeys()
	if err != nil {
		return err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallbacks})
		if err != nil {
			return err
		}
		mws = append(mws, mw)
	}

	b.Snapshots = middleware.Chain(b.Snapshots, mws...)
	return nil
}
