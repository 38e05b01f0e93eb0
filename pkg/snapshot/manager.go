package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed project lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// ErrLogNotEmpty is returned by Restore when the target log already has events.
var ErrLogNotEmpty = errors.New("event log is not empty")

// Source is anything that can produce a materialized tree, such as design.Runtime.
type Source interface {
	State() domain.Snapshot
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates snapshot access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(project) after unlocking.
func (m *Manager) acquire(project string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[project]
	if !exists {
		entry = &lockEntry{}
		m.locks[project] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(project string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[project]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, project)
	}
}

// Capture saves the current tree of src under project.
func (m *Manager) Capture(ctx context.Context, project string, src Source) error {
	snap := src.State()
	return m.WithLock(ctx, project, func(ctx context.Context) error {
		if err := m.store.Save(ctx, project, snap); err != nil {
			return fmt.Errorf("failed to capture %s: %w", project, err)
		}
		m.logger.Debug("Snapshot captured", "project", project, "elements", len(snap))
		return nil
	})
}

// Load retrieves a snapshot.
func (m *Manager) Load(ctx context.Context, project string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := m.WithLock(ctx, project, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, project)
		return err
	})
	return snap, err
}

// Save persists a snapshot.
func (m *Manager) Save(ctx context.Context, project string, snap domain.Snapshot) error {
	return m.WithLock(ctx, project, func(ctx context.Context) error {
		return m.store.Save(ctx, project, snap)
	})
}

// Delete removes a snapshot.
func (m *Manager) Delete(ctx context.Context, project string) error {
	return m.WithLock(ctx, project, func(ctx context.Context) error {
		return m.store.Delete(ctx, project)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// Restore replays a saved snapshot into an empty log as CREATE events.
func (m *Manager) Restore(ctx context.Context, project string, log ports.EventLog) ([]domain.Record, error) {
	var out []domain.Record
	err := m.WithLock(ctx, project, func(ctx context.Context) error {
		existing, err := log.Fetch(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("restoring %s: %w (%d events)", project, ErrLogNotEmpty, len(existing))
		}

		snap, err := m.store.Load(ctx, project)
		if err != nil {
			return err
		}
		events, err := Events(snap)
		if err != nil {
			return fmt.Errorf("restoring %s: %w", project, err)
		}
		out, err = log.Append(ctx, events...)
		return err
	})
	return out, err
}

// WithLock executes fn while holding the lock for the project.
func (m *Manager) WithLock(ctx context.Context, project string, fn func(context.Context) error) error {
	entry := m.acquire(project)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(project)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, project, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"project", project,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
