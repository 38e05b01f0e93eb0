// Package redis implements the canopy ports on top of Redis.
//
// Events live in a single stream, snapshots are JSON values indexed by a sorted
// set, and locks use SET NX with a checked release.
package redis

import (
	"log/slog"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "canopy:"

// Option configures the Redis adapters.
type Option func(*config)

type config struct {
	prefix string
	ttl    time.Duration
	block  time.Duration
	logger *slog.Logger
}

func newConfig(opts []Option) config {
	c := config{
		prefix: DefaultPrefix,
		block:  time.Second,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithTTL sets the expiration for snapshots.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

// WithBlock sets how long a live subscription waits on XREAD before polling
// its context again.
func WithBlock(d time.Duration) Option {
	return func(c *config) {
		c.block = d
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// NewClient opens a client for the given address.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}
