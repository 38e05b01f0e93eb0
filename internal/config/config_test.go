package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/canopy/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "canopy.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: Redis
project: shop
redis:
  addr: cache:6379
  snapshot_ttl: 90s
kafka:
  brokers: [k1:9092, k2:9092]
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Backend)
	assert.Equal(t, "shop", cfg.Project)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "canopy:", cfg.Redis.Prefix, "unset keys keep their defaults")
	assert.Equal(t, 90*time.Second, cfg.Redis.SnapshotTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, ":8080", cfg.Listen)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.Default()
		cfg.Backend = "etcd"
		assert.ErrorContains(t, cfg.Validate(), "unknown backend")
	})

	t.Run("kafka needs brokers", func(t *testing.T) {
		cfg := config.Default()
		cfg.Backend = "kafka"
		assert.ErrorContains(t, cfg.Validate(), "broker")
		assert.Equal(t, "file", cfg.SnapshotKind())
	})

	t.Run("explicit snapshot store", func(t *testing.T) {
		cfg := config.Default()
		cfg.Snapshots = "bolt"
		cfg.Bolt.Path = ""
		assert.ErrorContains(t, cfg.Validate(), "bolt.path")
	})
}
