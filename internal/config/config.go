// Package config loads the canopy.yaml settings file.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/kafka"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the settings file looked up when none is given.
const DefaultPath = "canopy.yaml"

// Backends lists the supported event log backends.
var Backends = []string{"memory", "redis", "bolt", "kafka"}

// Config is the full settings tree.
type Config struct {
	Listen   string `yaml:"listen"`
	Project  string `yaml:"project"`
	Catalog  string `yaml:"catalog"`
	LogLevel string `yaml:"log_level"`

	// Backend selects the event log. Snapshots selects the snapshot store and
	// defaults to the backend's own store ("file" for kafka).
	Backend   string `yaml:"backend"`
	Snapshots string `yaml:"snapshots"`

	// Encryption and redaction applied to every snapshot store.
	Protect ProtectConfig `yaml:"protect"`

	Redis RedisConfig  `yaml:"redis"`
	Bolt  BoltConfig   `yaml:"bolt"`
	Kafka kafka.Config `yaml:"kafka"`
	File  FileConfig   `yaml:"file"`
}

// ProtectConfig configures snapshot encryption and property redaction.
type ProtectConfig struct {
	// Key is a base64 AES-256 key. KeyEnv names an environment variable holding it instead.
	Key          string   `yaml:"key"`
	KeyEnv       string   `yaml:"key_env"`
	FallbackKeys []string `yaml:"fallback_keys"`
	// Redact lists regular expressions of property keys masked before saving.
	Redact []string `yaml:"redact"`
}

// EncryptionKeys decodes the active and fallback keys.
// It returns a nil active key when encryption is not configured.
func (p ProtectConfig) EncryptionKeys() ([]byte, [][]byte, error) {
	encoded := p.Key
	if p.KeyEnv != "" {
		encoded = os.Getenv(p.KeyEnv)
	}
	if encoded == "" {
		return nil, nil, nil
	}
	active, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid protect key: %w", err)
	}
	fallbacks := make([][]byte, 0, len(p.FallbackKeys))
	for i, k := range p.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	Prefix      string        `yaml:"prefix"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

// BoltConfig configures the bbolt backend.
type BoltConfig struct {
	Path string `yaml:"path"`
}

// FileConfig configures the file snapshot store.
type FileConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Listen:   ":8080",
		Project:  "default",
		LogLevel: "info",
		Backend:  "memory",
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "canopy:",
		},
		Bolt: BoltConfig{Path: filepath.Join(".canopy", "canopy.db")},
		Kafka: kafka.Config{
			Topic: "canopy-design",
		},
		File: FileConfig{Dir: filepath.Join(".canopy", "snapshots")},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return cfg, nil
}

// SnapshotKind resolves which snapshot store the settings select.
func (c Config) SnapshotKind() string {
	if c.Snapshots != "" {
		return c.Snapshots
	}
	if c.Backend == "kafka" {
		return "file"
	}
	return c.Backend
}

// Validate reports inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(Backends, c.Backend) {
		errs = append(errs, fmt.Errorf("unknown backend %q (want one of %s)", c.Backend, strings.Join(Backends, ", ")))
	}
	switch c.SnapshotKind() {
	case "memory", "redis", "bolt", "file":
	default:
		errs = append(errs, fmt.Errorf("unknown snapshot store %q", c.Snapshots))
	}
	if c.Project == "" {
		errs = append(errs, errors.New("project is required"))
	}

	uses := func(kind string) bool { return c.Backend == kind || c.SnapshotKind() == kind }
	if uses("redis") && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required"))
	}
	if uses("bolt") && c.Bolt.Path == "" {
		errs = append(errs, errors.New("bolt.path is required"))
	}
	if _, _, err := c.Protect.EncryptionKeys(); err != nil {
		errs = append(errs, err)
	}
	if c.Backend == "kafka" {
		if err := c.Kafka.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	return errors.Join(errs...)
}
