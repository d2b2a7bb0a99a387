// Package config holds user/system configuration for the package
// update engine: cache location, feed endpoints, and the default
// retention and apply policies.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fieldware/pkgcache/internal/checksum"
	"github.com/fieldware/pkgcache/internal/gate"
	"github.com/fieldware/pkgcache/internal/retention"
)

// Config is the engine configuration. HomeDir is resolved from the
// environment; the rest may be overridden by <home>/config.yaml.
type Config struct {
	HomeDir string `yaml:"-"`

	FeedURL   string `yaml:"feed_url"`
	FeedWSURL string `yaml:"feed_ws_url"`

	ChunkSizeBytes int64 `yaml:"chunk_size_bytes"`

	Retention  retention.Policy `yaml:"retention"`
	Conditions gate.Conditions  `yaml:"conditions"`
}

// Defaults returns the stock configuration.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		HomeDir:        filepath.Join(home, ".pkgcache"),
		FeedURL:        "https://packages.fieldware.io",
		FeedWSURL:      "wss://packages.fieldware.io/releases",
		ChunkSizeBytes: checksum.DefaultChunkSize,
		Retention: retention.Policy{
			MaxVersions:   3,
			MaxTotalBytes: 0,
			MinFreeBytes:  512 * 1024 * 1024,
		},
		Conditions: gate.Conditions{
			RequiresNetwork:   true,
			RequiresUnmetered: true,
			RequiresCharging:  false,
			MinBatteryLevel:   0.2,
			AllowLowPower:     false,
			IdleOnly:          false,
		},
	}
}

// Load returns the defaults with the PKGCACHE_HOME env override
// applied, then values from <home>/config.yaml layered on top when the
// file exists. A malformed config file is an error; a missing one is
// not.
func Load() (Config, error) {
	cfg := Defaults()
	if v := os.Getenv("PKGCACHE_HOME"); v != "" {
		cfg.HomeDir = v
	}

	path := filepath.Join(cfg.HomeDir, "config.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// PackagesDir is the cache subdirectory holding package files.
func (c Config) PackagesDir() string {
	return filepath.Join(c.HomeDir, "packages")
}

// StagingDir is where verified packages are extracted.
func (c Config) StagingDir() string {
	return filepath.Join(c.HomeDir, "staging")
}

// JournalPath is the engine event log location.
func (c Config) JournalPath() string {
	return filepath.Join(c.HomeDir, "engine.log")
}
