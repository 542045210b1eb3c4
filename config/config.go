// Package config describes where the data files live.
//
// A Config is usually loaded from YAML with Load, then adjusted from the
// environment with ApplyEnv. Every relative path is resolved against
// DataPath, except CachePath which is used as given.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvDataPath  = "DATA_PATH"
	EnvCachePath = "CACHE_PATH"
)

// Store names with a fixed role.
const (
	StoreSequences    = "aa"
	StoreCoordinates  = "ca"
	StorePLDDT        = "plddt"
	StoreDescriptions = "desc"
	StoreSimilars     = "ava"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the data layout.
type Config struct {
	DataPath  string         `yaml:"data_path"`
	CachePath string         `yaml:"cache_path"`
	Taxonomy  TaxonomyConfig `yaml:"taxonomy"`
	Cache     CacheConfig    `yaml:"cache"`
	Stores    []StoreConfig  `yaml:"stores"`
}

// TaxonomyConfig locates the taxonomy snapshot and the NCBI dumps it is
// built from when missing.
type TaxonomyConfig struct {
	Snapshot string `yaml:"snapshot"`
	Dumps    string `yaml:"dumps"`
}

// CacheConfig controls the content cache sweep.
type CacheConfig struct {
	MaxAge          time.Duration `yaml:"max_age"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	AutoCleanup     bool          `yaml:"auto_cleanup"`
}

// StoreConfig names one indexed flat store. An empty Data makes the store
// index-only.
type StoreConfig struct {
	Name       string `yaml:"name"`
	Data       string `yaml:"data,omitempty"`
	Index      string `yaml:"index"`
	StringKeys bool   `yaml:"string_keys,omitempty"`
}

// Default returns the layout the browser ships with.
func Default() Config {
	return Config{
		DataPath:  "./data",
		CachePath: "./data/cache",
		Taxonomy: TaxonomyConfig{
			Snapshot: "ncbitaxonomy.json",
			Dumps:    ".",
		},
		Cache: CacheConfig{
			MaxAge:          24 * time.Hour,
			CleanupInterval: time.Hour,
			AutoCleanup:     true,
		},
		Stores: []StoreConfig{
			{Name: StoreSequences, Data: "afdb", Index: "afdb.index"},
			{Name: StoreCoordinates, Data: "afdb_ca", Index: "afdb_ca.index"},
			{Name: StorePLDDT, Data: "afdb_plddt", Index: "afdb_plddt.index"},
			{Name: StoreDescriptions, Data: "afdb_desc", Index: "afdb_desc.index"},
			{Name: StoreSimilars, Data: "ava_db", Index: "ava_db.index"},
		},
	}
}

// Load reads a YAML file over Default. Keys absent from the file keep their
// default; a stores list replaces the default list entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Write stores cfg as YAML at path.
func Write(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // config is not secret
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides DataPath and CachePath from DATA_PATH and CACHE_PATH
// when they are set and non-empty. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDataPath); ok && v != "" {
		c.DataPath = v
	}
	if v, ok := lookup(EnvCachePath); ok && v != "" {
		c.CachePath = v
	}
}

// Validate checks the store list and cache durations.
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("%w: data_path is empty", ErrInvalid)
	}
	if c.Cache.MaxAge <= 0 {
		return fmt.Errorf("%w: cache.max_age must be positive", ErrInvalid)
	}
	if c.Cache.AutoCleanup && c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("%w: cache.cleanup_interval must be positive", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Stores))
	for i, s := range c.Stores {
		if s.Name == "" {
			return fmt.Errorf("%w: stores[%d] has no name", ErrInvalid, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate store %q", ErrInvalid, s.Name)
		}
		seen[s.Name] = true
		if s.Index == "" {
			return fmt.Errorf("%w: store %q has no index", ErrInvalid, s.Name)
		}
	}
	return nil
}

// Resolve joins p with DataPath unless p is empty or absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataPath, p)
}

// SnapshotPath returns the resolved taxonomy snapshot path.
func (c *Config) SnapshotPath() string {
	return c.Resolve(c.Taxonomy.Snapshot)
}

// DumpDir returns the resolved NCBI dump directory.
func (c *Config) DumpDir() string {
	return c.Resolve(c.Taxonomy.Dumps)
}

// Store returns the store named name.
func (c *Config) Store(name string) (StoreConfig, bool) {
	for _, s := range c.Stores {
		if s.Name == name {
			return s, true
		}
	}
	return StoreConfig{}, false
}
