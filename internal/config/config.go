package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration. All review-engine tunables live
// here so tests and embedders can shrink them.
type Config struct {
	// BufferLowWater is the refill trigger: when fewer than this many
	// buffered items remain ahead of the displayed one, the window loads
	// the next batch.
	BufferLowWater int `json:"buffer_low_water,omitempty"`

	// PrefetchCount is the number of catalog indices requested per window fill.
	PrefetchCount int `json:"prefetch_count,omitempty"`

	// BatchSize is the pending-deletion count that triggers an automatic flush.
	BatchSize int `json:"batch_size,omitempty"`

	// MaxHistory bounds the undo ledger; inserting beyond it evicts the oldest entry.
	MaxHistory int `json:"max_history,omitempty"`

	// ImageCacheCapacity bounds the full-resolution content cache.
	ImageCacheCapacity int `json:"image_cache_capacity,omitempty"`

	// ThumbnailCacheCapacity bounds the thumbnail content cache.
	ThumbnailCacheCapacity int `json:"thumbnail_cache_capacity,omitempty"`

	// FullLoadTimeoutMS bounds a full-resolution load, in milliseconds.
	FullLoadTimeoutMS int `json:"full_load_timeout_ms,omitempty"`

	// ThumbLoadTimeoutMS bounds a thumbnail load, in milliseconds.
	ThumbLoadTimeoutMS int `json:"thumb_load_timeout_ms,omitempty"`

	// AllowNetwork permits the decoder to reach remote storage for
	// content that has no local copy.
	AllowNetwork bool `json:"allow_network,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are ignored.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BufferLowWater:         3,
		PrefetchCount:          5,
		BatchSize:              20,
		MaxHistory:             10,
		ImageCacheCapacity:     50,
		ThumbnailCacheCapacity: 100,
		FullLoadTimeoutMS:      8000,
		ThumbLoadTimeoutMS:     2000,
	}
}

// FullLoadTimeout returns the full-resolution load timeout as a duration.
func (c *Config) FullLoadTimeout() time.Duration {
	return time.Duration(c.FullLoadTimeoutMS) * time.Millisecond
}

// ThumbLoadTimeout returns the thumbnail load timeout as a duration.
func (c *Config) ThumbLoadTimeout() time.Duration {
	return time.Duration(c.ThumbLoadTimeoutMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.cull.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.BufferLowWater = pickInt(base.BufferLowWater, overlay.BufferLowWater)
	result.PrefetchCount = pickInt(base.PrefetchCount, overlay.PrefetchCount)
	result.BatchSize = pickInt(base.BatchSize, overlay.BatchSize)
	result.MaxHistory = pickInt(base.MaxHistory, overlay.MaxHistory)
	result.ImageCacheCapacity = pickInt(base.ImageCacheCapacity, overlay.ImageCacheCapacity)
	result.ThumbnailCacheCapacity = pickInt(base.ThumbnailCacheCapacity, overlay.ThumbnailCacheCapacity)
	result.FullLoadTimeoutMS = pickInt(base.FullLoadTimeoutMS, overlay.FullLoadTimeoutMS)
	result.ThumbLoadTimeoutMS = pickInt(base.ThumbLoadTimeoutMS, overlay.ThumbLoadTimeoutMS)
	result.DBMaxOpenConns = pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.AllowNetwork = base.AllowNetwork || overlay.AllowNetwork

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// pickInt returns overlay if non-zero, else base.
func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
