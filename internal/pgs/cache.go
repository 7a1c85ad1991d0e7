package pgs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/types"
)

// Cache persists partitions.json alongside the brain, validated by
// brainHash (spec.md §4.6 "Cache format").
type Cache struct {
	cfg *config.PGSConfig
	log *logger.Logger
}

// NewCache creates a partition cache reader/writer.
func NewCache(cfg *config.PGSConfig, log *logger.Logger) *Cache {
	return &Cache{cfg: cfg, log: log.WithComponent("pgs.cache")}
}

func (c *Cache) path(brainRoot string) string {
	return filepath.Join(brainRoot, c.cfg.PartitionsFile)
}

// Load returns cached partitions for brainHash, or nil if absent/stale/
// corrupt — all three are treated identically: regenerate (spec.md §7
// ErrCacheCorrupt recovered locally).
func (c *Cache) Load(brainRoot, brainHash string) []types.Partition {
	data, err := os.ReadFile(c.path(brainRoot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		c.log.Warn("failed to read partition cache, regenerating", "error", err)
		return nil
	}

	var file types.PartitionCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		c.log.Warn("partition cache unreadable, regenerating", "error", err)
		return nil
	}

	if file.Version != types.CurrentPartitionCacheVersion || file.BrainHash != brainHash {
		c.log.Debug("partition cache stale, regenerating",
			"cachedHash", file.BrainHash, "currentHash", brainHash)
		return nil
	}

	return file.Partitions
}

// Save atomically writes partitions for brainHash.
func (c *Cache) Save(brainRoot, brainHash string, partitions []types.Partition, createdAt int64) error {
	file := types.PartitionCacheFile{
		Version:    types.CurrentPartitionCacheVersion,
		Created:    createdAt,
		BrainHash:  brainHash,
		Partitions: partitions,
	}

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal partition cache: %w", err)
	}

	path := c.path(brainRoot)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write partition cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize partition cache: %w", err)
	}

	return nil
}
