package embeddingcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/types"
)

// FileCache is the default Cache backend: a single JSON blob alongside
// the brain, gated on version and state hash (spec.md §4.2).
type FileCache struct {
	cfg       *config.EmbeddingCacheConfig
	dimension int
	nodes     map[string][]float32
	thoughts  map[string][]float32
}

// Load reads the cache file for the given brain state hash. A missing
// file, a version mismatch, a stateHash mismatch, or a corrupt file all
// yield an empty cache rather than an error (spec.md §7 ErrCacheCorrupt is
// recovered locally).
func Load(cfg *config.EmbeddingCacheConfig, stateHash string, log *logger.Logger) *FileCache {
	log = log.WithComponent("embeddingcache")
	c := &FileCache{
		cfg:       cfg,
		dimension: cfg.Dimension,
		nodes:     make(map[string][]float32),
		thoughts:  make(map[string][]float32),
	}

	data, err := os.ReadFile(cfg.CacheFile)
	if errors.Is(err, fs.ErrNotExist) {
		return c
	}
	if err != nil {
		log.Warn("failed to read embedding cache, treating as empty", "error", err)
		return c
	}

	var file types.EmbeddingCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Warn("embedding cache unreadable, treating as empty", "error", fmt.Errorf("%w: %v", types.ErrCacheCorrupt, err))
		return c
	}

	if file.Version != types.CurrentCacheVersion || file.StateHash != stateHash {
		log.Debug("embedding cache stale, treating as empty",
			"cachedVersion", file.Version, "cachedHash", file.StateHash, "currentHash", stateHash)
		return c
	}

	for _, e := range file.Nodes {
		if len(e.Embedding) != c.dimension {
			continue
		}
		c.nodes[e.ID] = e.Embedding
	}
	for _, e := range file.Thoughts {
		if len(e.Embedding) != c.dimension {
			continue
		}
		c.thoughts[e.Key] = e.Embedding
	}

	return c
}

func (c *FileCache) Dimension() int { return c.dimension }

// NodeVector resolves with the composite→original-id fallback.
func (c *FileCache) NodeVector(id string) ([]float32, bool) {
	for _, candidate := range resolveNodeID(id) {
		if v, ok := c.nodes[candidate]; ok {
			return v, true
		}
	}
	return nil, false
}

func (c *FileCache) ThoughtVector(key string) ([]float32, bool) {
	v, ok := c.thoughts[key]
	return v, ok
}

// Save writes the cache back out, e.g. after fresh embeddings were
// computed during a query.
func (c *FileCache) Save(stateHash string) error {
	file := types.EmbeddingCacheFile{
		Version:   types.CurrentCacheVersion,
		StateHash: stateHash,
	}
	for id, v := range c.nodes {
		file.Nodes = append(file.Nodes, types.EmbeddingCacheEntry{ID: id, Embedding: v})
	}
	for key, v := range c.thoughts {
		file.Thoughts = append(file.Thoughts, types.EmbeddingCacheEntry{Key: key, Embedding: v})
	}

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding cache: %w", err)
	}

	tmp := c.cfg.CacheFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write embedding cache: %w", err)
	}
	if err := os.Rename(tmp, c.cfg.CacheFile); err != nil {
		return fmt.Errorf("failed to finalize embedding cache: %w", err)
	}
	return nil
}

// PutNode stores a freshly computed node vector in memory, to be
// persisted on the next Save.
func (c *FileCache) PutNode(id string, v []float32) {
	c.nodes[id] = v
}

// PutThought stores a freshly computed thought vector in memory.
func (c *FileCache) PutThought(key string, v []float32) {
	c.thoughts[key] = v
}
