package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// EmbeddingCacheConfig selects and configures the Embedding Cache backend
// (spec.md §4.2). "file" is the canonical backend spec.md describes
// (embeddings-cache.json); "qdrant" is the enrichment backend for brains
// too large to cache comfortably in one JSON blob (SPEC_FULL.md DOMAIN
// STACK).
type EmbeddingCacheConfig struct {
	Backend    string `mapstructure:"backend"`     // "file" | "qdrant"
	CacheFile  string `mapstructure:"cache_file"`  // file backend; opened as given, not joined under the brain root
	QdrantURL  string `mapstructure:"qdrant_url"`  // qdrant backend only
	Collection string `mapstructure:"collection"`  // qdrant backend only
	Dimension  int    `mapstructure:"dimension"`
}

func (c *EmbeddingCacheConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("embedding_cache", c)
}

func (c *EmbeddingCacheConfig) ValidateConfig() error {
	switch c.Backend {
	case "file", "qdrant":
	default:
		return fmt.Errorf("embedding_cache.backend must be 'file' or 'qdrant', got %q", c.Backend)
	}
	if c.Backend == "qdrant" && c.QdrantURL == "" {
		return fmt.Errorf("embedding_cache.qdrant_url required when backend is qdrant")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("embedding_cache.dimension must be positive")
	}
	return nil
}

func (c *EmbeddingCacheConfig) GetDefaults() map[string]any {
	return map[string]any{
		"embedding_cache.backend":    "file",
		"embedding_cache.cache_file": "embeddings-cache.json",
		"embedding_cache.qdrant_url": "http://localhost:6334",
		"embedding_cache.collection": "brain_embeddings",
		"embedding_cache.dimension":  512,
	}
}
