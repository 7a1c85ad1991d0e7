package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// QueryCacheConfig bounds the query-result LRU (spec.md §4.5).
type QueryCacheConfig struct {
	Capacity int `mapstructure:"capacity"`
}

func (c *QueryCacheConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("query_cache", c)
}

func (c *QueryCacheConfig) ValidateConfig() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("query_cache.capacity must be positive")
	}
	return nil
}

func (c *QueryCacheConfig) GetDefaults() map[string]any {
	return map[string]any{
		"query_cache.capacity": 50,
	}
}
