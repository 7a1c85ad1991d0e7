package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// EmbedderConfig configures the embedding collaborator (spec.md §6
// "Embedding collaborator contract").
type EmbedderConfig struct {
	Provider  string        `mapstructure:"provider"`
	URL       string        `mapstructure:"url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	Dimension int           `mapstructure:"dimension"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func (c *EmbedderConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("embedder", c)
}

func (c *EmbedderConfig) ValidateConfig() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("embedder.dimension must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("embedder.timeout must be positive")
	}
	return nil
}

func (c *EmbedderConfig) GetDefaults() map[string]any {
	return map[string]any{
		"embedder.provider":  "http",
		"embedder.url":       "http://localhost:11434",
		"embedder.model":     "nomic-embed-text",
		"embedder.dimension": 512,
		"embedder.timeout":   "30s",
	}
}
