package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// BrainConfig locates a brain's persisted state layout (spec.md §6).
type BrainConfig struct {
	RootPath        string `mapstructure:"root_path"`         // per-brain root directory
	StateFile       string `mapstructure:"state_file"`        // relative to RootPath
	ThoughtsFile    string `mapstructure:"thoughts_file"`
	AgentsDir       string `mapstructure:"agents_dir"`
	CoordinatorDir  string `mapstructure:"coordinator_dir"`
	EmbeddingDim    int    `mapstructure:"embedding_dim"`
}

func (c *BrainConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("brain", c)
}

func (c *BrainConfig) ValidateConfig() error {
	if c.RootPath == "" {
		return fmt.Errorf("brain.root_path cannot be empty")
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("brain.embedding_dim must be positive")
	}
	return nil
}

func (c *BrainConfig) GetDefaults() map[string]any {
	return map[string]any{
		"brain.root_path":       "./data/brain",
		"brain.state_file":      "state.json.gz",
		"brain.thoughts_file":   "thoughts.jsonl",
		"brain.agents_dir":      "agents",
		"brain.coordinator_dir": "coordinator",
		"brain.embedding_dim":   512,
	}
}
