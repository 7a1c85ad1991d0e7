package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// RankerConfig tunes the hybrid ranker's connected-expansion bounds
// (spec.md §4.3). The scoring weights and tag-reweight tables are fixed
// by spec.md and therefore live as package constants in internal/ranker,
// not here — only the genuinely operator-tunable knobs are configurable.
type RankerConfig struct {
	MinConnectedExpansion int `mapstructure:"min_connected_expansion"`
	MaxConnectedExpansion int `mapstructure:"max_connected_expansion"`
	DeepModeMaxExpansion  int `mapstructure:"deep_mode_max_expansion"`
}

func (c *RankerConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("ranker", c)
}

func (c *RankerConfig) ValidateConfig() error {
	if c.MinConnectedExpansion <= 0 || c.MaxConnectedExpansion < c.MinConnectedExpansion {
		return fmt.Errorf("ranker connected-expansion bounds invalid")
	}
	if c.DeepModeMaxExpansion < c.MaxConnectedExpansion {
		return fmt.Errorf("ranker.deep_mode_max_expansion must be >= max_connected_expansion")
	}
	return nil
}

func (c *RankerConfig) GetDefaults() map[string]any {
	return map[string]any{
		"ranker.min_connected_expansion": 10,
		"ranker.max_connected_expansion": 50,
		"ranker.deep_mode_max_expansion": 100,
	}
}
