package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ActionDetectorConfig configures where extracted artifacts land
// (spec.md §4.11, §6 "outputs/... landing zones").
type ActionDetectorConfig struct {
	OutputsDir       string `mapstructure:"outputs_dir"`
	MinArtifactChars int    `mapstructure:"min_artifact_chars"`
}

func (c *ActionDetectorConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("action_detector", c)
}

func (c *ActionDetectorConfig) ValidateConfig() error {
	if c.OutputsDir == "" {
		return fmt.Errorf("action_detector.outputs_dir cannot be empty")
	}
	if c.MinArtifactChars <= 0 {
		return fmt.Errorf("action_detector.min_artifact_chars must be positive")
	}
	return nil
}

func (c *ActionDetectorConfig) GetDefaults() map[string]any {
	return map[string]any{
		"action_detector.outputs_dir":         "outputs",
		"action_detector.min_artifact_chars":  50,
	}
}
