package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ContextBuilderConfig tunes the Context Builder's budget ceiling and
// follow-up prepend limits (spec.md §4.4). The mode matrix and tiered
// truncation table are fixed by spec.md and live in internal/contextbuilder.
type ContextBuilderConfig struct {
	CeilingFraction      float64 `mapstructure:"ceiling_fraction"`      // of CONTEXT_WINDOW*4
	PriorAnswerMaxChars  int     `mapstructure:"prior_answer_max_chars"`
	WarnTotalCharsOver   int     `mapstructure:"warn_total_chars_over"`
}

func (c *ContextBuilderConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("context_builder", c)
}

func (c *ContextBuilderConfig) ValidateConfig() error {
	if c.CeilingFraction <= 0 || c.CeilingFraction > 1 {
		return fmt.Errorf("context_builder.ceiling_fraction must be in (0,1]")
	}
	if c.PriorAnswerMaxChars <= 0 {
		return fmt.Errorf("context_builder.prior_answer_max_chars must be positive")
	}
	return nil
}

func (c *ContextBuilderConfig) GetDefaults() map[string]any {
	return map[string]any{
		"context_builder.ceiling_fraction":        0.65,
		"context_builder.prior_answer_max_chars":  50_000,
		"context_builder.warn_total_chars_over":    400_000,
	}
}
