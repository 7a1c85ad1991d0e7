package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LLMConfig configures the LLM collaborator (spec.md §6 "LLM collaborator
// contract"), in the shape of the teacher's internal/llm.Config.
type LLMConfig struct {
	Provider      string        `mapstructure:"provider"`
	URL           string        `mapstructure:"url"`
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryBaseWait time.Duration `mapstructure:"retry_base_wait"`
	RetryFactor   float64       `mapstructure:"retry_factor"`
}

func (c *LLMConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("llm", c)
}

func (c *LLMConfig) ValidateConfig() error {
	if c.Provider == "" {
		return fmt.Errorf("llm.provider cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries cannot be negative")
	}
	return nil
}

func (c *LLMConfig) GetDefaults() map[string]any {
	return map[string]any{
		"llm.provider":        "http",
		"llm.url":             "http://localhost:11434",
		"llm.model":           "gpt-oss:latest",
		"llm.timeout":         "60s",
		"llm.max_retries":     3,
		"llm.retry_base_wait": "1s",
		"llm.retry_factor":    2.0,
	}
}
