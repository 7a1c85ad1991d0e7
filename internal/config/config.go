// Package config loads and validates the brain query engine's
// configuration, following the teacher's per-concern sub-config pattern
// (one struct per component, each with LoadConfig/ValidateConfig/
// GetDefaults) aggregated into a single Config.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates every component's configuration.
type Config struct {
	Brain          BrainConfig          `mapstructure:"brain"`
	EmbeddingCache EmbeddingCacheConfig `mapstructure:"embedding_cache"`
	Ranker         RankerConfig         `mapstructure:"ranker"`
	ContextBuilder ContextBuilderConfig `mapstructure:"context_builder"`
	QueryCache     QueryCacheConfig     `mapstructure:"query_cache"`
	PGS            PGSConfig            `mapstructure:"pgs"`
	Evidence       EvidenceConfig       `mapstructure:"evidence"`
	Session        SessionConfig        `mapstructure:"session"`
	ActionDetector ActionDetectorConfig `mapstructure:"action_detector"`
	LLM            LLMConfig            `mapstructure:"llm"`
	Embedder       EmbedderConfig       `mapstructure:"embedder"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

// subConfig is implemented by every nested config struct.
type subConfig interface {
	ValidateConfig() error
}

// Load reads configuration from environment variables (prefix
// BRAINQUERY_) and an optional config.yaml, applying defaults first, then
// validates the result.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("BRAINQUERY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/brainquery/")

	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate runs every nested config's ValidateConfig.
func (c *Config) Validate() error {
	subs := []subConfig{
		&c.Brain, &c.EmbeddingCache, &c.Ranker, &c.ContextBuilder,
		&c.QueryCache, &c.PGS, &c.Evidence, &c.Session, &c.ActionDetector,
		&c.LLM, &c.Embedder, &c.Logging,
	}
	for _, s := range subs {
		if err := s.ValidateConfig(); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	applyDefaults(v, (&BrainConfig{}).GetDefaults())
	applyDefaults(v, (&EmbeddingCacheConfig{}).GetDefaults())
	applyDefaults(v, (&RankerConfig{}).GetDefaults())
	applyDefaults(v, (&ContextBuilderConfig{}).GetDefaults())
	applyDefaults(v, (&QueryCacheConfig{}).GetDefaults())
	applyDefaults(v, (&PGSConfig{}).GetDefaults())
	applyDefaults(v, (&EvidenceConfig{}).GetDefaults())
	applyDefaults(v, (&SessionConfig{}).GetDefaults())
	applyDefaults(v, (&ActionDetectorConfig{}).GetDefaults())
	applyDefaults(v, (&LLMConfig{}).GetDefaults())
	applyDefaults(v, (&EmbedderConfig{}).GetDefaults())
	applyDefaults(v, (&LoggingConfig{}).GetDefaults())
}

func applyDefaults(v *viper.Viper, defaults map[string]any) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}
