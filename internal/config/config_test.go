package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultedConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return &cfg
}

func TestDefaultedConfigValidates(t *testing.T) {
	cfg := defaultedConfig(t)
	assert.NoError(t, cfg.Validate())
}

func TestValidateFailsWhenBrainRootPathEmpty(t *testing.T) {
	cfg := defaultedConfig(t)
	cfg.Brain.RootPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root_path")
}

func TestValidateFailsWhenLLMProviderEmpty(t *testing.T) {
	cfg := defaultedConfig(t)
	cfg.LLM.Provider = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider")
}

func TestValidateFailsWhenEmbedderDimensionNotPositive(t *testing.T) {
	cfg := defaultedConfig(t)
	cfg.Embedder.Dimension = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}
