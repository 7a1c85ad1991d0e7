package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig selects the slog handler (teacher's internal/config/logging.go).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c *LoggingConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("logging", c)
}

func (c *LoggingConfig) ValidateConfig() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(c.Level)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Level, strings.Join(validLevels, ", "))
	}
	validFormats := []string{"json", "text"}
	if !contains(validFormats, strings.ToLower(c.Format)) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.Format, strings.Join(validFormats, ", "))
	}
	return nil
}

func (c *LoggingConfig) GetDefaults() map[string]any {
	return map[string]any{
		"logging.level":  "info",
		"logging.format": "json",
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
