package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// SessionConfig bounds the follow-up Session Tracker (spec.md §4.10).
type SessionConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (c *SessionConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("session", c)
}

func (c *SessionConfig) ValidateConfig() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("session.capacity must be positive")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	return nil
}

func (c *SessionConfig) GetDefaults() map[string]any {
	return map[string]any{
		"session.capacity": 50,
		"session.ttl":      "1h",
	}
}
