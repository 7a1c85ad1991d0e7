package config

import "github.com/spf13/viper"

// EvidenceConfig holds the Evidence Analyzer's cluster-size floor; every
// other threshold in spec.md §4.8/§4.9 is a fixed rating boundary and
// lives as a constant in internal/evidence and internal/insights.
type EvidenceConfig struct {
	MinClusterSize int `mapstructure:"min_cluster_size"`
}

func (c *EvidenceConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("evidence", c)
}

func (c *EvidenceConfig) ValidateConfig() error {
	if c.MinClusterSize <= 0 {
		c.MinClusterSize = 3
	}
	return nil
}

func (c *EvidenceConfig) GetDefaults() map[string]any {
	return map[string]any{
		"evidence.min_cluster_size": 3,
	}
}
