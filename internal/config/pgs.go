package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// PGSConfig holds every PGS_* knob from spec.md §6, all overridable
// per-query by the orchestrator.
type PGSConfig struct {
	MaxConcurrentSweeps int     `mapstructure:"max_concurrent_sweeps"`
	MinNodes            int     `mapstructure:"min_nodes"`
	TargetPartitionMin  int     `mapstructure:"target_partition_min"`
	TargetPartitionMax  int     `mapstructure:"target_partition_max"`
	MinCommunitySize    int     `mapstructure:"min_community_size"`
	MaxSweepPartitions  int     `mapstructure:"max_sweep_partitions"`
	MinSweepPartitions  int     `mapstructure:"min_sweep_partitions"`
	RelevanceThreshold  float64 `mapstructure:"relevance_threshold"`
	SweepMaxTokens      int     `mapstructure:"sweep_max_tokens"`
	SynthesisMaxTokens  int     `mapstructure:"synthesis_max_tokens"`
	SweepCharBudget     int     `mapstructure:"sweep_char_budget"`
	ClusterSnapshotTTLMs int    `mapstructure:"cluster_snapshot_ttl_ms"`
	MaxIterations       int     `mapstructure:"max_iterations"`       // Louvain
	ModularityGainEps   float64 `mapstructure:"modularity_gain_eps"`
	PartitionsFile      string  `mapstructure:"partitions_file"`
	SessionsDir         string  `mapstructure:"sessions_dir"`
}

func (c *PGSConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("pgs", c)
}

func (c *PGSConfig) ValidateConfig() error {
	if c.MaxConcurrentSweeps <= 0 {
		return fmt.Errorf("pgs.max_concurrent_sweeps must be positive")
	}
	if c.TargetPartitionMax <= c.TargetPartitionMin {
		return fmt.Errorf("pgs.target_partition_max must exceed target_partition_min")
	}
	if c.MinCommunitySize <= 0 {
		return fmt.Errorf("pgs.min_community_size must be positive")
	}
	if c.MaxSweepPartitions <= 0 {
		return fmt.Errorf("pgs.max_sweep_partitions must be positive")
	}
	if c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1 {
		return fmt.Errorf("pgs.relevance_threshold must be in [0,1]")
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("pgs.max_iterations must be positive")
	}
	return nil
}

func (c *PGSConfig) GetDefaults() map[string]any {
	return map[string]any{
		"pgs.max_concurrent_sweeps":   5,
		"pgs.min_nodes":               0,
		"pgs.target_partition_min":    200,
		"pgs.target_partition_max":    1800,
		"pgs.min_community_size":      30,
		"pgs.max_sweep_partitions":    15,
		"pgs.min_sweep_partitions":    0,
		"pgs.relevance_threshold":     0.25,
		"pgs.sweep_max_tokens":        6000,
		"pgs.synthesis_max_tokens":    16000,
		"pgs.sweep_char_budget":       500_000,
		"pgs.cluster_snapshot_ttl_ms": 4000,
		"pgs.max_iterations":          20,
		"pgs.modularity_gain_eps":     1e-10,
		"pgs.partitions_file":         "partitions.json",
		"pgs.sessions_dir":            "pgs-sessions",
	}
}
