// Package embeddingcache is the keyed map from node/thought identity to a
// dense vector, loaded once per brain and invalidated by state hash
// (spec.md §4.2).
package embeddingcache

import (
	"regexp"
	"strconv"
	"strings"
)

// Cache resolves cached vectors by id (nodes) or composite key (thoughts).
// Implementations must silently ignore vectors whose length differs from
// Dimension() rather than returning them to the ranker.
type Cache interface {
	NodeVector(id string) ([]float32, bool)
	ThoughtVector(key string) ([]float32, bool)
	Dimension() int
}

// ThoughtKey builds the composite key for a thought: "<instanceId|'solo'>:<cycle>".
func ThoughtKey(instanceID string, cycle int64) string {
	prefix := instanceID
	if prefix == "" {
		prefix = "solo"
	}
	return prefix + ":" + strconv.FormatInt(cycle, 10)
}

var trailingDigitsPattern = regexp.MustCompile(`(\d+)$`)

// resolveNodeID implements the three-step id fallback from spec.md §4.2:
// composite id first (as stored on a cluster snapshot), then the original
// id with any "<instance>:" prefix stripped, then the bare numeric id
// trailing the original id (older snapshots only kept the counter, not
// the "mem_"/"node_"-style prefix). A final miss means "no vector".
func resolveNodeID(id string) []string {
	candidates := []string{id}

	originalID := id
	if idx := strings.IndexByte(id, ':'); idx >= 0 {
		originalID = id[idx+1:]
		candidates = append(candidates, originalID)
	}

	if m := trailingDigitsPattern.FindString(originalID); m != "" && m != originalID {
		candidates = append(candidates, m)
	}

	return candidates
}
