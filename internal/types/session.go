package types

import "time"

// SessionMode selects how the PGS executor's routing phase treats a
// session's prior coverage (spec.md §4.7 "Session modes").
type SessionMode string

const (
	SessionModeFull     SessionMode = "full"
	SessionModeContinue SessionMode = "continue"
	SessionModeTargeted SessionMode = "targeted"
)

// PGSSession is the per-sessionId record of which partitions have already
// been swept for a given query thread, persisted at
// pgs-sessions/<sessionId>.json.
type PGSSession struct {
	SessionID            string          `json:"sessionId"`
	Query                string          `json:"query"`
	Mode                 SessionMode     `json:"mode"`
	SearchedPartitionIDs map[string]bool `json:"searchedPartitionIds"`
	TotalPartitions      int             `json:"totalPartitions"`
	Timestamp            time.Time       `json:"timestamp"`
}

// SearchedCount returns the number of partitions already swept.
func (s *PGSSession) SearchedCount() int {
	return len(s.SearchedPartitionIDs)
}

// MarkSearched records ids as searched in-place (set union, monotonic
// growth per spec.md §8 "PGS session monotonicity").
func (s *PGSSession) MarkSearched(ids []string) {
	if s.SearchedPartitionIDs == nil {
		s.SearchedPartitionIDs = make(map[string]bool, len(ids))
	}
	for _, id := range ids {
		s.SearchedPartitionIDs[id] = true
	}
}

// QueryTurn is one exchange recorded in a follow-up QuerySession.
type QueryTurn struct {
	Query     string         `json:"query"`
	Answer    string         `json:"answer"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// FollowUpContext is the extracted concept/cycle/tag/entity state carried
// between turns of a conversation (spec.md §4.10).
type FollowUpContext struct {
	Concepts []string `json:"concepts"`
	Cycles   []int64  `json:"cycles"`
	Tags     []string `json:"tags"`
	Entities []string `json:"entities"`
}

// QuerySession is the in-memory follow-up session record.
type QuerySession struct {
	ID             string           `json:"id"`
	Queries        []QueryTurn      `json:"queries"`
	Context        FollowUpContext  `json:"context"`
	CreatedAt      time.Time        `json:"createdAt"`
	LastAccessedAt time.Time        `json:"lastAccessedAt"`
}

// PriorContext is the previous turn handed to the Context Builder for its
// "Prior Conversation" prepend (spec.md §4.4).
type PriorContext struct {
	PrevQuery  string
	PrevAnswer string
}
