package types

import "time"

// LiveEntryKind distinguishes an agent journal's two record kinds.
type LiveEntryKind string

const (
	LiveEntryFinding LiveEntryKind = "finding"
	LiveEntryInsight LiveEntryKind = "insight"
)

// LiveEntry is a single append-only record from an agent's
// findings.jsonl/insights.jsonl journal (spec.md §3 "Live Journal Entry").
type LiveEntry struct {
	NodeID    string        `json:"nodeId"`
	Type      LiveEntryKind `json:"type"`
	Content   string        `json:"content"`
	Tag       string        `json:"tag"`
	Timestamp time.Time     `json:"timestamp"`
	AgentID   string        `json:"-"`
}

// CoordinatorReview is the parsed content of the latest
// coordinator/review_<cycle>.md report.
type CoordinatorReview struct {
	Cycle   int64
	Path    string
	Content string
}
