package types

import "time"

// Mode is a preset bundle of {context budget, coverage target, reasoning
// effort, output budget} selected by the caller (spec.md §4.4, GLOSSARY).
type Mode string

const (
	ModeQuick     Mode = "quick"
	ModeFull      Mode = "full"
	ModeExpert    Mode = "expert"
	ModeDive      Mode = "dive"
	ModeReport    Mode = "report"
	ModeGrounded  Mode = "grounded"
	ModeExecutive Mode = "executive"
)

// ReasoningEffort mirrors the LLM collaborator contract's effort enum.
type ReasoningEffort string

const (
	EffortLow    ReasoningEffort = "low"
	EffortMedium ReasoningEffort = "medium"
	EffortHigh   ReasoningEffort = "high"
)

// ModeProfile is one row of the mode matrix (spec.md §4.4).
type ModeProfile struct {
	Mode             Mode
	BaseLimit        int
	TargetCoverage   float64
	ReasoningEffort  ReasoningEffort
	MaxOutputTokens  int
	BrainAccess      bool
}

// ModeProfiles is the fixed mode matrix from spec.md §4.4.
var ModeProfiles = map[Mode]ModeProfile{
	ModeQuick:     {ModeQuick, 150, 0.10, EffortLow, 10_000, true},
	ModeFull:      {ModeFull, 400, 0.20, EffortMedium, 20_000, true},
	ModeExpert:    {ModeExpert, 800, 0.30, EffortHigh, 30_000, true},
	ModeDive:      {ModeDive, 1000, 0.35, EffortHigh, 32_000, true},
	ModeReport:    {ModeReport, 600, 0.35, EffortHigh, 16_000, true},
	ModeGrounded:  {ModeGrounded, 300, 0.20, EffortMedium, 18_000, true},
	ModeExecutive: {ModeExecutive, 0, 0, EffortMedium, 8_000, false},
}

// ModelLimits is one row of the model-awareness tables (spec.md §4.4).
type ModelLimits struct {
	ContextWindowTokens int
	MaxNodes            int
}

// DefaultModelLimits applies to any model not named in ModelLimitsByModel.
var DefaultModelLimits = ModelLimits{ContextWindowTokens: 128_000, MaxNodes: 2500}

// ModelLimitsByModel holds the higher-capacity model overrides.
var ModelLimitsByModel = map[string]ModelLimits{
	"claude-opus-4":   {ContextWindowTokens: 200_000, MaxNodes: 4000},
	"claude-sonnet-4": {ContextWindowTokens: 200_000, MaxNodes: 4000},
	"gpt-5":           {ContextWindowTokens: 200_000, MaxNodes: 4000},
}

// LimitsFor resolves a model's window/node limits, falling back to the
// default table entry for unknown models (never an error — spec.md §7
// reserves ErrInputInvalid for unsupported *modes*, not unknown models).
func LimitsFor(model string) ModelLimits {
	if l, ok := ModelLimitsByModel[model]; ok {
		return l
	}
	return DefaultModelLimits
}

// QueryOptions bundles the knobs a caller can set per query.
type QueryOptions struct {
	Model         string
	Mode          Mode
	Limit         int
	IncludeConnected bool
	UseSemantic   bool
	FilterTags    []string
	SessionID     string
	PGSSessionID  string
	PGSMode       SessionMode
	PriorContext  *PriorContext

	// BaseAnswer is the only input executive mode reads (spec.md §4.4
	// scenario 6 "Executive compression"). It carries an existing answer
	// the caller wants compressed; executive mode never touches brain
	// state, so Thoughts/State on Input are ignored when Mode is
	// ModeExecutive.
	BaseAnswer string
}

// Performance carries the per-query timing/cache metadata returned to the
// caller alongside the answer.
type Performance struct {
	Cached         bool          `json:"cached"`
	Duration       time.Duration `json:"duration"`
	NodesConsidered int          `json:"nodes_considered"`
	NodesUsed       int          `json:"nodes_used"`
	UsedPGS         bool          `json:"used_pgs"`
}

// QueryResult is the single result envelope every query path returns,
// whether it succeeds or fails, per spec.md §7: "callers never see
// exceptions bubble across the boundary."
type QueryResult struct {
	Answer      string         `json:"answer"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Performance Performance    `json:"performance"`
	HadError    bool           `json:"had_error,omitempty"`
}
