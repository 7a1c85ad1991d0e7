// Package contextbuilder assembles a plain-text context string bounded by
// the target model's context window, applying model-aware node limits,
// mode-aware budgets, tiered sentence-aware truncation, and source-diverse
// sampling for merged brains (spec.md §4.4).
package contextbuilder

import (
	"fmt"
	"math"
	"strings"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/ranker"
	"github.com/JaimeStill/brainquery/internal/types"
)

// tier is one row of the tiered truncation table.
type tier struct {
	maxRank int
	chars   int
}

// standardTiers is the default per-concept character budget by rank.
var standardTiers = []tier{
	{20, 2000},
	{100, 1000},
	{200, 700},
	{math.MaxInt, 500},
}

// groundedTiers is grounded mode's slightly tighter budget.
var groundedTiers = []tier{
	{20, 1600},
	{100, 1000},
	{200, 750},
	{math.MaxInt, 500},
}

const (
	connectedPreviewChars   = 300
	maxConnectedNodes       = 100
	thoughtBodyPreviewChars = 400
	thoughtGoalPreviewChars = 200
	maxThoughts             = 40
	maxThoughtsGrounded     = 25
	coordinatorPreviewChars = 15_000
)

// Input bundles everything the builder needs to assemble one context.
type Input struct {
	State          *types.BrainState
	DirectHits     []ranker.Result
	Thoughts       []ranker.ThoughtResult
	CoordinatorMD  string
	OutputFiles    *OutputFiles
	PriorContext   *types.PriorContext
	Model          string
	Mode           types.Mode
}

// OutputFiles is the external file collaborator's categorized deliverable
// set (spec.md §4.4 "Output files block"). The core never produces these
// itself; it only renders previews of what it's handed.
type OutputFiles struct {
	Documents    []NamedContent
	CodeFiles    []NamedContent
	Executions   []string // path only
	Deliverables []NamedContent
}

// NamedContent is a single titled blob of text to preview.
type NamedContent struct {
	Name    string
	Content string
}

// Result is the assembled context plus the accounting the orchestrator
// needs for Performance metadata.
type Result struct {
	Context         string
	NodesUsed       int
	EstimatedTokens int
}

// Builder assembles context strings.
type Builder struct {
	cfg *config.ContextBuilderConfig
	log *logger.Logger
}

// New creates a Builder.
func New(cfg *config.ContextBuilderConfig, log *logger.Logger) *Builder {
	return &Builder{cfg: cfg, log: log.WithComponent("contextbuilder")}
}

// Build assembles the final context string for in.
func (b *Builder) Build(in Input) Result {
	limits := types.LimitsFor(in.Model)
	profile := types.ModeProfiles[in.Mode]
	grounded := in.Mode == types.ModeGrounded

	ceiling := int(float64(limits.ContextWindowTokens) * 4 * b.cfg.CeilingFraction)

	adaptive := adaptiveNodeLimit(profile, len(in.DirectHits), limits.MaxNodes, in.State.IsMerged())

	selected := in.DirectHits
	if in.State.IsMerged() {
		selected = sourceDiverseSample(selected, adaptive)
	} else if len(selected) > adaptive {
		selected = selected[:adaptive]
	}

	var sb strings.Builder
	total := 0

	if in.PriorContext != nil {
		block := b.priorConversationBlock(*in.PriorContext)
		sb.WriteString(block)
		total += len(block)
	}

	tiers := standardTiers
	if grounded {
		tiers = groundedTiers
	}

	sb.WriteString("## Direct Matches\n\n")
	nodesUsed := 0
	for i, res := range selected {
		if res.Connected {
			continue
		}
		cap := tierChars(tiers, i+1)
		entry := formatNode(res.Node, cap)
		if total+len(entry) > ceiling {
			break
		}
		sb.WriteString(entry)
		total += len(entry)
		nodesUsed++
	}

	connected := filterConnected(selected)
	if len(connected) > 0 {
		sb.WriteString("\n## Connected Concepts\n\n")
		limit := maxConnectedNodes
		if limit > len(connected) {
			limit = len(connected)
		}
		for _, res := range connected[:limit] {
			entry := formatNode(res.Node, connectedPreviewChars)
			if total+len(entry) > ceiling {
				break
			}
			sb.WriteString(entry)
			total += len(entry)
			nodesUsed++
		}
	}

	if len(in.Thoughts) > 0 {
		max := maxThoughts
		if grounded {
			max = maxThoughtsGrounded
		}
		sb.WriteString("\n## Thoughts\n\n")
		for i, tr := range in.Thoughts {
			if i >= max {
				break
			}
			entry := formatThought(tr.Thought)
			if total+len(entry) > ceiling {
				break
			}
			sb.WriteString(entry)
			total += len(entry)
		}
	}

	if in.CoordinatorMD != "" && !grounded {
		block := "\n## Coordinator Review\n\n" + truncateSentenceAware(in.CoordinatorMD, coordinatorPreviewChars) + "\n"
		if total+len(block) <= ceiling {
			sb.WriteString(block)
			total += len(block)
		}
	}

	if in.OutputFiles != nil {
		block := b.outputFilesBlock(*in.OutputFiles)
		if total+len(block) <= ceiling {
			sb.WriteString(block)
			total += len(block)
		}
	}

	if total > b.cfg.WarnTotalCharsOver {
		b.log.Warn("assembled context exceeds warn threshold", "chars", total, "threshold", b.cfg.WarnTotalCharsOver)
	}

	return Result{
		Context:         sb.String(),
		NodesUsed:       nodesUsed,
		EstimatedTokens: int(math.Ceil(float64(total) / 4)),
	}
}

// adaptiveNodeLimit implements spec.md §4.4's "Adaptive node limit".
func adaptiveNodeLimit(profile types.ModeProfile, directHits int, maxNodes int, merged bool) int {
	target := int(math.Ceil(profile.TargetCoverage * float64(directHits)))
	limit := profile.BaseLimit
	if target > limit {
		limit = target
	}
	if merged {
		limit = int(math.Ceil(float64(limit) * 1.3))
	}
	return clamp(limit, 100, maxNodes)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func tierChars(tiers []tier, rank int) int {
	for _, t := range tiers {
		if rank <= t.maxRank {
			return t.chars
		}
	}
	return tiers[len(tiers)-1].chars
}

func filterConnected(results []ranker.Result) []ranker.Result {
	var out []ranker.Result
	for _, r := range results {
		if r.Connected {
			out = append(out, r)
		}
	}
	return out
}

func formatNode(n *types.Node, maxChars int) string {
	return fmt.Sprintf("- [%s] %s\n", n.ID, truncateSentenceAware(n.Concept, maxChars))
}

func formatThought(t *types.Thought) string {
	instance := t.InstanceID
	if instance == "" {
		instance = "solo"
	}
	body := truncateSentenceAware(t.Content, thoughtBodyPreviewChars)
	line := fmt.Sprintf("- Cycle %d [%s · %s]: %s\n", t.Cycle, t.Role, instance, body)
	if t.Goal != "" {
		line += fmt.Sprintf("  goal: %s\n", truncateSentenceAware(t.Goal, thoughtGoalPreviewChars))
	}
	return line
}

func (b *Builder) priorConversationBlock(prior types.PriorContext) string {
	answer := truncateSentenceAware(prior.PrevAnswer, b.cfg.PriorAnswerMaxChars)
	return fmt.Sprintf("## Prior Conversation\n\nQ: %s\nA: %s\n\n", prior.PrevQuery, answer)
}

func (b *Builder) outputFilesBlock(files OutputFiles) string {
	var sb strings.Builder
	sb.WriteString("\n## Output Files\n\n")

	writeNamed(&sb, "Documents", files.Documents, 8, 1000)
	writeNamed(&sb, "Code Files", files.CodeFiles, 5, 500)

	if len(files.Executions) > 0 {
		sb.WriteString("### Execution Outputs\n\n")
		for i, path := range files.Executions {
			if i >= 3 {
				break
			}
			sb.WriteString("- " + path + "\n")
		}
	}

	writeNamed(&sb, "Deliverables", files.Deliverables, 5, 1500)

	return sb.String()
}

func writeNamed(sb *strings.Builder, title string, items []NamedContent, max, chars int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("### " + title + "\n\n")
	for i, item := range items {
		if i >= max {
			break
		}
		sb.WriteString(fmt.Sprintf("- %s: %s\n", item.Name, truncateSentenceAware(item.Content, chars)))
	}
}
