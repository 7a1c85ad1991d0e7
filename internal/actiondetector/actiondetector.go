// Package actiondetector classifies a query's intent and, when the
// answer carries a generated artifact, extracts and files it under the
// outputs tree (spec.md §4.11). Detection runs as a middleware-style
// chain of rules, each free to claim the query or defer to the next.
package actiondetector

import (
	"context"
	"regexp"
)

// Action names one of the fixed intents a query can express.
type Action string

const (
	ActionCreateFile   Action = "createFile"
	ActionWriteFile    Action = "writeFile"
	ActionReadFullFile Action = "readFullFile"
	ActionSpawnAgent   Action = "spawnAgent"
	ActionCreateGoal   Action = "createGoal"
	ActionExportData   Action = "exportData"
	ActionGenerateCode Action = "generateCode"
	ActionAnalyzeFiles Action = "analyzeFiles"
	ActionListFiles    Action = "listFiles"
)

// Detection is the outcome of running the chain over one query.
type Detection struct {
	Action   Action
	Detected bool
	Metadata map[string]any
}

// Context carries the query through the rule chain.
type Context struct {
	Query string
	Det   Detection
}

// Rule inspects ctx and may claim the detection; next continues the
// chain when the rule declines (mirrors the server's middleware pipeline).
type Rule func(ctx context.Context, dctx *Context, next func(context.Context, *Context) error) error

// Chain runs an ordered list of Rules, first claim wins.
type Chain struct {
	rules []Rule
}

// NewChain builds the default detection chain in priority order.
func NewChain() *Chain {
	return &Chain{rules: []Rule{
		ruleCreateFile,
		ruleWriteFile,
		ruleReadFullFile,
		ruleSpawnAgent,
		ruleCreateGoal,
		ruleExportData,
		ruleGenerateCode,
		ruleAnalyzeFiles,
		ruleListFiles,
	}}
}

// Detect classifies a query, returning Detected=false if no rule claims it.
func (c *Chain) Detect(ctx context.Context, query string) Detection {
	dctx := &Context{Query: query, Det: Detection{Metadata: map[string]any{}}}

	var next func(context.Context, *Context) error
	next = func(context.Context, *Context) error { return nil }

	for i := len(c.rules) - 1; i >= 0; i-- {
		rule := c.rules[i]
		currentNext := next
		next = func(ctx context.Context, dctx *Context) error {
			return rule(ctx, dctx, currentNext)
		}
	}

	_ = next(ctx, dctx)
	return dctx.Det
}

func claim(dctx *Context, action Action, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	dctx.Det = Detection{Action: action, Detected: true, Metadata: meta}
}

var (
	createFilePattern = regexp.MustCompile(`(?i)\b(create|generate|make)\s+(a|an|the)?\s*(html|python|javascript|js|json|css|markdown|svg|yaml|text)?\s*file\b`)
	writeFilePattern  = regexp.MustCompile(`(?i)\bwrite\s+(this|that|it)?\s*to\s+(a\s+)?file\b`)
	readFullPattern   = regexp.MustCompile(`(?i)\b(read|show|display)\s+(me\s+)?the\s+(full|entire|whole)\s+(file|content)\b`)
	spawnAgentPattern = regexp.MustCompile(`(?i)\b(spawn|launch|start)\s+(an?\s+)?agent\b`)
	createGoalPattern = regexp.MustCompile(`(?i)\b(create|set|add)\s+(a\s+)?(new\s+)?goal\b`)
	exportDataPattern = regexp.MustCompile(`(?i)\bexport\s+(this|the)?\s*(data|results|findings)\b`)
	generateCodePattern = regexp.MustCompile(`(?i)\b(write|generate|implement)\s+(some\s+)?code\b`)
	analyzeFilesPattern = regexp.MustCompile(`(?i)\banalyze\s+(the\s+)?files?\b`)
	listFilesPattern    = regexp.MustCompile(`(?i)\blist\s+(the\s+)?files?\b`)
)

func ruleCreateFile(ctx context.Context, dctx *Context, next func(context.Context, *Context) error) error {
	if m := createFilePattern.FindStringSubmatch(dctx.Query); m != nil {
		lang := inferLanguage(m[3], dctx.Query)
		claim(dctx, ActionCreateFile, map[string]any{"language": lang})
		return nil
	}
	return next(ctx, dctx)
}

func ruleWriteFile(ctx context.Context, dctx *Context, next func(context.Context, *Context) error) error {
	if writeFilePattern.MatchString(dctx.Query) {
		claim(dctx, ActionWriteFile, nil)
		return nil
	}
	return next(ctx, dctx)
}

func ruleReadFullFile(ctx context.Context, dctx *Context, next func(context.Context, *Context) error) error {
	if readFullPattern.MatchString(dctx.Query) {
		claim(dctx, ActionReadFullFile, nil)
		return nil
	}
	return next(ctx, dctx)
}

func ruleSpawnAgent(ctx context.Context, dctx *Context, next func(context.Context, *Context) error) error {
	if spawnAgentPattern.MatchString(dctx.Query) {
		claim(dctx, ActionSpawnAgent, nil)
		return nil
	}
	return next(ctx, dctx)
}

func ruleCreateGoal(ctx context.Context, dctx *Context, next func(context.Context, *Context) error) error {
	if createGoalPattern.MatchString(dctx.Query) {
		claim(dctx, ActionCreateGoal, nil)
		return nil
	}
	return next(ctx, dctx)
}

func ruleExportData(ctx context.Context, dctx *Context, next func(context.Context, *Context) error) error {
	if exportDataPattern.MatchString(dctx.Query) {
		claim(dctx, ActionExportData, nil)
		return nil
	}
	return next(ctx, dctx)
}

func ruleGenerateCode(ctx context.Context, dctx *Context, next func(context.Context, *Context) error) error {
	if generateCodePattern.MatchString(dctx.Query) {
		claim(dctx, ActionGenerateCode, nil)
		return nil
	}
	return next(ctx, dctx)
}

func ruleAnalyzeFiles(ctx context.Context, dctx *Context, next func(context.Context, *Context) error) error {
	if analyzeFilesPattern.MatchString(dctx.Query) {
		claim(dctx, ActionAnalyzeFiles, nil)
		return nil
	}
	return next(ctx, dctx)
}

func ruleListFiles(ctx context.Context, dctx *Context, next func(context.Context, *Context) error) error {
	if listFilesPattern.MatchString(dctx.Query) {
		claim(dctx, ActionListFiles, nil)
		return nil
	}
	return next(ctx, dctx)
}

var languageHints = map[string]string{
	"html":       "html",
	"python":     "python",
	"javascript": "javascript",
	"js":         "javascript",
	"json":       "json",
	"css":        "css",
	"markdown":   "markdown",
	"svg":        "svg",
	"yaml":       "yaml",
	"text":       "text",
}

func inferLanguage(hint string, query string) string {
	if lang, ok := languageHints[hint]; ok {
		return lang
	}
	lower := query
	for word, lang := range languageHints {
		if regexp.MustCompile(`(?i)\b` + word + `\b`).MatchString(lower) {
			return lang
		}
	}
	return "text"
}
