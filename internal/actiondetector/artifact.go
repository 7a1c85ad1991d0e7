package actiondetector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/JaimeStill/brainquery/internal/config"
)

// Artifact is a candidate file extracted from an LLM answer.
type Artifact struct {
	Language string
	Ext      string
	Category string
	Content  string
}

var fencedBlockPattern = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\\n(.*?)```")

var extByLanguage = map[string]string{
	"html":       "html",
	"python":     "py",
	"py":         "py",
	"javascript": "js",
	"js":         "js",
	"json":       "json",
	"css":        "css",
	"markdown":   "md",
	"md":         "md",
	"svg":        "svg",
	"yaml":       "yaml",
	"yml":        "yaml",
	"text":       "txt",
}

var categoryByLanguage = map[string]string{
	"html": "web-assets",
	"css":  "web-assets",
	"svg":  "web-assets",
	"py":   "code-snippets",
	"js":   "code-snippets",
}

// ExtractArtifacts finds fenced code blocks and whole-answer file
// candidates in an LLM answer, sorted largest-first (spec.md §4.11
// "Artifact extraction").
func ExtractArtifacts(answer string, cfg *config.ActionDetectorConfig) []Artifact {
	var out []Artifact

	for _, m := range fencedBlockPattern.FindAllStringSubmatch(answer, -1) {
		lang := strings.ToLower(strings.TrimSpace(m[1]))
		content := m[2]
		if len(content) < cfg.MinArtifactChars {
			continue
		}
		out = append(out, newArtifact(lang, content))
	}

	if whole := wholeFileCandidate(answer, cfg); whole != nil {
		out = append(out, *whole)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Content) > len(out[j].Content)
	})

	return out
}

func newArtifact(lang, content string) Artifact {
	if lang == "" {
		lang = detectLanguageFromContent(content)
	}
	ext, ok := extByLanguage[lang]
	if !ok {
		ext = "txt"
	}
	category, ok := categoryByLanguage[ext]
	if !ok {
		category = "document-creation"
	}
	return Artifact{Language: lang, Ext: ext, Category: category, Content: content}
}

// wholeFileCandidate applies the "complete file" heuristics: HTML has a
// doctype/html tag, JSON parses outright, otherwise any answer over 200
// chars not already covered by a fenced block is a document candidate.
func wholeFileCandidate(answer string, cfg *config.ActionDetectorConfig) *Artifact {
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) < cfg.MinArtifactChars {
		return nil
	}

	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		a := newArtifact("html", trimmed)
		return &a
	}

	var js any
	if json.Unmarshal([]byte(trimmed), &js) == nil {
		a := newArtifact("json", trimmed)
		return &a
	}

	if len(trimmed) > 200 && !fencedBlockPattern.MatchString(trimmed) {
		a := newArtifact("text", trimmed)
		return &a
	}

	return nil
}

func detectLanguageFromContent(content string) string {
	lower := strings.ToLower(strings.TrimSpace(content))
	switch {
	case strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html"):
		return "html"
	case strings.HasPrefix(lower, "{") || strings.HasPrefix(lower, "["):
		var js any
		if json.Unmarshal([]byte(content), &js) == nil {
			return "json"
		}
	}
	return "text"
}

// WriteArtifacts files each artifact under
// outputs/<category>/query_<ts>/artifact_<n>.<ext> and returns the written paths.
func WriteArtifacts(cfg *config.ActionDetectorConfig, queryTS int64, artifacts []Artifact) ([]string, error) {
	var written []string
	for i, a := range artifacts {
		dir := filepath.Join(cfg.OutputsDir, a.Category, fmt.Sprintf("query_%d", queryTS))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return written, fmt.Errorf("create output dir: %w", err)
		}
		name := fmt.Sprintf("artifact_%d.%s", i+1, a.Ext)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
			return written, fmt.Errorf("write artifact %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
