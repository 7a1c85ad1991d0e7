// Package brainstore loads a persisted brain: the gzip-compressed state
// snapshot, the newline-delimited thought stream, per-agent live journals,
// and the latest coordinator review. All operations are read-only
// (spec.md §4.1).
package brainstore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/types"
)

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Store is the Brain Store component.
type Store struct {
	cfg *config.BrainConfig
	log *logger.Logger
}

// New creates a brain store rooted at cfg.RootPath.
func New(cfg *config.BrainConfig, log *logger.Logger) *Store {
	return &Store{cfg: cfg, log: log.WithComponent("brainstore")}
}

func (s *Store) path(rel string) string {
	return filepath.Join(s.cfg.RootPath, rel)
}

// LoadState decompresses and parses the brain's canonical snapshot. A
// missing or corrupt snapshot is fatal: ErrStateUnavailable.
func (s *Store) LoadState(ctx context.Context) (*types.BrainState, error) {
	p := s.path(s.cfg.StateFile)

	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrStateUnavailable, p, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrStateUnavailable, p, err)
	}
	defer gz.Close()

	var state types.BrainState
	if err := json.NewDecoder(gz).Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrStateUnavailable, p, err)
	}

	dropDanglingEdges(&state)
	state.BuildIndex()

	return &state, nil
}

// dropDanglingEdges removes edges whose endpoints don't reference an
// existing node id, per spec.md §3 Edge invariant.
func dropDanglingEdges(state *types.BrainState) {
	ids := make(map[string]struct{}, len(state.Nodes))
	for _, n := range state.Nodes {
		ids[n.ID] = struct{}{}
	}

	kept := state.Edges[:0]
	for _, e := range state.Edges {
		_, sOK := ids[e.Source]
		_, tOK := ids[e.Target]
		if sOK && tOK {
			kept = append(kept, e)
		}
	}
	state.Edges = kept
}

// LoadThoughts streams thoughts.jsonl, skipping malformed lines. A missing
// file yields an empty list, not an error.
func (s *Store) LoadThoughts(ctx context.Context) ([]*types.Thought, error) {
	p := s.path(s.cfg.ThoughtsFile)

	f, err := os.Open(p)
	if isNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open thoughts file: %w", err)
	}
	defer f.Close()

	var thoughts []*types.Thought
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	skipped := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var t types.Thought
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			skipped++
			continue
		}
		thoughts = append(thoughts, &t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan thoughts file: %w", err)
	}
	if skipped > 0 {
		s.log.Debug("skipped malformed thought lines", "count", skipped)
	}

	return thoughts, nil
}

var agentDirPattern = regexp.MustCompile(`^agent_(.+)$`)

// LoadJournals walks agents/agent_*/{findings,insights}.jsonl, fanning out
// one goroutine per agent directory and merging results after all
// complete (spec.md §5 "one task fans out over agent directories").
func (s *Store) LoadJournals(ctx context.Context) ([]types.LiveEntry, error) {
	root := s.path(s.cfg.AgentsDir)

	entries, err := os.ReadDir(root)
	if isNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list agents dir: %w", err)
	}

	var agentDirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if agentDirPattern.MatchString(e.Name()) {
			agentDirs = append(agentDirs, e.Name())
		}
	}

	results := make([][]types.LiveEntry, len(agentDirs))
	g, gctx := errgroup.WithContext(ctx)
	for i, dir := range agentDirs {
		i, dir := i, dir
		g.Go(func() error {
			entries, err := s.loadAgentJournal(gctx, root, dir)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []types.LiveEntry
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, nil
}

func (s *Store) loadAgentJournal(ctx context.Context, root, dir string) ([]types.LiveEntry, error) {
	agentID := agentDirPattern.FindStringSubmatch(dir)[1]
	var entries []types.LiveEntry

	for _, kind := range []types.LiveEntryKind{types.LiveEntryFinding, types.LiveEntryInsight} {
		file := filepath.Join(root, dir, string(kind)+"s.jsonl")
		lines, err := s.readJournalFile(file, agentID, kind)
		if err != nil {
			return nil, err
		}
		entries = append(entries, lines...)
	}
	return entries, nil
}

func (s *Store) readJournalFile(path, agentID string, kind types.LiveEntryKind) ([]types.LiveEntry, error) {
	f, err := os.Open(path)
	if isNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	defer f.Close()

	var entries []types.LiveEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	skipped := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e types.LiveEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			skipped++
			continue
		}
		e.Type = kind
		e.AgentID = agentID
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan journal %s: %w", path, err)
	}
	if skipped > 0 {
		s.log.Debug("skipped malformed journal lines", "path", path, "count", skipped)
	}

	return entries, nil
}

var reviewFilePattern = regexp.MustCompile(`^review_(\d+)\.md$`)

// LoadReports returns the latest coordinator review, sorted by the
// numeric cycle parsed from the filename, descending. Returns nil, nil
// when no reports exist.
func (s *Store) LoadReports(ctx context.Context) (*types.CoordinatorReview, error) {
	root := s.path(s.cfg.CoordinatorDir)

	entries, err := os.ReadDir(root)
	if isNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list coordinator dir: %w", err)
	}

	type candidate struct {
		cycle int64
		name  string
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := reviewFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		cycle, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{cycle: cycle, name: e.Name()})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].cycle > candidates[j].cycle })
	best := candidates[0]

	path := filepath.Join(root, best.name)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read coordinator report %s: %w", path, err)
	}

	return &types.CoordinatorReview{Cycle: best.cycle, Path: path, Content: string(content)}, nil
}
