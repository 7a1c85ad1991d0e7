// Package session is the Session Tracker: a bounded, TTL-evicted map of
// follow-up conversation state, with text-extraction rules that build a
// session's {concepts, cycles, tags, entities} context (spec.md §4.10).
package session

import (
	"container/list"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/types"
)

const (
	createConceptsCap = 20
	createCyclesCap   = 10
	createTagsCap     = 15
	createEntitiesCap = 15

	mergeConceptsCap = 30
	mergeCyclesCap   = 15
	mergeTagsCap     = 20
	mergeEntitiesCap = 20
)

var cycleRefPattern = regexp.MustCompile(`(?i)cycle\s+(\d+)`)
var quotedPattern = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
var capitalizedSequencePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`)

var commonWords = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "these": {}, "those": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "and": {}, "but": {}, "for": {},
}

// Tracker manages an in-memory, bounded, TTL-evicted session map.
type Tracker struct {
	cfg *config.SessionConfig

	mu       sync.Mutex
	sessions map[string]*list.Element
	order    *list.List // LRU order, front = oldest
}

type entry struct {
	id      string
	session *types.QuerySession
}

// New creates a Tracker.
func New(cfg *config.SessionConfig) *Tracker {
	return &Tracker{
		cfg:      cfg,
		sessions: make(map[string]*list.Element),
		order:    list.New(),
	}
}

// GetOrCreate returns the session for id, creating it if absent. Expired
// sessions (idle beyond TTL) are evicted and recreated fresh.
func (t *Tracker) GetOrCreate(id string, now time.Time) *types.QuerySession {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.sessions[id]; ok {
		s := el.Value.(*entry).session
		if now.Sub(s.LastAccessedAt) <= t.cfg.TTL {
			t.order.MoveToBack(el)
			s.LastAccessedAt = now
			return s
		}
		t.order.Remove(el)
		delete(t.sessions, id)
	}

	s := &types.QuerySession{ID: id, CreatedAt: now, LastAccessedAt: now}
	el := t.order.PushBack(&entry{id: id, session: s})
	t.sessions[id] = el

	t.evictExpiredLocked(now)
	t.evictOverCapacityLocked()

	return s
}

func (t *Tracker) evictExpiredLocked(now time.Time) {
	for el := t.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*entry)
		if now.Sub(e.session.LastAccessedAt) > t.cfg.TTL {
			t.order.Remove(el)
			delete(t.sessions, e.id)
		}
		el = next
	}
}

func (t *Tracker) evictOverCapacityLocked() {
	for t.order.Len() > t.cfg.Capacity {
		oldest := t.order.Front()
		if oldest == nil {
			break
		}
		t.order.Remove(oldest)
		delete(t.sessions, oldest.Value.(*entry).id)
	}
}

// RecordTurn appends a turn and refreshes the session's extracted context
// by merging in the new turn's text.
func (t *Tracker) RecordTurn(id string, turn types.QueryTurn, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.sessions[id]
	if !ok {
		return
	}
	s := el.Value.(*entry).session
	s.Queries = append(s.Queries, turn)
	s.LastAccessedAt = now

	extracted := Extract(turn.Query + " " + turn.Answer)
	s.Context = Merge(s.Context, extracted)
}

// Extract builds a context object from free text using the fixed
// extraction rules (spec.md §4.10 "Extraction rules"), capped to the
// creation caps 20/10/15/15.
func Extract(text string) types.FollowUpContext {
	cycles := extractCycles(text)
	concepts := extractQuoted(text)
	entities := extractCapitalizedSequences(text)
	tags := extractFrequentWords(text)

	return types.FollowUpContext{
		Concepts: capStrings(concepts, createConceptsCap),
		Cycles:   capInt64s(cycles, createCyclesCap),
		Tags:     capStrings(tags, createTagsCap),
		Entities: capStrings(entities, createEntitiesCap),
	}
}

// Merge unions two contexts, deduplicating, capped to the merge caps
// 30/15/20/20 (spec.md §4.10 "Merging").
func Merge(a, b types.FollowUpContext) types.FollowUpContext {
	return types.FollowUpContext{
		Concepts: capStrings(unionStrings(a.Concepts, b.Concepts), mergeConceptsCap),
		Cycles:   capInt64s(unionInt64s(a.Cycles, b.Cycles), mergeCyclesCap),
		Tags:     capStrings(unionStrings(a.Tags, b.Tags), mergeTagsCap),
		Entities: capStrings(unionStrings(a.Entities, b.Entities), mergeEntitiesCap),
	}
}

func extractCycles(text string) []int64 {
	matches := cycleRefPattern.FindAllStringSubmatch(text, -1)
	var out []int64
	for _, m := range matches {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func extractQuoted(text string) []string {
	matches := quotedPattern.FindAllStringSubmatch(text, -1)
	var out []string
	for _, m := range matches {
		term := m[1]
		if term == "" {
			term = m[2]
		}
		if term != "" {
			out = append(out, term)
		}
	}
	return out
}

func extractCapitalizedSequences(text string) []string {
	matches := capitalizedSequencePattern.FindAllString(text, -1)
	var out []string
	for _, m := range matches {
		if _, common := commonWords[strings.ToLower(m)]; common {
			continue
		}
		out = append(out, m)
	}
	return out
}

func extractFrequentWords(text string) []string {
	freq := make(map[string]int)
	for _, tok := range tokenize(text) {
		if len(tok) <= 5 {
			continue
		}
		if _, common := commonWords[tok]; common {
			continue
		}
		freq[tok]++
	}

	var out []string
	for w, c := range freq {
		if c >= 2 {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}

func tokenize(s string) []string {
	lower := strings.ToLower(s)
	var sb strings.Builder
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.Fields(sb.String())
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func unionInt64s(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	var out []int64
	for _, v := range append(append([]int64{}, a...), b...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func capStrings(s []string, max int) []string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func capInt64s(v []int64, max int) []int64 {
	if len(v) > max {
		return v[:max]
	}
	return v
}
