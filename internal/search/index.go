// Package search provides a small, deterministic, concurrency-safe in-memory
// text index over challenges.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options (Option pattern)
//   - Unicode-aware tokenization with accent folding and optional stop words
//   - Documents can be added or replaced at any time (Upsert / Remove)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|. A document that contains
// every query token is boosted to rank ahead of partial matches, so short
// queries such as "coding" still find long descriptions.
package search

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Result is a ranked document with its similarity score.
type Result struct {
	ID    string
	Score float64
}

// Index is the read side implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	minScore  float64
}

func defaultConfig() config {
	return config{}
}

// WithStopwords drops the given words from documents and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = fold(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMinScore discards results scoring below s.
func WithMinScore(s float64) Option {
	return func(c *config) {
		if s >= 0 {
			c.minScore = s
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	id     string
	tokens map[string]struct{}
}

// Live is a mutable index keyed by document id.
type Live struct {
	cfg config

	mu    sync.RWMutex
	order []string
	docs  map[string]doc
}

// NewLive returns an empty index.
func NewLive(opts ...Option) *Live {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Live{cfg: cfg, docs: make(map[string]doc)}
}

// Upsert adds or replaces the document with id. Text that yields no tokens
// removes the document.
func (l *Live) Upsert(id string, text ...string) {
	toks := tokenize(strings.Join(text, " "), l.cfg.stopwords)
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(toks) == 0 {
		l.removeLocked(id)
		return
	}
	if _, ok := l.docs[id]; !ok {
		l.order = append(l.order, id)
	}
	l.docs[id] = doc{id: id, tokens: toks}
}

// Remove deletes the document with id.
func (l *Live) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeLocked(id)
}

func (l *Live) removeLocked(id string) {
	if _, ok := l.docs[id]; !ok {
		return
	}
	delete(l.docs, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// Len reports the number of indexed documents.
func (l *Live) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.docs)
}

// TopK returns up to k best-matching documents. k <= 0 returns every match.
func (l *Live) TopK(q string, k int) []Result {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	qTokens := tokenize(q, l.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		id    string
		score float64
		full  bool
		pos   int
	}

	l.mu.RLock()
	buf := make([]scored, 0, len(l.docs))
	for pos, id := range l.order {
		d := l.docs[id]
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + len(d.tokens) - over)
		score := float64(over) / union
		if score < l.cfg.minScore {
			continue
		}
		buf = append(buf, scored{id: id, score: score, full: over == qLen, pos: pos})
	}
	l.mu.RUnlock()
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].full != buf[b].full {
			return buf[a].full
		}
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		return buf[a].pos < buf[b].pos
	})

	if k <= 0 || k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for i := 0; i < k; i++ {
		out[i] = Result{ID: buf[i].id, Score: buf[i].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

// fold lowercases s and strips combining marks, so "Café" matches "cafe".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
