package search

import (
	"sync"
	"testing"
)

// ---------- Options + defaultConfig ----------
func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.stopwords != nil || def.minScore != 0 {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}

	cfg := def
	WithStopwords([]string{"  The ", "", "Één"})(&cfg)
	if _, ok := cfg.stopwords["the"]; !ok {
		t.Fatalf("WithStopwords failed (missing 'the'): %#v", cfg.stopwords)
	}
	if _, ok := cfg.stopwords["een"]; !ok {
		t.Fatalf("stop words must be folded: %#v", cfg.stopwords)
	}

	cfg2 := def
	WithStopwords(nil)(&cfg2)
	if cfg2.stopwords != nil {
		t.Fatalf("empty stopwords should remain nil")
	}

	WithMinScore(0.2)(&cfg)
	if cfg.minScore != 0.2 {
		t.Fatalf("WithMinScore failed: %v", cfg.minScore)
	}
	WithMinScore(-1)(&cfg) // no-op
	if cfg.minScore != 0.2 {
		t.Fatalf("negative minScore should be ignored")
	}
}

// ---------- Upsert / TopK ----------
func TestLive_RanksFullMatchesFirst(t *testing.T) {
	idx := NewLive()
	idx.Upsert("1", "30 Days of Coding", "Code at least 1 hour every day")
	idx.Upsert("5", "21 Days of Meditation")
	idx.Upsert("7", "Learn a New Language")

	res := idx.TopK("days coding", 5)
	if len(res) != 2 {
		t.Fatalf("want 2 results, got %#v", res)
	}
	if res[0].ID != "1" {
		t.Fatalf("full match must rank first: %#v", res)
	}
	if res[1].ID != "5" {
		t.Fatalf("partial match second: %#v", res)
	}

	if got := idx.TopK("days", 1); len(got) != 1 {
		t.Fatalf("k must cap results: %#v", got)
	}
	if got := idx.TopK("days", 0); len(got) != 2 {
		t.Fatalf("k<=0 returns all matches: %#v", got)
	}
}

func TestLive_AccentFolding(t *testing.T) {
	idx := NewLive()
	idx.Upsert("a", "Café crawl")
	if res := idx.TopK("CAFE", 3); len(res) != 1 || res[0].ID != "a" {
		t.Fatalf("accent folding failed: %#v", res)
	}
}

func TestLive_ReplaceAndRemove(t *testing.T) {
	idx := NewLive()
	idx.Upsert("x", "alpha beta")
	idx.Upsert("x", "gamma")
	if idx.Len() != 1 {
		t.Fatalf("upsert must replace, len=%d", idx.Len())
	}
	if res := idx.TopK("alpha", 3); len(res) != 0 {
		t.Fatalf("stale tokens remain: %#v", res)
	}
	idx.Upsert("x", "  ... ")
	if idx.Len() != 0 {
		t.Fatalf("tokenless upsert must remove")
	}
	idx.Upsert("y", "delta")
	idx.Remove("y")
	idx.Remove("missing")
	if idx.Len() != 0 {
		t.Fatalf("remove failed")
	}
}

func TestLive_EmptyQueriesAndStopwords(t *testing.T) {
	idx := NewLive(WithStopwords([]string{"the"}), WithMinScore(0.4))
	idx.Upsert("1", "the zero waste week")
	for _, q := range []string{"", "   ", "the", "!!!"} {
		if res := idx.TopK(q, 3); res != nil {
			t.Fatalf("query %q should yield nil, got %#v", q, res)
		}
	}
	if res := idx.TopK("waste", 3); res != nil {
		t.Fatalf("below min score must be dropped: %#v", res)
	}
	if res := idx.TopK("zero waste", 3); len(res) != 1 {
		t.Fatalf("want one result: %#v", res)
	}
}

func TestLive_ConcurrentUse(t *testing.T) {
	idx := NewLive()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx.Upsert(string(rune('a'+i)), "shared token")
			_ = idx.TopK("shared", 0)
		}(i)
	}
	wg.Wait()
	if got := len(idx.TopK("shared", 0)); got != 8 {
		t.Fatalf("want 8, got %d", got)
	}
}

func TestOverlap_Symmetric(t *testing.T) {
	a := map[string]struct{}{"x": {}, "y": {}}
	b := map[string]struct{}{"y": {}, "z": {}, "w": {}}
	if overlap(a, b) != 1 || overlap(b, a) != 1 {
		t.Fatalf("overlap mismatch")
	}
	if overlap(nil, b) != 0 {
		t.Fatalf("nil overlap must be 0")
	}
}
