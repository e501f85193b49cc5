// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/mwaldhauer/scilit/pkg/types"
)

// --- ExtractDOI ---

func TestExtractDOI(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare DOI", "10.1038/nature12373", "10.1038/nature12373"},
		{"doi.org URL", "https://doi.org/10.1038/nature12373", "10.1038/nature12373"},
		{"labelled", "DOI: 10.1000/182", "10.1000/182"},
		{"embedded in text", "see 10.5555/3295222.3295349 for details", "10.5555/3295222.3295349"},
		{"no DOI", "just an identifier", ""},
		{"empty", "", ""},
		{"short prefix rejected", "10.123/abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDOI(tt.raw); got != tt.want {
				t.Errorf("ExtractDOI(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// --- NormalizeISBN ---

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"isbn-13 hyphenated", "978-0-374-27563-1", "9780374275631"},
		{"isbn-10 with X", "0-8044-2957-x", "080442957X"},
		{"plain isbn-13", "9780374275631", "9780374275631"},
		{"labelled", "ISBN 978-0-374-27563-1", "9780374275631"},
		{"too short", "1234567", ""},
		{"wrong length", "978037427563", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeISBN(tt.raw); got != tt.want {
				t.Errorf("NormalizeISBN(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// --- cleanQueryText ---

func TestCleanQueryText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "deep learning", "deep learning"},
		{"punctuation stripped", "Thinking, Fast and Slow!", "Thinking Fast and Slow"},
		{"quotes stripped", `the "best" title: a story`, "the best title a story"},
		{"umlauts kept", "Über die Lehre", "Über die Lehre"},
		{"collapsed whitespace", "a   b\tc", "a b c"},
		{"only punctuation", "?!...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanQueryText(tt.raw); got != tt.want {
				t.Errorf("cleanQueryText(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// --- lastName / firstAuthorLastName ---

func TestLastName(t *testing.T) {
	tests := []struct {
		author string
		want   string
	}{
		{"Daniel Kahneman", "Kahneman"},
		{"Kahneman", "Kahneman"},
		{"Johann Wolfgang von Goethe", "Goethe"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := lastName(tt.author); got != tt.want {
			t.Errorf("lastName(%q) = %q, want %q", tt.author, got, tt.want)
		}
	}
}

func TestFirstAuthorLastName(t *testing.T) {
	if got := firstAuthorLastName([]string{"", "Daniel Kahneman"}); got != "Kahneman" {
		t.Errorf("firstAuthorLastName = %q, want Kahneman", got)
	}
	if got := firstAuthorLastName(nil); got != "" {
		t.Errorf("firstAuthorLastName(nil) = %q, want empty", got)
	}
}

// --- priorityRank ---

func TestPriorityRank(t *testing.T) {
	if priorityRank("crossref") >= priorityRank("k10plus") {
		t.Error("crossref must outrank k10plus")
	}
	if priorityRank("nonexistent") != len(providerPriority) {
		t.Error("unknown providers must sort last")
	}
}

// fastRetryConfig keeps retry backoff out of test runtime.
func fastRetryConfig() types.EnrichConfig {
	return types.EnrichConfig{MaxRetries: 1, RetryBaseDelay: time.Millisecond}
}

// --- fetchCached ---

// memStore is an in-memory cache.Store for aggregator tests.
type memStore struct {
	data map[string][]byte
	sets int
	gets int
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(ctx context.Context, key string) ([]byte, bool) {
	m.gets++
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memStore) Clear(ctx context.Context, prefix string) (int, error) {
	n := len(m.data)
	m.data = map[string][]byte{}
	return n, nil
}

func (m *memStore) Close() error { return nil }

func TestFetchCachedCachesFoundResults(t *testing.T) {
	store := newMemStore()
	calls := 0
	fetch := func() (types.Record, bool, error) {
		calls++
		return types.Record{Title: "Cached Title"}, true, nil
	}

	rec, found, err := fetchCached(context.Background(), store, "p:op:q", fetch)
	if err != nil || !found {
		t.Fatalf("fetchCached: found=%v err=%v", found, err)
	}
	if rec.Title != "Cached Title" {
		t.Errorf("Title = %q", rec.Title)
	}

	rec, found, err = fetchCached(context.Background(), store, "p:op:q", fetch)
	if err != nil || !found || rec.Title != "Cached Title" {
		t.Fatalf("second fetchCached: rec=%+v found=%v err=%v", rec, found, err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1 (second call must hit the cache)", calls)
	}
}

func TestFetchCachedSkipsNotFound(t *testing.T) {
	store := newMemStore()
	fetch := func() (types.Record, bool, error) {
		return types.Record{}, false, nil
	}

	_, found, err := fetchCached(context.Background(), store, "p:op:q", fetch)
	if err != nil || found {
		t.Fatalf("fetchCached: found=%v err=%v", found, err)
	}
	if store.sets != 0 {
		t.Error("not-found results must not be cached")
	}
}

func TestFetchCachedNilStore(t *testing.T) {
	rec, found, err := fetchCached(context.Background(), nil, "k", func() (types.Record, bool, error) {
		return types.Record{Title: "T"}, true, nil
	})
	if err != nil || !found || rec.Title != "T" {
		t.Fatalf("fetchCached with nil store: rec=%+v found=%v err=%v", rec, found, err)
	}
}
