// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"testing"

	"github.com/mwaldhauer/scilit/pkg/types"
)

// --- Similarity ---

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Thinking Fast and Slow", "Thinking Fast and Slow", 1.0},
		{"case insensitive", "Deep Learning", "deep learning", 1.0},
		{"whitespace normalized", "Deep  Learning", " deep learning ", 1.0},
		{"empty left", "", "something", 0.0},
		{"empty right", "something", "", 0.0},
		{"both empty", "", "", 0.0},
		{"disjoint", "abc", "xyz", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarityPartial(t *testing.T) {
	// One substitution in an eleven-rune string: 1 - 1/11.
	got := Similarity("hello world", "hello worle")
	want := 1.0 - 1.0/11.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Similarity = %v, want %v", got, want)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "Attention Is All You Need", "Attention Is What You Need"
	if Similarity(a, b) != Similarity(b, a) {
		t.Errorf("Similarity not symmetric for %q / %q", a, b)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"identical", "identical", 0},
	}
	for _, tt := range tests {
		if got := levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

// --- ScoreMetadata ---

func TestScoreMetadataExactMatch(t *testing.T) {
	rec := types.Record{
		Title:   "Thinking, Fast and Slow",
		Authors: []string{"Daniel Kahneman"},
	}
	got := ScoreMetadata(rec, "Thinking, Fast and Slow", []string{"Daniel Kahneman"})
	if got != 80 {
		t.Errorf("ScoreMetadata = %v, want 80 (50 title + 30 authors, no bonuses)", got)
	}
}

func TestScoreMetadataBounds(t *testing.T) {
	full := types.Record{
		Title:     "Thinking, Fast and Slow",
		Authors:   []string{"Daniel Kahneman"},
		Year:      2011,
		Journal:   "n/a",
		Publisher: "Farrar, Straus and Giroux",
		DOI:       "10.1000/x",
		ISBN:      "9780374275631",
		ISSN:      "0000-0000",
		PageCount: 499,
		Keywords:  []string{"psychology"},
	}
	got := ScoreMetadata(full, "Thinking, Fast and Slow", []string{"Daniel Kahneman"})
	if got != 100 {
		t.Errorf("ScoreMetadata = %v, want exactly 100 with bonus capped at 20", got)
	}

	if got := ScoreMetadata(types.Record{}, "anything", []string{"anyone"}); got != 0 {
		t.Errorf("ScoreMetadata(empty) = %v, want 0", got)
	}
}

func TestScoreMetadataMonotonicTitle(t *testing.T) {
	near := types.Record{Title: "Thinking, Fast and Slow"}
	far := types.Record{Title: "A Completely Different Book"}
	orig := "Thinking, Fast and Slow"

	if ScoreMetadata(near, orig, nil) <= ScoreMetadata(far, orig, nil) {
		t.Error("closer title should score higher")
	}
}

func TestScoreMetadataAuthorAverage(t *testing.T) {
	// One perfect author out of two dilutes the author component.
	allMatch := types.Record{Title: "T", Authors: []string{"Daniel Kahneman"}}
	halfMatch := types.Record{Title: "T", Authors: []string{"Daniel Kahneman", "Zzz Qqq"}}
	orig := []string{"Daniel Kahneman"}

	if ScoreMetadata(allMatch, "T", orig) <= ScoreMetadata(halfMatch, "T", orig) {
		t.Error("extra non-matching author should lower the score")
	}
}

func TestScoreMetadataNoOriginals(t *testing.T) {
	// Without original title and authors only the completeness bonus
	// remains, which cannot exceed 20.
	rec := types.Record{
		Title:   "Some Title",
		Authors: []string{"Someone"},
		Year:    2020,
		DOI:     "10.1/x",
	}
	got := ScoreMetadata(rec, "", nil)
	if got != bonusYear+bonusIdentifier {
		t.Errorf("ScoreMetadata = %v, want bonus-only %v", got, bonusYear+bonusIdentifier)
	}
}

func TestCompletenessBonusCap(t *testing.T) {
	rec := types.Record{
		Year:      2020,
		Journal:   "J",
		Publisher: "P",
		DOI:       "10.1/x",
		ISSN:      "1234-5678",
		PageCount: 100,
		Keywords:  []string{"k"},
	}
	if got := completenessBonus(rec); got != maxBonus {
		t.Errorf("completenessBonus = %v, want capped %v", got, maxBonus)
	}
}
