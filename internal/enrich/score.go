// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"strings"

	"github.com/mwaldhauer/scilit/pkg/types"
)

// Score component weights. Title similarity dominates because it is the
// most reliable signal across providers; completeness bonuses are capped
// so a rich but wrong record cannot outrank a correct sparse one.
const (
	titleWeight      = 50.0
	authorWeight     = 30.0
	maxBonus         = 20.0
	bonusYear        = 4.0
	bonusJournal     = 4.0
	bonusPublisher   = 3.0
	bonusIdentifier  = 5.0
	bonusISSN        = 4.0
	bonusPageCount   = 3.0
	bonusKeywords    = 4.0
)

// Similarity computes a normalized edit-distance ratio between two strings
// in [0, 1]. Comparison is case-insensitive and whitespace-normalized, so
// "Deep  Learning" and "deep learning" are identical.
func Similarity(a, b string) float64 {
	na := normalizeText(a)
	nb := normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	ra := []rune(na)
	rb := []rune(nb)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// normalizeText lowercases and collapses runs of whitespace to single
// spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// levenshtein computes the edit distance between two rune slices using
// the two-row dynamic programming formulation.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// ScoreMetadata rates how well a found record matches the originally
// extracted title and authors, on a 0-100 scale. Title similarity
// contributes up to 50 points, author agreement up to 30, and field
// completeness up to 20.
func ScoreMetadata(rec types.Record, originalTitle string, originalAuthors []string) float64 {
	score := 0.0

	if rec.Title != "" && originalTitle != "" {
		score += Similarity(rec.Title, originalTitle) * titleWeight
	}

	if len(rec.Authors) > 0 && len(originalAuthors) > 0 {
		var sum float64
		for _, found := range rec.Authors {
			best := 0.0
			for _, orig := range originalAuthors {
				if sim := Similarity(found, orig); sim > best {
					best = sim
				}
			}
			sum += best
		}
		score += sum / float64(len(rec.Authors)) * authorWeight
	}

	score += completenessBonus(rec)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// completenessBonus awards points for useful fields being present,
// capped at maxBonus.
func completenessBonus(rec types.Record) float64 {
	bonus := 0.0
	if rec.Year > 0 {
		bonus += bonusYear
	}
	if rec.Journal != "" {
		bonus += bonusJournal
	}
	if rec.Publisher != "" {
		bonus += bonusPublisher
	}
	if rec.DOI != "" || rec.ISBN != "" {
		bonus += bonusIdentifier
	}
	if rec.ISSN != "" {
		bonus += bonusISSN
	}
	if rec.PageCount > 0 {
		bonus += bonusPageCount
	}
	if len(rec.Keywords) > 0 {
		bonus += bonusKeywords
	}
	if bonus > maxBonus {
		bonus = maxBonus
	}
	return bonus
}
