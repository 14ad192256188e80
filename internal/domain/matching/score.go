// Package matching scores dishes against a pantry and against each other.
// Everything here is pure.
package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Mode selects how a dish ingredient is matched against query terms
type Mode string

const (
	// ModeExact counts dish ingredients equal to a query term after
	// normalization. It is the primary mode and mirrors the store-side
	// overlap filter.
	ModeExact Mode = "exact"
	// ModeSubstring counts dish ingredients containing any query term.
	// Used for in-memory scoring where a pantry item like "tomato" should
	// also credit "cherry tomato".
	ModeSubstring Mode = "substring"
)

// ParseMode parses a configured match mode, defaulting to ModeExact
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeExact, nil
	case ModeExact, ModeSubstring:
		return m, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

// Score is how well one dish covers a query
type Score struct {
	MatchedCount     int `json:"matchedCount"`
	TotalIngredients int `json:"totalIngredients"`
	MatchPercentage  int `json:"matchPercentage"`
}

// NormalizeSet lower-cases, trims and de-duplicates names, dropping empties.
// Output order follows first occurrence.
func NormalizeSet(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ScoreDish computes the match of dishNames against queryNames.
// MatchPercentage is normalized by the number of distinct query terms, so it
// reads as "how much of my pantry this dish uses". A dish with no ingredients
// and an empty query both score 0.
func ScoreDish(dishNames, queryNames []string, mode Mode) Score {
	dish := NormalizeSet(dishNames)
	query := NormalizeSet(queryNames)

	score := Score{TotalIngredients: len(dish)}
	if len(dish) == 0 || len(query) == 0 {
		return score
	}

	switch mode {
	case ModeSubstring:
		for _, d := range dish {
			for _, q := range query {
				if strings.Contains(d, q) {
					score.MatchedCount++
					break
				}
			}
		}
	default:
		terms := make(map[string]struct{}, len(query))
		for _, q := range query {
			terms[q] = struct{}{}
		}
		for _, d := range dish {
			if _, ok := terms[d]; ok {
				score.MatchedCount++
			}
		}
	}

	score.MatchPercentage = Percent(score.MatchedCount, len(query))
	return score
}

// Percent returns round(part / max(1, whole) × 100), rounding halves away from zero
func Percent(part, whole int) int {
	if whole < 1 {
		whole = 1
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// Jaccard returns the rounded Jaccard similarity of two id sets as a
// percentage together with the intersection size. An empty union is 0.
func Jaccard(source, candidate []string) (intersection int, percentage int) {
	src := make(map[string]struct{}, len(source))
	for _, id := range source {
		src[id] = struct{}{}
	}
	cand := make(map[string]struct{}, len(candidate))
	for _, id := range candidate {
		if _, dup := cand[id]; dup {
			continue
		}
		cand[id] = struct{}{}
		if _, ok := src[id]; ok {
			intersection++
		}
	}
	union := len(src) + len(cand) - intersection
	if union == 0 {
		return 0, 0
	}
	return intersection, int(math.Round(float64(intersection) / float64(union) * 100))
}

// Ranked pairs an identity with a score for ordering
type Ranked struct {
	ID    string
	Score Score
}

// SortRanked orders by matched count, then match percentage, both
// descending, then by id ascending
func SortRanked(items []Ranked) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Score, items[j].Score
		if a.MatchedCount != b.MatchedCount {
			return a.MatchedCount > b.MatchedCount
		}
		if a.MatchPercentage != b.MatchPercentage {
			return a.MatchPercentage > b.MatchPercentage
		}
		return items[i].ID < items[j].ID
	})
}
