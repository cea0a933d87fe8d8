// Package search implements the quiz browser's ranking and filter engine.
// Apply is a pure function of its inputs: it never mutates the catalog
// snapshot and holds no state, so it is safe to call from a debounced input
// handler without locking.
package search

import (
	"math"
	"sort"
	"strings"

	"quizzable/internal/models"
)

// MaxResults caps every result list returned by Apply
const MaxResults = 200

// DifficultyOp selects how a difficulty filter compares against a row
type DifficultyOp int

const (
	DifficultyExact DifficultyOp = iota
	DifficultyAtLeast
	DifficultyAtMost
)

// DifficultyFilter is an exact or threshold difficulty predicate
type DifficultyFilter struct {
	Op    DifficultyOp
	Level int
}

// Matches reports whether a row difficulty satisfies the filter
func (f DifficultyFilter) Matches(difficulty int) bool {
	switch f.Op {
	case DifficultyAtLeast:
		return difficulty >= f.Level
	case DifficultyAtMost:
		return difficulty <= f.Level
	default:
		return difficulty == f.Level
	}
}

// Filters holds the quiz browser's predicates. Every field is optional; nil
// or empty means "no filter". Predicates are AND-combined. A filter value
// referencing a deleted subject or exam board simply never matches.
type Filters struct {
	SubjectID   *int64
	ExamBoardID *int64
	Difficulty  *DifficultyFilter
	Query       string
}

// Apply filters the catalog snapshot and, when a search query is present,
// ranks the survivors by fuzzy relevance. The result is always capped at
// MaxResults rows. With an empty query the filtered rows keep their original
// catalog order.
func Apply(catalog []models.CatalogRow, f Filters) []models.CatalogRow {
	filtered := make([]models.CatalogRow, 0, len(catalog))
	for _, row := range catalog {
		if f.SubjectID != nil && (row.SubjectID == nil || *row.SubjectID != *f.SubjectID) {
			continue
		}
		if f.ExamBoardID != nil && (row.ExamBoardID == nil || *row.ExamBoardID != *f.ExamBoardID) {
			continue
		}
		if f.Difficulty != nil && !f.Difficulty.Matches(row.Difficulty) {
			continue
		}
		filtered = append(filtered, row)
	}

	query := strings.TrimSpace(f.Query)
	if query == "" {
		if len(filtered) > MaxResults {
			filtered = filtered[:MaxResults]
		}
		return filtered
	}

	type scoredRow struct {
		row   models.CatalogRow
		score float64
		pos   int
	}
	scored := make([]scoredRow, len(filtered))
	for i, row := range filtered {
		scored[i] = scoredRow{row: row, score: relevance(row, query), pos: i}
	}
	// Stable descending sort; ties keep original catalog order
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	n := len(scored)
	if n > MaxResults {
		n = MaxResults
	}
	result := make([]models.CatalogRow, n)
	for i := 0; i < n; i++ {
		result[i] = scored[i].row
	}
	return result
}

// relevance scores one row against a search query. Name-word matches combine
// fuzzy similarity (cubed, rewarding near matches) with literal occurrence
// counts; tag matches use a fourth power since tags are curated, lower-noise
// signal. The total is normalized by the title and tag-list verbosity so long
// names cannot accumulate score from token count alone.
func relevance(row models.CatalogRow, query string) float64 {
	var score float64
	nameWords := strings.Fields(row.Name)
	tags := models.SplitTags(row.TagsCSV)

	for _, token := range strings.Fields(query) {
		lower := strings.ToLower(token)
		for _, word := range nameWords {
			sim := Similarity(token, word)
			score += 2 * math.Pow(sim, 3)
			score += float64(strings.Count(strings.ToLower(word), lower))
		}
		for _, tag := range tags {
			sim := Similarity(token, tag)
			score += 2 * math.Pow(sim, 4)
		}
	}

	verbosity := 1 + strings.Count(row.Name, " ") + strings.Count(row.TagsCSV, ",")
	return score / float64(verbosity)
}
