package search

import (
	"fmt"
	"reflect"
	"testing"

	"quizzable/internal/models"
)

func row(id int64, name, tags string, subjectID, examBoardID *int64, difficulty int) models.CatalogRow {
	return models.CatalogRow{
		QuizID:      id,
		Name:        name,
		TagsCSV:     tags,
		SubjectID:   subjectID,
		ExamBoardID: examBoardID,
		Difficulty:  difficulty,
	}
}

func idPtr(id int64) *int64 { return &id }

func ids(rows []models.CatalogRow) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.QuizID
	}
	return out
}

func TestApplyFilters(t *testing.T) {
	catalog := []models.CatalogRow{
		row(1, "Algebra Basics", "maths,algebra", idPtr(10), idPtr(20), 2),
		row(2, "Advanced Algebra", "maths", idPtr(10), nil, 4),
		row(3, "Cell Biology", "biology", idPtr(11), idPtr(20), 3),
		row(4, "Untagged Quiz", "", nil, nil, 3),
	}

	tests := []struct {
		name    string
		filters Filters
		want    []int64
	}{
		{"no filters", Filters{}, []int64{1, 2, 3, 4}},
		{"subject", Filters{SubjectID: idPtr(10)}, []int64{1, 2}},
		{"subject excludes nil rows", Filters{SubjectID: idPtr(11)}, []int64{3}},
		{"stale subject matches nothing", Filters{SubjectID: idPtr(99)}, nil},
		{"exam board", Filters{ExamBoardID: idPtr(20)}, []int64{1, 3}},
		{"difficulty exact", Filters{Difficulty: &DifficultyFilter{Op: DifficultyExact, Level: 3}}, []int64{3, 4}},
		{"difficulty at least", Filters{Difficulty: &DifficultyFilter{Op: DifficultyAtLeast, Level: 3}}, []int64{2, 3, 4}},
		{"difficulty at most", Filters{Difficulty: &DifficultyFilter{Op: DifficultyAtMost, Level: 2}}, []int64{1}},
		{"combined", Filters{SubjectID: idPtr(10), Difficulty: &DifficultyFilter{Op: DifficultyAtLeast, Level: 3}}, []int64{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(catalog, tt.filters))
			if len(got) == 0 {
				got = nil
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply() returned %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyEmptyQueryKeepsCatalogOrder(t *testing.T) {
	var catalog []models.CatalogRow
	for i := int64(1); i <= 250; i++ {
		catalog = append(catalog, row(i, fmt.Sprintf("Quiz %d", i), "", nil, nil, 1))
	}

	got := Apply(catalog, Filters{})
	if len(got) != MaxResults {
		t.Fatalf("Apply() returned %d rows, want cap of %d", len(got), MaxResults)
	}
	for i, r := range got {
		if r.QuizID != int64(i+1) {
			t.Fatalf("row %d has id %d, want %d (catalog order)", i, r.QuizID, i+1)
		}
	}
}

func TestApplyRanksFuzzyMatchesFirst(t *testing.T) {
	catalog := []models.CatalogRow{
		row(1, "Cell Biology", "biology,cells", nil, nil, 3),
		row(2, "Algebra Basics", "maths,algebra", nil, nil, 2),
		row(3, "History of Art", "history", nil, nil, 1),
	}

	got := Apply(catalog, Filters{Query: "algebr"})
	if len(got) != 3 {
		t.Fatalf("Apply() returned %d rows, want 3", len(got))
	}
	if got[0].QuizID != 2 {
		t.Errorf("top result is quiz %d, want the algebra quiz", got[0].QuizID)
	}
}

func TestApplyRankingIsDeterministic(t *testing.T) {
	catalog := []models.CatalogRow{
		row(1, "Fractions", "maths", nil, nil, 1),
		row(2, "Fractions", "maths", nil, nil, 1),
		row(3, "Fractions", "maths", nil, nil, 1),
	}

	first := ids(Apply(catalog, Filters{Query: "fractions"}))
	for i := 0; i < 10; i++ {
		again := ids(Apply(catalog, Filters{Query: "fractions"}))
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("ranking changed between runs: %v then %v", first, again)
		}
	}
	// identical scores keep catalog order
	if !reflect.DeepEqual(first, []int64{1, 2, 3}) {
		t.Errorf("tied rows ordered %v, want catalog order", first)
	}
}

func TestApplyDoesNotMutateCatalog(t *testing.T) {
	catalog := []models.CatalogRow{
		row(1, "Cell Biology", "biology", nil, nil, 3),
		row(2, "Algebra Basics", "maths", nil, nil, 2),
	}
	before := ids(catalog)

	Apply(catalog, Filters{Query: "algebra"})
	if !reflect.DeepEqual(ids(catalog), before) {
		t.Errorf("Apply() reordered the caller's catalog slice")
	}
}

func TestApplyQueryMatchesTags(t *testing.T) {
	catalog := []models.CatalogRow{
		row(1, "Paper One Revision", "history", nil, nil, 3),
		row(2, "Paper Two Revision", "chemistry", nil, nil, 3),
	}

	got := Apply(catalog, Filters{Query: "chemistry"})
	if got[0].QuizID != 2 {
		t.Errorf("top result is quiz %d, want the chemistry-tagged quiz", got[0].QuizID)
	}
}
