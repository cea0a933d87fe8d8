package models

// CatalogRow is the quiz browser's working unit: a flattened quiz record plus
// the current user's attempts at it, best first. Rows form a read-mostly
// snapshot refreshed on demand.
type CatalogRow struct {
	QuizID        int64
	Name          string
	SubjectID     *int64
	ExamBoardID   *int64
	QuestionCount int
	TagsCSV       string
	Difficulty    int
	BestAttempts  []Result
}

// BestAttempt returns the user's best result for this quiz, if any
func (r *CatalogRow) BestAttempt() (Result, bool) {
	if len(r.BestAttempts) == 0 {
		return Result{}, false
	}
	return r.BestAttempts[0], true
}

// Lookups holds the bidirectional subject and exam board name maps owned by
// the catalog boundary. They are rebuilt on every catalog mutation; the
// search and session cores only ever see resolved ids.
type Lookups struct {
	SubjectNames   map[int64]string
	SubjectIDs     map[string]int64
	ExamBoardNames map[int64]string
	ExamBoardIDs   map[string]int64
}

// SubjectName resolves a subject id, tolerating nil and stale ids
func (l *Lookups) SubjectName(id *int64) string {
	if id == nil {
		return ""
	}
	return l.SubjectNames[*id]
}

// ExamBoardName resolves an exam board id, tolerating nil and stale ids
func (l *Lookups) ExamBoardName(id *int64) string {
	if id == nil {
		return ""
	}
	return l.ExamBoardNames[*id]
}
