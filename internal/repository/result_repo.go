package repository

import (
	"fmt"
	"strings"

	"quizzable/internal/database"
	"quizzable/internal/models"
)

// ResultRepository handles database operations for attempt results.
// Results are append-only; there is no update path.
type ResultRepository struct {
	db *database.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// InsertResult appends one completed attempt
func (r *ResultRepository) InsertResult(result *models.Result) error {
	query := `
		INSERT INTO results (user_id, quiz_id, score, date_completed, average_answer_time, total_duration)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		result.UserID, result.QuizID, result.Score, result.DateCompleted,
		result.AverageAnswerTime, result.TotalDuration)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	result.ID = id
	return nil
}

// ResultFilters narrows result queries to quizzes matching the given
// attributes; nil fields apply no restriction
type ResultFilters struct {
	SubjectID   *int64
	ExamBoardID *int64
	Difficulty  *int
}

// whereClause builds the quiz-attribute subquery restriction
func (f ResultFilters) whereClause(params *[]interface{}) string {
	var clauses []string
	if f.SubjectID != nil {
		clauses = append(clauses, "subject_id = ?")
		*params = append(*params, *f.SubjectID)
	}
	if f.ExamBoardID != nil {
		clauses = append(clauses, "examboard_id = ?")
		*params = append(*params, *f.ExamBoardID)
	}
	if f.Difficulty != nil {
		clauses = append(clauses, "difficulty = ?")
		*params = append(*params, *f.Difficulty)
	}
	if len(clauses) == 0 {
		return ""
	}
	return " AND quiz_id IN (SELECT id FROM quizzes WHERE " + strings.Join(clauses, " AND ") + ")"
}

// ListForUser retrieves a user's results, newest first, optionally limited
// and restricted to quizzes matching the filters. A limit of 0 means no
// limit.
func (r *ResultRepository) ListForUser(userID int64, filters ResultFilters, limit int) ([]models.Result, error) {
	params := []interface{}{userID}
	query := `
		SELECT id, user_id, quiz_id, score, date_completed, average_answer_time, total_duration
		FROM results
		WHERE user_id = ?` + filters.whereClause(&params) + `
		ORDER BY date_completed DESC
	`
	if limit > 0 {
		query += " LIMIT ?"
		params = append(params, limit)
	}

	rows, err := r.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		var result models.Result
		err := rows.Scan(&result.ID, &result.UserID, &result.QuizID, &result.Score,
			&result.DateCompleted, &result.AverageAnswerTime, &result.TotalDuration)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// ListBestForUser retrieves a user's results grouped by quiz, best attempt
// first within each quiz (highest score, then shortest duration)
func (r *ResultRepository) ListBestForUser(userID int64) (map[int64][]models.Result, error) {
	query := `
		SELECT id, user_id, quiz_id, score, date_completed, average_answer_time, total_duration
		FROM results
		WHERE user_id = ?
		ORDER BY quiz_id, score DESC, total_duration ASC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list best results: %w", err)
	}
	defer rows.Close()

	byQuiz := make(map[int64][]models.Result)
	for rows.Next() {
		var result models.Result
		err := rows.Scan(&result.ID, &result.UserID, &result.QuizID, &result.Score,
			&result.DateCompleted, &result.AverageAnswerTime, &result.TotalDuration)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		byQuiz[result.QuizID] = append(byQuiz[result.QuizID], result)
	}
	return byQuiz, rows.Err()
}
