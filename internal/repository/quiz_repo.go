package repository

import (
	"database/sql"
	"fmt"

	"quizzable/internal/database"
	"quizzable/internal/models"
)

// QuizRepository handles database operations for quiz records
type QuizRepository struct {
	db *database.DB
}

// NewQuizRepository creates a new quiz repository
func NewQuizRepository(db *database.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// CreateQuiz inserts a new quiz row and returns its generated id. Questions
// are inserted separately by the question repository.
func (r *QuizRepository) CreateQuiz(quiz *models.Quiz) (int64, error) {
	query := `
		INSERT INTO quizzes (name, subject_id, examboard_id, question_count, tags, difficulty, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		quiz.Name, quiz.SubjectID, quiz.ExamBoardID, len(quiz.Questions), quiz.TagsCSV(), quiz.Difficulty, quiz.Hash)
	if err != nil {
		return 0, fmt.Errorf("failed to create quiz: %w", err)
	}
	return id, nil
}

// UpdateQuiz rewrites a quiz row. The edit flow replaces questions wholesale,
// so question_count is taken from the in-memory question list.
func (r *QuizRepository) UpdateQuiz(quiz *models.Quiz) error {
	query := `
		UPDATE quizzes
		SET name = ?, subject_id = ?, examboard_id = ?, question_count = ?, tags = ?, difficulty = ?, hash = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		quiz.Name, quiz.SubjectID, quiz.ExamBoardID, len(quiz.Questions), quiz.TagsCSV(), quiz.Difficulty, quiz.Hash, quiz.ID)
	if err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	return nil
}

// GetQuizRow retrieves a quiz record without its questions. Returns nil when
// no quiz exists at the given id.
func (r *QuizRepository) GetQuizRow(quizID int64) (*models.Quiz, int, error) {
	query := `
		SELECT id, name, subject_id, examboard_id, question_count, tags, difficulty, hash
		FROM quizzes
		WHERE id = ?
	`
	quiz := &models.Quiz{}
	var tagsCSV string
	var questionCount int
	err := r.db.QueryRow(query, quizID).Scan(
		&quiz.ID,
		&quiz.Name,
		&quiz.SubjectID,
		&quiz.ExamBoardID,
		&questionCount,
		&tagsCSV,
		&quiz.Difficulty,
		&quiz.Hash,
	)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get quiz: %w", err)
	}
	quiz.Tags = models.SplitTags(tagsCSV)
	return quiz, questionCount, nil
}

// GetQuizIDByHash returns the id of the quiz with the given content hash, or
// 0 when none exists. Used to reject duplicate imports.
func (r *QuizRepository) GetQuizIDByHash(hash string) (int64, error) {
	var id int64
	err := r.db.QueryRow("SELECT id FROM quizzes WHERE hash = ?", hash).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up quiz hash: %w", err)
	}
	return id, nil
}

// DeleteQuiz removes a quiz together with its questions and results
func (r *QuizRepository) DeleteQuiz(quizID int64) error {
	if _, err := r.db.Exec("DELETE FROM results WHERE quiz_id = ?", quizID); err != nil {
		return fmt.Errorf("failed to delete quiz results: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM questions WHERE quiz_id = ?", quizID); err != nil {
		return fmt.Errorf("failed to delete quiz questions: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM quizzes WHERE id = ?", quizID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	return nil
}

// ListQuizRows retrieves every quiz record, without questions, in insertion
// order. The catalog service attaches per-user attempts on top.
func (r *QuizRepository) ListQuizRows() ([]models.CatalogRow, error) {
	query := `
		SELECT id, name, subject_id, examboard_id, question_count, tags, difficulty
		FROM quizzes
		ORDER BY id
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	defer rows.Close()

	var catalog []models.CatalogRow
	for rows.Next() {
		var row models.CatalogRow
		err := rows.Scan(
			&row.QuizID,
			&row.Name,
			&row.SubjectID,
			&row.ExamBoardID,
			&row.QuestionCount,
			&row.TagsCSV,
			&row.Difficulty,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz row: %w", err)
		}
		catalog = append(catalog, row)
	}
	return catalog, rows.Err()
}
