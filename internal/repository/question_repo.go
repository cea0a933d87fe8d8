package repository

import (
	"fmt"

	"quizzable/internal/database"
	"quizzable/internal/models"
)

// QuestionRepository handles database operations for questions
type QuestionRepository struct {
	db *database.DB
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *database.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// InsertQuestion saves one question and sets its generated id. The wrong
// answers occupy the answer2..answer4 columns; unused columns stay NULL.
func (r *QuestionRepository) InsertQuestion(question *models.Question) error {
	if err := question.Validate(); err != nil {
		return err
	}

	var answer3, answer4 *string
	if len(question.OtherAnswers) > 1 {
		answer3 = &question.OtherAnswers[1]
	}
	if len(question.OtherAnswers) > 2 {
		answer4 = &question.OtherAnswers[2]
	}

	query := `
		INSERT INTO questions (quiz_id, question, correct_answer, answer2, answer3, answer4, hint, help)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		question.QuizID, question.Text, question.CorrectAnswer,
		question.OtherAnswers[0], answer3, answer4,
		question.Hint, question.Help)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	question.ID = id
	return nil
}

// GetQuestionsForQuiz loads every question belonging to a quiz
func (r *QuestionRepository) GetQuestionsForQuiz(quizID int64) ([]models.Question, error) {
	query := `
		SELECT id, quiz_id, question, correct_answer, answer2, answer3, answer4, hint, help
		FROM questions
		WHERE quiz_id = ?
		ORDER BY id
	`
	rows, err := r.db.Query(query, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var answer2 string
		var answer3, answer4 *string
		err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.CorrectAnswer, &answer2, &answer3, &answer4, &q.Hint, &q.Help)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.OtherAnswers = []string{answer2}
		if answer3 != nil && *answer3 != "" {
			q.OtherAnswers = append(q.OtherAnswers, *answer3)
		}
		if answer4 != nil && *answer4 != "" {
			q.OtherAnswers = append(q.OtherAnswers, *answer4)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// DeleteQuestionsForQuiz removes all of a quiz's questions; the edit flow
// re-inserts the replacement set afterwards
func (r *QuestionRepository) DeleteQuestionsForQuiz(quizID int64) error {
	if _, err := r.db.Exec("DELETE FROM questions WHERE quiz_id = ?", quizID); err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}
	return nil
}
