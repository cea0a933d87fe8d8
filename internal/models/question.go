package models

import (
	"fmt"
	"math/rand"
)

// Question represents a single multiple-choice question belonging to a quiz.
// Questions are immutable after saving; quiz edits replace them wholesale.
type Question struct {
	ID            int64
	QuizID        int64
	Text          string
	CorrectAnswer string
	OtherAnswers  []string
	Hint          string
	Help          string
}

// Validate checks all field constraints, returning the first violation found
func (q *Question) Validate() error {
	if q.Text == "" {
		return ValidationError{Field: "question", Message: "no question entered"}
	}
	if len(q.Text) < 4 {
		return ValidationError{Field: "question", Message: "question less than 4 characters"}
	}
	if len(q.Text) > 300 {
		return ValidationError{Field: "question", Message: "question longer than 300 characters"}
	}
	if q.CorrectAnswer == "" {
		return ValidationError{Field: "correctAnswer", Message: "no correct answer"}
	}
	if len(q.CorrectAnswer) > 150 {
		return ValidationError{Field: "correctAnswer", Message: "correct answer longer than 150 characters"}
	}
	if len(q.OtherAnswers) == 0 {
		return ValidationError{Field: "otherAnswers", Message: "no wrong answers"}
	}
	if len(q.OtherAnswers) > 3 {
		return ValidationError{Field: "otherAnswers", Message: "too many wrong answers"}
	}
	for i, answer := range q.OtherAnswers {
		field := fmt.Sprintf("otherAnswers[%d]", i)
		if answer == "" {
			return ValidationError{Field: field, Message: fmt.Sprintf("no wrong answer no. %d", i+1)}
		}
		if len(answer) > 150 {
			return ValidationError{Field: field, Message: fmt.Sprintf("wrong answer no. %d is too long", i+1)}
		}
		if answer == q.CorrectAnswer {
			return ValidationError{Field: field, Message: fmt.Sprintf("wrong answer no. %d is the same as the correct answer", i+1)}
		}
	}
	if len(q.Hint) > 400 {
		return ValidationError{Field: "hint", Message: "hint longer than 400 characters"}
	}
	if len(q.Help) > 2000 {
		return ValidationError{Field: "help", Message: "help longer than 2000 characters"}
	}
	return nil
}

// ShuffledAnswers returns the answers in random order along with the index of
// the correct answer. The wrong answers are permuted, then the correct answer
// is inserted at a uniformly random slot. Callers must re-roll on every
// display of the question; the ordering is never cached.
func (q *Question) ShuffledAnswers(rng *rand.Rand) ([]string, int) {
	answers := make([]string, len(q.OtherAnswers))
	copy(answers, q.OtherAnswers)
	rng.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})

	index := rng.Intn(len(q.OtherAnswers) + 1)
	answers = append(answers, "")
	copy(answers[index+1:], answers[index:])
	answers[index] = q.CorrectAnswer
	return answers, index
}
