package models

import "time"

// TimerMode is the user's per-question timer preference
type TimerMode int

const (
	TimerNone TimerMode = iota
	TimerLong
	TimerShort
)

// User represents a quiz-taking profile. PasswordHash is empty for profiles
// without a password.
type User struct {
	ID                 int64
	Name               string
	PasswordHash       string
	TimerMode          TimerMode
	DefaultExamBoardID *int64
	CreatedAt          time.Time
}

// Validate checks the user-level constraints
func (u *User) Validate() error {
	if len(u.Name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	if len(u.Name) > 70 {
		return ValidationError{Field: "name", Message: "name must be at most 70 characters"}
	}
	if u.TimerMode < TimerNone || u.TimerMode > TimerShort {
		return ValidationError{Field: "timerMode", Message: "unknown timer preference"}
	}
	return nil
}

// QuestionBudget returns the per-question answering budget for a quiz of the
// given difficulty, and whether a budget applies at all. The long setting
// allows 5s plus 5s per difficulty level; the short setting is half that.
func (u *User) QuestionBudget(difficulty int) (time.Duration, bool) {
	switch u.TimerMode {
	case TimerLong:
		return time.Duration(float64(time.Second) * (5 + float64(difficulty)*5)), true
	case TimerShort:
		return time.Duration(float64(time.Second) * (2.5 + float64(difficulty)*2.5)), true
	default:
		return 0, false
	}
}
