package models

import (
	"regexp"
	"strings"
)

// quizNameRegexp matches any character not allowed in a quiz name
var quizNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9.\-? ]`)

// Quiz represents a quiz and its questions
type Quiz struct {
	ID          int64
	Name        string
	Tags        []string
	SubjectID   *int64
	ExamBoardID *int64
	Difficulty  int
	Hash        string
	Questions   []Question
}

// Validate checks the quiz-level constraints. Question constraints are
// checked per question; the two-question authoring minimum is enforced by the
// save flow, not here, so partially built quizzes can be validated early.
func (z *Quiz) Validate() error {
	if len(z.Name) < 3 {
		return ValidationError{Field: "name", Message: "quiz name must be at least 3 characters"}
	}
	if len(z.Name) > 70 {
		return ValidationError{Field: "name", Message: "quiz name must be at most 70 characters"}
	}
	if quizNameRegexp.MatchString(z.Name) {
		return ValidationError{Field: "name", Message: "quiz name may only contain letters, numbers, spaces, dashes, question marks or full stops"}
	}
	if z.Difficulty < 1 || z.Difficulty > 5 {
		return ValidationError{Field: "difficulty", Message: "difficulty must be between 1 and 5"}
	}
	if len(z.TagsCSV()) > 150 {
		return ValidationError{Field: "tags", Message: "tag list must be at most 150 characters"}
	}
	for _, q := range z.Questions {
		if err := q.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TagsCSV returns the tags joined as the comma-separated form stored in the
// quizzes table
func (z *Quiz) TagsCSV() string {
	return strings.Join(z.Tags, ",")
}

// SplitTags parses the stored comma-separated tag list
func SplitTags(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
