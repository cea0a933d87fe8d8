// Package quizio reads and writes the XML interchange format used to share
// quizzes between installations. It deals purely in names and text; resolving
// subject and exam board names to database ids is the catalog's job.
package quizio

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// QuizFile is the on-disk representation of one exported quiz
type QuizFile struct {
	XMLName   xml.Name        `xml:"quiz"`
	Meta      Meta            `xml:"meta"`
	Questions []QuestionEntry `xml:"question"`
}

// Meta carries the quiz-level fields. Subject and exam board travel as names,
// not ids, so a file imports cleanly into a different installation.
type Meta struct {
	Title         string `xml:"title"`
	SubjectName   string `xml:"subjectName,omitempty"`
	ExamBoardName string `xml:"examBoardName,omitempty"`
	Difficulty    int    `xml:"difficulty"`
	Tags          string `xml:"tags,omitempty"`
}

// QuestionEntry is one question in the interchange file
type QuestionEntry struct {
	Text          string   `xml:"qtext"`
	CorrectAnswer string   `xml:"correctanswer"`
	OtherAnswers  []string `xml:"wronganswer"`
	Hint          string   `xml:"hint,omitempty"`
	Help          string   `xml:"help,omitempty"`
}

// Parse decodes a quiz interchange file
func Parse(r io.Reader) (*QuizFile, error) {
	var file QuizFile
	if err := xml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse quiz file: %w", err)
	}
	return &file, nil
}

// Export writes a quiz interchange file with an XML header and indentation
func Export(w io.Writer, file *QuizFile) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write quiz file: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to write quiz file: %w", err)
	}
	return enc.Close()
}

// Hash computes the content fingerprint used to detect duplicate imports.
// It covers the fields that define the quiz's substance in a canonical order;
// formatting details of the file itself do not affect it. Subject and exam
// board names stay out so the same quiz filed under different local taxonomies
// still collides.
func Hash(file *QuizFile) string {
	var b strings.Builder
	b.WriteString(file.Meta.Title)
	b.WriteByte('\x1f')
	b.WriteString(strconv.Itoa(file.Meta.Difficulty))
	b.WriteByte('\x1f')
	b.WriteString(file.Meta.Tags)
	for _, q := range file.Questions {
		b.WriteByte('\x1e')
		b.WriteString(q.Text)
		b.WriteByte('\x1f')
		b.WriteString(q.CorrectAnswer)
		for _, a := range q.OtherAnswers {
			b.WriteByte('\x1f')
			b.WriteString(a)
		}
		b.WriteByte('\x1f')
		b.WriteString(q.Hint)
		b.WriteByte('\x1f')
		b.WriteString(q.Help)
	}
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
