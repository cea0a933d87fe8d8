package service

import (
	"errors"
	"fmt"
	"io"

	"quizzable/internal/models"
	"quizzable/internal/quizio"
	"quizzable/internal/repository"
)

var (
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizCorrupt flags a stored quiz whose question rows disagree with
	// its recorded question count. Such a quiz must not be played.
	ErrQuizCorrupt     = errors.New("quiz data is inconsistent")
	ErrDuplicateQuiz   = errors.New("an identical quiz already exists")
	ErrTooFewQuestions = errors.New("a quiz needs at least 2 questions")
)

// CatalogService owns the quiz catalog: browsing snapshots, authoring,
// import and export. It is the only layer that translates between subject
// and exam board names and their ids.
type CatalogService struct {
	quizzes    *repository.QuizRepository
	questions  *repository.QuestionRepository
	results    *repository.ResultRepository
	subjects   *repository.SubjectRepository
	examBoards *repository.SubjectRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	quizzes *repository.QuizRepository,
	questions *repository.QuestionRepository,
	results *repository.ResultRepository,
	subjects *repository.SubjectRepository,
	examBoards *repository.SubjectRepository,
) *CatalogService {
	return &CatalogService{
		quizzes:    quizzes,
		questions:  questions,
		results:    results,
		subjects:   subjects,
		examBoards: examBoards,
	}
}

// Snapshot builds the browsing view: every quiz row with the given user's
// attempts attached, best attempt first. Rows keep insertion order; ranking
// is the search engine's concern.
func (s *CatalogService) Snapshot(userID int64) ([]models.CatalogRow, error) {
	catalog, err := s.quizzes.ListQuizRows()
	if err != nil {
		return nil, err
	}
	attempts, err := s.results.ListBestForUser(userID)
	if err != nil {
		return nil, err
	}
	for i := range catalog {
		catalog[i].BestAttempts = attempts[catalog[i].QuizID]
	}
	return catalog, nil
}

// Lookups rebuilds the subject and exam board name maps. Callers refresh
// after any mutation that may have created records.
func (s *CatalogService) Lookups() (*models.Lookups, error) {
	lookups := &models.Lookups{
		SubjectNames:   make(map[int64]string),
		SubjectIDs:     make(map[string]int64),
		ExamBoardNames: make(map[int64]string),
		ExamBoardIDs:   make(map[string]int64),
	}

	subjects, err := s.subjects.List()
	if err != nil {
		return nil, err
	}
	for _, rec := range subjects {
		lookups.SubjectNames[rec.ID] = rec.Name
		lookups.SubjectIDs[rec.Name] = rec.ID
	}

	boards, err := s.examBoards.List()
	if err != nil {
		return nil, err
	}
	for _, rec := range boards {
		lookups.ExamBoardNames[rec.ID] = rec.Name
		lookups.ExamBoardIDs[rec.Name] = rec.ID
	}
	return lookups, nil
}

// SaveQuiz stores a newly authored quiz and its questions, setting the
// generated ids and content hash on the passed quiz
func (s *CatalogService) SaveQuiz(quiz *models.Quiz) error {
	if err := s.checkComplete(quiz); err != nil {
		return err
	}
	quiz.Hash = s.contentHash(quiz)

	id, err := s.quizzes.CreateQuiz(quiz)
	if err != nil {
		return err
	}
	quiz.ID = id
	return s.insertQuestions(quiz)
}

// UpdateQuiz rewrites an edited quiz. The question set is replaced wholesale,
// which keeps the stored rows in step with whatever the editor produced.
func (s *CatalogService) UpdateQuiz(quiz *models.Quiz) error {
	if quiz.ID == 0 {
		return ErrQuizNotFound
	}
	if err := s.checkComplete(quiz); err != nil {
		return err
	}
	quiz.Hash = s.contentHash(quiz)

	if err := s.quizzes.UpdateQuiz(quiz); err != nil {
		return err
	}
	if err := s.questions.DeleteQuestionsForQuiz(quiz.ID); err != nil {
		return err
	}
	return s.insertQuestions(quiz)
}

func (s *CatalogService) checkComplete(quiz *models.Quiz) error {
	if err := quiz.Validate(); err != nil {
		return err
	}
	if len(quiz.Questions) < 2 {
		return ErrTooFewQuestions
	}
	return nil
}

func (s *CatalogService) insertQuestions(quiz *models.Quiz) error {
	for i := range quiz.Questions {
		quiz.Questions[i].QuizID = quiz.ID
		if err := s.questions.InsertQuestion(&quiz.Questions[i]); err != nil {
			return fmt.Errorf("failed to save question %d: %w", i+1, err)
		}
	}
	return nil
}

// DeleteQuiz removes a quiz with its questions and results
func (s *CatalogService) DeleteQuiz(quizID int64) error {
	return s.quizzes.DeleteQuiz(quizID)
}

// LoadQuiz retrieves a quiz with its questions, verifying that the stored
// question rows match the recorded count before handing it to a session
func (s *CatalogService) LoadQuiz(quizID int64) (*models.Quiz, error) {
	quiz, questionCount, err := s.quizzes.GetQuizRow(quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}

	questions, err := s.questions.GetQuestionsForQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if len(questions) != questionCount {
		return nil, fmt.Errorf("%w: quiz %d records %d questions but has %d",
			ErrQuizCorrupt, quizID, questionCount, len(questions))
	}
	quiz.Questions = questions
	return quiz, nil
}

// ImportQuiz reads a quiz interchange file and stores it. Subject and exam
// board names are matched case-insensitively and created when missing. A file
// whose content hash matches an existing quiz is rejected as a duplicate.
func (s *CatalogService) ImportQuiz(r io.Reader) (*models.Quiz, error) {
	file, err := quizio.Parse(r)
	if err != nil {
		return nil, err
	}

	hash := quizio.Hash(file)
	existingID, err := s.quizzes.GetQuizIDByHash(hash)
	if err != nil {
		return nil, err
	}
	if existingID != 0 {
		return nil, ErrDuplicateQuiz
	}

	quiz := &models.Quiz{
		Name:       file.Meta.Title,
		Tags:       models.SplitTags(file.Meta.Tags),
		Difficulty: file.Meta.Difficulty,
	}
	if quiz.SubjectID, err = s.ensureNamed(s.subjects, file.Meta.SubjectName); err != nil {
		return nil, err
	}
	if quiz.ExamBoardID, err = s.ensureNamed(s.examBoards, file.Meta.ExamBoardName); err != nil {
		return nil, err
	}
	for _, entry := range file.Questions {
		quiz.Questions = append(quiz.Questions, models.Question{
			Text:          entry.Text,
			CorrectAnswer: entry.CorrectAnswer,
			OtherAnswers:  entry.OtherAnswers,
			Hint:          entry.Hint,
			Help:          entry.Help,
		})
	}

	if err := s.checkComplete(quiz); err != nil {
		return nil, err
	}
	quiz.Hash = hash
	id, err := s.quizzes.CreateQuiz(quiz)
	if err != nil {
		return nil, err
	}
	quiz.ID = id
	if err := s.insertQuestions(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// ExportQuiz writes a quiz as an interchange file with names instead of ids
func (s *CatalogService) ExportQuiz(quizID int64, w io.Writer) error {
	quiz, err := s.LoadQuiz(quizID)
	if err != nil {
		return err
	}
	lookups, err := s.Lookups()
	if err != nil {
		return err
	}
	return quizio.Export(w, s.toFile(quiz, lookups))
}

// EnsureSubject resolves a subject name to an id, creating the record when it
// is new
func (s *CatalogService) EnsureSubject(name string) (*int64, error) {
	return s.ensureNamed(s.subjects, name)
}

// EnsureExamBoard resolves an exam board name to an id, creating the record
// when it is new
func (s *CatalogService) EnsureExamBoard(name string) (*int64, error) {
	return s.ensureNamed(s.examBoards, name)
}

// ensureNamed resolves a name to an id, creating the record if it is new.
// Empty names map to no reference.
func (s *CatalogService) ensureNamed(repo *repository.SubjectRepository, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	id, err := repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		if id, err = repo.Create(name); err != nil {
			return nil, err
		}
	}
	return &id, nil
}

func (s *CatalogService) toFile(quiz *models.Quiz, lookups *models.Lookups) *quizio.QuizFile {
	file := &quizio.QuizFile{
		Meta: quizio.Meta{
			Title:         quiz.Name,
			SubjectName:   lookups.SubjectName(quiz.SubjectID),
			ExamBoardName: lookups.ExamBoardName(quiz.ExamBoardID),
			Difficulty:    quiz.Difficulty,
			Tags:          quiz.TagsCSV(),
		},
	}
	for _, q := range quiz.Questions {
		file.Questions = append(file.Questions, quizio.QuestionEntry{
			Text:          q.Text,
			CorrectAnswer: q.CorrectAnswer,
			OtherAnswers:  q.OtherAnswers,
			Hint:          q.Hint,
			Help:          q.Help,
		})
	}
	return file
}

// contentHash fingerprints an authored quiz the same way imports are
// fingerprinted, so re-importing an export is caught as a duplicate. Names
// are not resolved here; the hash covers only the quiz's own content.
func (s *CatalogService) contentHash(quiz *models.Quiz) string {
	return quizio.Hash(s.toFile(quiz, &models.Lookups{}))
}
