package service

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quizzable/internal/config"
	"quizzable/internal/database"
	"quizzable/internal/models"
	"quizzable/internal/repository"
)

type testEnv struct {
	auth    *AuthService
	catalog *CatalogService
	stats   *StatsService
	results *repository.ResultRepository
	quizzes *repository.QuizRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cfg := &config.Config{
		AuthSecret: "test-secret",
		TokenPath:  filepath.Join(t.TempDir(), "token"),
	}
	userRepo := repository.NewUserRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	resultRepo := repository.NewResultRepository(db)

	return &testEnv{
		auth:    NewAuthService(userRepo, cfg),
		catalog: NewCatalogService(quizRepo, questionRepo, resultRepo, repository.NewSubjectRepository(db), repository.NewExamBoardRepository(db)),
		stats:   NewStatsService(resultRepo, quizRepo),
		results: resultRepo,
		quizzes: quizRepo,
	}
}

func testQuiz(name string) *models.Quiz {
	return &models.Quiz{
		Name:       name,
		Difficulty: 2,
		Tags:       []string{"maths"},
		Questions: []models.Question{
			{Text: "What is 2 + 2?", CorrectAnswer: "4", OtherAnswers: []string{"3", "5"}},
			{Text: "What is 3 x 3?", CorrectAnswer: "9", OtherAnswers: []string{"6", "12"}, Hint: "Think squares"},
		},
	}
}

func TestAuthLifecycle(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.auth.CreateUser("alice", "secret", models.TimerLong, nil)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if _, err := env.auth.CreateUser("alice", "", models.TimerNone, nil); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate CreateUser() = %v, want ErrUserExists", err)
	}

	if _, err := env.auth.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with bad password = %v, want ErrInvalidCredentials", err)
	}
	logged, err := env.auth.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if logged.ID != user.ID || logged.TimerMode != models.TimerLong {
		t.Errorf("Login() returned %+v", logged)
	}

	// open profiles accept any password
	if _, err := env.auth.CreateUser("bob", "", models.TimerNone, nil); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if _, err := env.auth.Login("bob", "anything"); err != nil {
		t.Errorf("Login() on an open profile = %v, want success", err)
	}

	if err := env.auth.RememberUser(user); err != nil {
		t.Fatalf("RememberUser() failed: %v", err)
	}
	remembered, err := env.auth.RememberedUser()
	if err != nil {
		t.Fatalf("RememberedUser() failed: %v", err)
	}
	if remembered.ID != user.ID {
		t.Errorf("RememberedUser() resolved user %d, want %d", remembered.ID, user.ID)
	}
	if err := env.auth.ForgetUser(); err != nil {
		t.Fatalf("ForgetUser() failed: %v", err)
	}
	if _, err := env.auth.RememberedUser(); !errors.Is(err, ErrNoRememberedUser) {
		t.Errorf("RememberedUser() after forget = %v, want ErrNoRememberedUser", err)
	}

	if err := env.auth.UpdateSettings(user, models.TimerShort, nil); err != nil {
		t.Fatalf("UpdateSettings() failed: %v", err)
	}
	reloaded, err := env.auth.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if reloaded.TimerMode != models.TimerShort {
		t.Errorf("timer mode after update = %v, want short", reloaded.TimerMode)
	}
}

func TestQuizAuthoringLifecycle(t *testing.T) {
	env := newTestEnv(t)

	quiz := testQuiz("Algebra Basics")
	var err error
	if quiz.SubjectID, err = env.catalog.EnsureSubject("Maths"); err != nil {
		t.Fatalf("EnsureSubject() failed: %v", err)
	}
	if err := env.catalog.SaveQuiz(quiz); err != nil {
		t.Fatalf("SaveQuiz() failed: %v", err)
	}
	if quiz.ID == 0 || quiz.Hash == "" {
		t.Fatalf("SaveQuiz() left id %d hash %q", quiz.ID, quiz.Hash)
	}

	// resolving the same subject again must reuse the record
	again, err := env.catalog.EnsureSubject("maths")
	if err != nil {
		t.Fatalf("EnsureSubject() failed: %v", err)
	}
	if *again != *quiz.SubjectID {
		t.Errorf("EnsureSubject() created a duplicate: %d vs %d", *again, *quiz.SubjectID)
	}

	short := testQuiz("Too Short")
	short.Questions = short.Questions[:1]
	if err := env.catalog.SaveQuiz(short); !errors.Is(err, ErrTooFewQuestions) {
		t.Errorf("SaveQuiz() with one question = %v, want ErrTooFewQuestions", err)
	}

	loaded, err := env.catalog.LoadQuiz(quiz.ID)
	if err != nil {
		t.Fatalf("LoadQuiz() failed: %v", err)
	}
	if loaded.Name != "Algebra Basics" || len(loaded.Questions) != 2 {
		t.Errorf("LoadQuiz() = %+v", loaded)
	}
	if len(loaded.Questions[0].OtherAnswers) != 2 {
		t.Errorf("wrong answers survived as %v", loaded.Questions[0].OtherAnswers)
	}
	if loaded.Questions[1].Hint != "Think squares" {
		t.Errorf("hint survived as %q", loaded.Questions[1].Hint)
	}

	// edit: rename and replace the question set
	loaded.Name = "Algebra Basics v2"
	loaded.Questions = append(loaded.Questions, models.Question{
		Text: "What is 10 / 2?", CorrectAnswer: "5", OtherAnswers: []string{"2"},
	})
	if err := env.catalog.UpdateQuiz(loaded); err != nil {
		t.Fatalf("UpdateQuiz() failed: %v", err)
	}
	edited, err := env.catalog.LoadQuiz(quiz.ID)
	if err != nil {
		t.Fatalf("LoadQuiz() after edit failed: %v", err)
	}
	if edited.Name != "Algebra Basics v2" || len(edited.Questions) != 3 {
		t.Errorf("edit did not stick: %+v", edited)
	}

	if err := env.catalog.DeleteQuiz(quiz.ID); err != nil {
		t.Fatalf("DeleteQuiz() failed: %v", err)
	}
	if _, err := env.catalog.LoadQuiz(quiz.ID); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("LoadQuiz() after delete = %v, want ErrQuizNotFound", err)
	}
}

func TestLoadQuizDetectsCorruption(t *testing.T) {
	env := newTestEnv(t)

	quiz := testQuiz("Corrupt Me")
	if err := env.catalog.SaveQuiz(quiz); err != nil {
		t.Fatalf("SaveQuiz() failed: %v", err)
	}

	// knock the recorded count out of step with the stored rows
	quiz.Questions = quiz.Questions[:1]
	if err := env.quizzes.UpdateQuiz(quiz); err != nil {
		t.Fatalf("UpdateQuiz() failed: %v", err)
	}

	if _, err := env.catalog.LoadQuiz(quiz.ID); !errors.Is(err, ErrQuizCorrupt) {
		t.Errorf("LoadQuiz() on inconsistent data = %v, want ErrQuizCorrupt", err)
	}
}

func TestImportExport(t *testing.T) {
	env := newTestEnv(t)

	quiz := testQuiz("Shared Quiz")
	var err error
	if quiz.SubjectID, err = env.catalog.EnsureSubject("Maths"); err != nil {
		t.Fatalf("EnsureSubject() failed: %v", err)
	}
	if err := env.catalog.SaveQuiz(quiz); err != nil {
		t.Fatalf("SaveQuiz() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := env.catalog.ExportQuiz(quiz.ID, &buf); err != nil {
		t.Fatalf("ExportQuiz() failed: %v", err)
	}
	exported := buf.String()
	if !strings.Contains(exported, "Shared Quiz") || !strings.Contains(exported, "Maths") {
		t.Errorf("export is missing names:\n%s", exported)
	}

	// importing our own export is a duplicate
	if _, err := env.catalog.ImportQuiz(strings.NewReader(exported)); !errors.Is(err, ErrDuplicateQuiz) {
		t.Errorf("ImportQuiz() of an existing quiz = %v, want ErrDuplicateQuiz", err)
	}

	// a modified copy imports cleanly and auto-creates its exam board
	modified := strings.Replace(exported, "Shared Quiz", "Shared Quiz Copy", 1)
	modified = strings.Replace(modified, "</title>", "</title><examBoardName>Edexcel</examBoardName>", 1)
	imported, err := env.catalog.ImportQuiz(strings.NewReader(modified))
	if err != nil {
		t.Fatalf("ImportQuiz() failed: %v", err)
	}
	if imported.Name != "Shared Quiz Copy" || len(imported.Questions) != 2 {
		t.Errorf("ImportQuiz() = %+v", imported)
	}
	if imported.ExamBoardID == nil {
		t.Error("import did not create the exam board")
	}

	lookups, err := env.catalog.Lookups()
	if err != nil {
		t.Fatalf("Lookups() failed: %v", err)
	}
	if lookups.ExamBoardName(imported.ExamBoardID) != "Edexcel" {
		t.Errorf("exam board name = %q, want Edexcel", lookups.ExamBoardName(imported.ExamBoardID))
	}
}

func TestSnapshotAttachesBestAttempts(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.auth.CreateUser("carol", "", models.TimerNone, nil)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	quiz := testQuiz("Attempted Quiz")
	if err := env.catalog.SaveQuiz(quiz); err != nil {
		t.Fatalf("SaveQuiz() failed: %v", err)
	}

	insert := func(score, duration float64, when time.Time) {
		t.Helper()
		err := env.results.InsertResult(&models.Result{
			UserID: user.ID, QuizID: quiz.ID, Score: score,
			DateCompleted: when, AverageAnswerTime: 3, TotalDuration: duration,
		})
		if err != nil {
			t.Fatalf("InsertResult() failed: %v", err)
		}
	}
	now := time.Now()
	insert(0.5, 30, now.Add(-2*time.Hour))
	insert(1.0, 40, now.Add(-time.Hour))
	insert(1.0, 25, now)

	catalog, err := env.catalog.Snapshot(user.ID)
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if len(catalog) != 1 {
		t.Fatalf("Snapshot() returned %d rows, want 1", len(catalog))
	}
	best, ok := catalog[0].BestAttempt()
	if !ok {
		t.Fatal("no best attempt attached")
	}
	// best is highest score, then fastest
	if best.Score != 1.0 || best.TotalDuration != 25 {
		t.Errorf("best attempt = score %v duration %v, want the fast perfect run", best.Score, best.TotalDuration)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.auth.CreateUser("dave", "", models.TimerNone, nil)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	weak := testQuiz("Weak Topic")
	strong := testQuiz("Strong Topic")
	if err := env.catalog.SaveQuiz(weak); err != nil {
		t.Fatalf("SaveQuiz() failed: %v", err)
	}
	if err := env.catalog.SaveQuiz(strong); err != nil {
		t.Fatalf("SaveQuiz() failed: %v", err)
	}

	morning := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	attempts := []models.Result{
		{QuizID: weak.ID, Score: 0.2, DateCompleted: morning},
		{QuizID: weak.ID, Score: 0.4, DateCompleted: morning.Add(time.Hour)},
		{QuizID: strong.ID, Score: 1.0, DateCompleted: evening},
		{QuizID: strong.ID, Score: 0.9, DateCompleted: evening.Add(time.Hour)},
	}
	for i := range attempts {
		attempts[i].UserID = user.ID
		attempts[i].AverageAnswerTime = 4
		attempts[i].TotalDuration = 20
		if err := env.results.InsertResult(&attempts[i]); err != nil {
			t.Fatalf("InsertResult() failed: %v", err)
		}
	}

	overview, err := env.stats.Overview(user.ID, repository.ResultFilters{})
	if err != nil {
		t.Fatalf("Overview() failed: %v", err)
	}
	if overview.TotalAttempts != 4 {
		t.Errorf("TotalAttempts = %d, want 4", overview.TotalAttempts)
	}
	if want := (0.2 + 0.4 + 1.0 + 0.9) / 4; math.Abs(overview.AllTimeAverage-want) > 1e-9 {
		t.Errorf("AllTimeAverage = %v, want %v", overview.AllTimeAverage, want)
	}
	// completion hours 9, 10, 20 and 21 average out to 15
	if overview.AverageHour != 15 {
		t.Errorf("AverageHour = %v, want 15", overview.AverageHour)
	}
	if overview.Morning.Attempts != 2 || overview.Evening.Attempts != 2 {
		t.Errorf("period split = morning %d evening %d, want 2 and 2",
			overview.Morning.Attempts, overview.Evening.Attempts)
	}
	if overview.ScoreBands[2] != 1 || overview.ScoreBands[4] != 1 || overview.ScoreBands[9] != 1 || overview.ScoreBands[10] != 1 {
		t.Errorf("score bands = %v", overview.ScoreBands)
	}

	redo, err := env.stats.RedoList(user.ID, repository.ResultFilters{})
	if err != nil {
		t.Fatalf("RedoList() failed: %v", err)
	}
	if len(redo) != 1 || redo[0].QuizID != weak.ID {
		t.Fatalf("RedoList() = %+v, want only the weak quiz", redo)
	}
	if redo[0].BestScore != 0.4 || redo[0].Attempts != 2 {
		t.Errorf("redo entry = %+v", redo[0])
	}

	// restricting to a difficulty nothing matches empties the stats
	level := 5
	filtered, err := env.stats.Overview(user.ID, repository.ResultFilters{Difficulty: &level})
	if err != nil {
		t.Fatalf("Overview() with filters failed: %v", err)
	}
	if filtered.TotalAttempts != 0 {
		t.Errorf("filtered TotalAttempts = %d, want 0", filtered.TotalAttempts)
	}
}
