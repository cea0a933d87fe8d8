package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"quizzable/internal/config"
	"quizzable/internal/database"
	"quizzable/internal/models"
	"quizzable/internal/repository"
	"quizzable/internal/search"
	"quizzable/internal/service"
	"quizzable/internal/session"
)

func main() {
	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	examBoardRepo := repository.NewExamBoardRepository(db)

	a := &app{
		in:      bufio.NewScanner(os.Stdin),
		cfg:     cfg,
		auth:    service.NewAuthService(userRepo, cfg),
		catalog: service.NewCatalogService(quizRepo, questionRepo, resultRepo, subjectRepo, examBoardRepo),
		stats:   service.NewStatsService(resultRepo, quizRepo),
		results: resultRepo,
	}
	a.run()
}

type app struct {
	in      *bufio.Scanner
	cfg     *config.Config
	auth    *service.AuthService
	catalog *service.CatalogService
	stats   *service.StatsService
	results *repository.ResultRepository
	user    *models.User
}

func (a *app) run() {
	fmt.Println("Quizzable")
	if err := a.login(); err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	fmt.Printf("Welcome, %s\n", a.user.Name)

	for {
		fmt.Println()
		fmt.Println("[1] Browse quizzes  [2] Author quiz  [3] Statistics  [4] Import  [5] Export  [6] Settings  [q] Quit")
		switch a.prompt("> ") {
		case "1":
			a.browse()
		case "2":
			a.author()
		case "3":
			a.showStats()
		case "4":
			a.importQuiz()
		case "5":
			a.exportQuiz()
		case "6":
			a.settings()
		case "q":
			return
		}
	}
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	if !a.in.Scan() {
		os.Exit(0)
	}
	return strings.TrimSpace(a.in.Text())
}

func (a *app) login() error {
	if user, err := a.auth.RememberedUser(); err == nil {
		a.user = user
		return nil
	}

	for {
		name := a.prompt("Profile name (new names create a profile): ")
		if name == "" {
			continue
		}
		exists, err := a.auth.UserExists(name)
		if err != nil {
			return err
		}

		var user *models.User
		if !exists {
			if user, err = a.createProfile(name); err != nil {
				fmt.Println(err)
				continue
			}
		} else {
			password := a.prompt("Password (blank if none): ")
			if user, err = a.auth.Login(name, password); err != nil {
				if errors.Is(err, service.ErrInvalidCredentials) {
					fmt.Println(err)
					continue
				}
				return err
			}
		}
		a.user = user
		if a.prompt("Remember this profile? [y/N] ") == "y" {
			if err := a.auth.RememberUser(user); err != nil {
				fmt.Println(err)
			}
		}
		return nil
	}
}

func (a *app) createProfile(name string) (*models.User, error) {
	password := a.prompt("Choose a password (blank for none): ")
	mode := a.promptTimerMode()
	return a.auth.CreateUser(name, password, mode, nil)
}

func (a *app) promptTimerMode() models.TimerMode {
	switch a.prompt("Timer [n]one, [l]ong or [s]hort: ") {
	case "l":
		return models.TimerLong
	case "s":
		return models.TimerShort
	default:
		return models.TimerNone
	}
}

// browse shows the filtered, ranked catalog and dispatches take, edit and
// delete actions on the selected quiz
func (a *app) browse() {
	lookups, err := a.catalog.Lookups()
	if err != nil {
		fmt.Println(err)
		return
	}
	filters := a.promptFilters(lookups)

	catalog, err := a.catalog.Snapshot(a.user.ID)
	if err != nil {
		fmt.Println(err)
		return
	}
	rows := search.Apply(catalog, filters)
	if len(rows) == 0 {
		fmt.Println("No quizzes match.")
		return
	}

	for _, row := range rows {
		line := fmt.Sprintf("#%d %s", row.QuizID, row.Name)
		if name := lookups.SubjectName(row.SubjectID); name != "" {
			line += " [" + name + "]"
		}
		line += fmt.Sprintf(" difficulty %d, %d questions", row.Difficulty, row.QuestionCount)
		if best, ok := row.BestAttempt(); ok {
			line += fmt.Sprintf(" (best %.0f%% in %s)", best.Score*100, models.FormatDuration(best.TotalDuration))
		}
		fmt.Println(line)
	}

	choice := a.prompt("Quiz id to take, d<id> to delete, e<id> to edit, blank to cancel: ")
	if choice == "" {
		return
	}
	if id, ok := strings.CutPrefix(choice, "d"); ok {
		a.deleteQuiz(id)
		return
	}
	if id, ok := strings.CutPrefix(choice, "e"); ok {
		a.editQuiz(id)
		return
	}
	quizID, err := strconv.ParseInt(choice, 10, 64)
	if err != nil {
		fmt.Println("Not a quiz id.")
		return
	}
	a.takeQuiz(quizID)
}

// promptFilters collects the browse restrictions; every answer is optional
func (a *app) promptFilters(lookups *models.Lookups) search.Filters {
	var filters search.Filters
	if name := a.prompt("Subject filter (blank for any): "); name != "" {
		filters.SubjectID = matchName(lookups.SubjectIDs, name)
	}
	boardLabel := "Exam board filter (blank for any): "
	if a.user.DefaultExamBoardID != nil {
		boardLabel = fmt.Sprintf("Exam board filter (blank for your default %q, '-' for any): ",
			lookups.ExamBoardName(a.user.DefaultExamBoardID))
	}
	switch name := a.prompt(boardLabel); {
	case name == "" && a.user.DefaultExamBoardID != nil:
		filters.ExamBoardID = a.user.DefaultExamBoardID
	case name != "" && name != "-":
		filters.ExamBoardID = matchName(lookups.ExamBoardIDs, name)
	}
	if raw := a.prompt("Difficulty filter, e.g. 3, 3+ or 3- (blank for any): "); raw != "" {
		if f := parseDifficulty(raw); f != nil {
			filters.Difficulty = f
		}
	}
	filters.Query = a.prompt("Search terms (blank for all): ")
	return filters
}

// matchName resolves a typed name case-insensitively. An unknown name maps to
// an id no quiz carries, so the filter simply matches nothing.
func matchName(ids map[string]int64, name string) *int64 {
	for candidate, id := range ids {
		if strings.EqualFold(candidate, name) {
			return &id
		}
	}
	missing := int64(-1)
	return &missing
}

func parseDifficulty(raw string) *search.DifficultyFilter {
	op := search.DifficultyExact
	if level, ok := strings.CutSuffix(raw, "+"); ok {
		op, raw = search.DifficultyAtLeast, level
	} else if level, ok := strings.CutSuffix(raw, "-"); ok {
		op, raw = search.DifficultyAtMost, level
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &search.DifficultyFilter{Op: op, Level: level}
}

func (a *app) takeQuiz(quizID int64) {
	quiz, err := a.catalog.LoadQuiz(quizID)
	if err != nil {
		fmt.Println(err)
		return
	}

	sess, err := session.New(session.Config{
		Quiz: *quiz,
		User: *a.user,
		Sink: func(result models.Result) error {
			return a.results.InsertResult(&result)
		},
		PollInterval: a.cfg.PollInterval,
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := sess.Start(); err != nil {
		fmt.Println(err)
		return
	}

	a.playSession(sess)

	summary, ok := sess.Results()
	if !ok {
		return
	}
	fmt.Printf("\nScore: %.0f%% (%d/%d correct, %d answered)\n",
		summary.Score*100, summary.CorrectCount, summary.TotalQuestions, summary.QuestionsAnswered)
	fmt.Printf("Total time %s, average answer time %.1fs\n",
		models.FormatDuration(summary.TotalDuration), summary.AverageAnswerTime)
	if summary.SaveErr != nil {
		fmt.Printf("Warning: result was not saved: %v\n", summary.SaveErr)
	}
}

// playSession renders snapshots and forwards keystrokes until the attempt
// finishes. Input is line-based, so the countdown only refreshes on enter;
// the worker keeps enforcing budgets regardless of what the terminal shows.
func (a *app) playSession(sess *session.Session) {
	fmt.Println("Type the option number to answer; h hint, ? help, p pause, f finish, enter to refresh.")

	var last session.ViewModel
	first := true
	for {
		view := sess.Snapshot()
		if view.State == session.Finished {
			return
		}
		if first || view.State != last.State || view.QuestionIndex != last.QuestionIndex || view.Outcome != last.Outcome {
			renderView(view)
			last, first = view, false
		}

		line := a.prompt("> ")
		if line != "" {
			a.applyInput(sess, line)
		}
		// give the worker a tick to consume the signal before re-rendering
		time.Sleep(2 * a.cfg.PollInterval)
	}
}

func (a *app) applyInput(sess *session.Session, line string) {
	switch line {
	case "p":
		sess.TogglePause()
	case "f":
		sess.RequestFinish()
	case "h":
		if hint, ok := sess.RequestHint(); ok {
			fmt.Println("Hint:", hint)
		}
	case "?":
		if help, ok := sess.RequestHelp(); ok {
			fmt.Println("Help (counts as a wrong answer):", help)
		}
	default:
		if n, err := strconv.Atoi(line); err == nil && n >= 1 {
			sess.SubmitAnswer(n - 1)
		}
	}
}

func renderView(view session.ViewModel) {
	switch view.State {
	case session.Paused:
		fmt.Println("-- paused (p to resume) --")
	case session.AwaitingAnswer:
		fmt.Printf("\nQuestion %d of %d: %s\n", view.QuestionIndex+1, view.TotalQuestions, view.QuestionText)
		for i, answer := range view.Answers {
			fmt.Printf("  [%d] %s\n", i+1, answer)
		}
		extras := "p pause, f finish"
		if view.HintAvailable {
			extras = "h hint, " + extras
		}
		if view.HelpAvailable {
			extras = "? help, " + extras
		}
		if view.RemainingSeconds != nil {
			fmt.Printf("(%ds left; %s)\n", int(*view.RemainingSeconds), extras)
		} else {
			fmt.Printf("(%s)\n", extras)
		}
	case session.AnswerShown:
		fmt.Printf("%s. The answer was: %s\n", view.Outcome, view.Answers[view.CorrectIndex])
	}
}

func (a *app) author() {
	quiz := &models.Quiz{}
	quiz.Name = a.prompt("Quiz name: ")

	lookups, err := a.catalog.Lookups()
	if err != nil {
		fmt.Println(err)
		return
	}
	quiz.SubjectID = a.promptNamed("Subject", lookups.SubjectNames)
	quiz.ExamBoardID = a.promptNamed("Exam board", lookups.ExamBoardNames)
	quiz.Difficulty, _ = strconv.Atoi(a.prompt("Difficulty (1-5): "))
	quiz.Tags = models.SplitTags(a.prompt("Tags (comma separated): "))

	for {
		question, ok := a.promptQuestion()
		if !ok {
			break
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := a.catalog.SaveQuiz(quiz); err != nil {
		fmt.Println("Not saved:", err)
		return
	}
	fmt.Printf("Saved quiz #%d with %d questions.\n", quiz.ID, len(quiz.Questions))
}

func (a *app) promptNamed(label string, names map[int64]string) *int64 {
	if len(names) > 0 {
		var sorted []string
		for _, name := range names {
			sorted = append(sorted, name)
		}
		sort.Strings(sorted)
		fmt.Printf("Known: %s\n", strings.Join(sorted, ", "))
	}
	name := a.prompt(label + " (blank for none): ")
	if name == "" {
		return nil
	}
	ensure := a.catalog.EnsureExamBoard
	if label == "Subject" {
		ensure = a.catalog.EnsureSubject
	}
	id, err := ensure(name)
	if err != nil {
		fmt.Println(err)
		return nil
	}
	return id
}

func (a *app) promptQuestion() (models.Question, bool) {
	text := a.prompt("Question text (blank to stop adding): ")
	if text == "" {
		return models.Question{}, false
	}
	question := models.Question{
		Text:          text,
		CorrectAnswer: a.prompt("Correct answer: "),
	}
	for i := 0; i < 3; i++ {
		wrong := a.prompt(fmt.Sprintf("Wrong answer %d (blank to stop): ", i+1))
		if wrong == "" {
			break
		}
		question.OtherAnswers = append(question.OtherAnswers, wrong)
	}
	question.Hint = a.prompt("Hint (optional): ")
	question.Help = a.prompt("Help text (optional): ")
	if err := question.Validate(); err != nil {
		fmt.Println("Question rejected:", err)
		return a.promptQuestion()
	}
	return question, true
}

func (a *app) editQuiz(raw string) {
	quizID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Println("Not a quiz id.")
		return
	}
	quiz, err := a.catalog.LoadQuiz(quizID)
	if err != nil {
		fmt.Println(err)
		return
	}

	if name := a.prompt(fmt.Sprintf("Name [%s]: ", quiz.Name)); name != "" {
		quiz.Name = name
	}
	if raw := a.prompt(fmt.Sprintf("Difficulty [%d]: ", quiz.Difficulty)); raw != "" {
		quiz.Difficulty, _ = strconv.Atoi(raw)
	}
	if tags := a.prompt(fmt.Sprintf("Tags [%s]: ", quiz.TagsCSV())); tags != "" {
		quiz.Tags = models.SplitTags(tags)
	}
	if a.prompt("Replace all questions? [y/N] ") == "y" {
		quiz.Questions = nil
		for {
			question, ok := a.promptQuestion()
			if !ok {
				break
			}
			quiz.Questions = append(quiz.Questions, question)
		}
	}

	if err := a.catalog.UpdateQuiz(quiz); err != nil {
		fmt.Println("Not saved:", err)
		return
	}
	fmt.Println("Quiz updated.")
}

func (a *app) deleteQuiz(raw string) {
	quizID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Println("Not a quiz id.")
		return
	}
	if a.prompt("Delete the quiz and all results for it? [y/N] ") != "y" {
		return
	}
	if err := a.catalog.DeleteQuiz(quizID); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("Quiz deleted.")
}

func (a *app) showStats() {
	lookups, err := a.catalog.Lookups()
	if err != nil {
		fmt.Println(err)
		return
	}
	var filters repository.ResultFilters
	if name := a.prompt("Restrict to subject (blank for all): "); name != "" {
		filters.SubjectID = matchName(lookups.SubjectIDs, name)
	}

	overview, err := a.stats.Overview(a.user.ID, filters)
	if err != nil {
		fmt.Println(err)
		return
	}
	if overview.TotalAttempts == 0 {
		fmt.Println("No attempts yet.")
		return
	}

	fmt.Printf("Attempts: %d\n", overview.TotalAttempts)
	fmt.Printf("Average score: %.0f%% all time, %.0f%% recently\n",
		overview.AllTimeAverage*100, overview.RecentAverage*100)
	fmt.Printf("Average answer time: %.1fs, average quiz time: %s\n",
		overview.AverageAnswerTime, models.FormatDuration(overview.AverageDuration))
	fmt.Printf("Typical completion hour: %02d:00\n", int(overview.AverageHour))
	printPeriod("Morning", overview.Morning)
	printPeriod("Afternoon", overview.Afternoon)
	printPeriod("Evening", overview.Evening)

	fmt.Println("Score distribution:")
	for band, count := range overview.ScoreBands {
		if count == 0 {
			continue
		}
		if band == service.ScoreBandCount-1 {
			fmt.Printf("  100%%:    %s\n", strings.Repeat("#", count))
		} else {
			fmt.Printf("  %2d-%2d%%: %s\n", band*10, band*10+9, strings.Repeat("#", count))
		}
	}

	redo, err := a.stats.RedoList(a.user.ID, filters)
	if err != nil {
		fmt.Println(err)
		return
	}
	if len(redo) > 0 {
		fmt.Println("Worth retaking:")
		for _, entry := range redo {
			fmt.Printf("  #%d %s (recently %.0f%%, best %.0f%%)\n",
				entry.QuizID, entry.Name, entry.RecentScore*100, entry.BestScore*100)
		}
	}
}

func printPeriod(label string, stats service.PeriodStats) {
	if stats.Attempts == 0 {
		return
	}
	fmt.Printf("%s: %d attempts averaging %.0f%%\n", label, stats.Attempts, stats.AverageScore*100)
}

func (a *app) importQuiz() {
	path := a.prompt("Path of quiz file to import: ")
	f, err := os.Open(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer f.Close()

	quiz, err := a.catalog.ImportQuiz(f)
	if err != nil {
		fmt.Println("Import failed:", err)
		return
	}
	fmt.Printf("Imported %q as quiz #%d.\n", quiz.Name, quiz.ID)
}

func (a *app) exportQuiz() {
	quizID, err := strconv.ParseInt(a.prompt("Quiz id to export: "), 10, 64)
	if err != nil {
		fmt.Println("Not a quiz id.")
		return
	}
	path := a.prompt("Write to file: ")
	f, err := os.Create(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer f.Close()

	if err := a.catalog.ExportQuiz(quizID, f); err != nil {
		fmt.Println("Export failed:", err)
		return
	}
	fmt.Println("Exported.")
}

func (a *app) settings() {
	mode := a.promptTimerMode()
	board := a.user.DefaultExamBoardID
	lookups, err := a.catalog.Lookups()
	if err != nil {
		fmt.Println(err)
		return
	}
	if name := a.prompt("Default exam board (blank to keep, '-' to clear): "); name == "-" {
		board = nil
	} else if name != "" {
		board = matchName(lookups.ExamBoardIDs, name)
	}
	if err := a.auth.UpdateSettings(a.user, mode, board); err != nil {
		fmt.Println(err)
		return
	}
	if a.prompt("Forget remembered profile on this machine? [y/N] ") == "y" {
		if err := a.auth.ForgetUser(); err != nil {
			fmt.Println(err)
		}
	}
	fmt.Println("Settings saved.")
}
