package session

// State is the session machine's explicit state register
type State int

const (
	NotStarted State = iota
	AwaitingAnswer
	AnswerShown
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case AwaitingAnswer:
		return "awaiting answer"
	case AnswerShown:
		return "answer shown"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Outcome describes how the current question was resolved
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeCorrect
	OutcomeWrong
	OutcomeOutOfTime
	OutcomeHelpUsed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	case OutcomeOutOfTime:
		return "out of time"
	case OutcomeHelpUsed:
		return "help used"
	default:
		return ""
	}
}

// ViewModel is the presentation snapshot published after every poll tick.
// The worker is its sole writer; callers receive a copy and render it.
type ViewModel struct {
	State          State
	QuestionIndex  int
	TotalQuestions int
	QuestionText   string
	Answers        []string
	// CorrectIndex is -1 until the answer is shown
	CorrectIndex  int
	ChosenIndex   int
	HintAvailable bool
	HelpAvailable bool
	// RemainingSeconds is nil when no time budget applies
	RemainingSeconds *float64
	Outcome          Outcome
	CorrectCount     int
}

// Summary is the terminal view model exposed once the session finishes
type Summary struct {
	Score             float64
	CorrectCount      int
	QuestionsAnswered int
	TotalQuestions    int
	TotalDuration     float64
	AverageAnswerTime float64
	// SaveErr reports a result-write failure; the session still counts as
	// finished from the user's perspective
	SaveErr error
}
