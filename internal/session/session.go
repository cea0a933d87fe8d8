// Package session drives a single timed quiz attempt. A polling worker
// samples wall-clock time and pending user input at a fixed interval and is
// the sole mutator of session state; user events arrive as asynchronous
// edge-triggered signals, and the presentation layer only ever reads
// published snapshots.
package session

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizzable/internal/models"
)

var (
	ErrNoQuestions    = errors.New("quiz has no questions")
	ErrAlreadyStarted = errors.New("session already started")
)

// DefaultPollInterval defines the timer resolution of the answering loop
const DefaultPollInterval = 100 * time.Millisecond

// ResultSink persists a completed attempt. It is invoked exactly once per
// session, even when the summary view is re-entered.
type ResultSink func(models.Result) error

// Config assembles a session's collaborators. Quiz is an immutable snapshot
// owned by the session; Clock and Rand default to the real clock and a
// time-seeded source.
type Config struct {
	Quiz         models.Quiz
	User         models.User
	Sink         ResultSink
	Clock        func() time.Time
	PollInterval time.Duration
	Rand         *rand.Rand
}

// pendingInput holds signals delivered since the last tick. The worker
// consumes the whole set exactly once per tick; stale signals (an answer
// after the question window closed) are discarded there.
type pendingInput struct {
	answer      int
	hasAnswer   bool
	help        bool
	pauseToggle bool
	finish      bool
}

// Session is one user's attempt at one quiz
type Session struct {
	ID string

	quiz  models.Quiz
	user  models.User
	sink  ResultSink
	clock func() time.Time
	poll  time.Duration
	rng   *rand.Rand

	mu      sync.Mutex
	pending pendingInput
	view    ViewModel
	summary Summary

	// Worker-owned state; only tick mutates these.
	state       State
	resumeState State
	index       int
	answers     []string
	correctIdx  int

	questionStart time.Time
	advanceAt     time.Time
	budget        time.Duration
	hasBudget     bool

	startTime   time.Time
	pausedAt    time.Time
	totalPaused time.Duration

	latencies    []float64
	correctCount int
	lastOutcome  Outcome
	chosenIdx    int

	resultSaved bool
	started     bool

	done chan struct{}
	stop chan struct{}
}

// New validates the quiz snapshot and builds a session in the NOT_STARTED
// state. Inconsistent question data fails here, synchronously, before any
// polling begins.
func New(cfg Config) (*Session, error) {
	if len(cfg.Quiz.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	for i := range cfg.Quiz.Questions {
		if err := cfg.Quiz.Questions[i].Validate(); err != nil {
			return nil, err
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Session{
		ID:         uuid.New().String(),
		quiz:       cfg.Quiz,
		user:       cfg.User,
		sink:       cfg.Sink,
		clock:      clock,
		poll:       poll,
		rng:        rng,
		state:      NotStarted,
		correctIdx: -1,
		chosenIdx:  -1,
		latencies:  make([]float64, 0, len(cfg.Quiz.Questions)),
		done:       make(chan struct{}),
		stop:       make(chan struct{}),
	}, nil
}

// Start begins the attempt and launches the polling worker
func (s *Session) Start() error {
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.begin(s.clock())
	go s.run()
	return nil
}

// run is the polling loop; it exits once the machine reaches FINISHED
func (s *Session) run() {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if s.tick(s.clock()) {
				return
			}
		}
	}
}

// SubmitAnswer signals that the user clicked the answer at the given index.
// If the question window has already closed the signal is dropped on the
// next tick.
func (s *Session) SubmitAnswer(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending.hasAnswer {
		return
	}
	s.pending.answer = index
	s.pending.hasAnswer = true
}

// RequestHint returns the current question's hint text. Hints carry no
// scoring penalty and do not advance the machine.
func (s *Session) RequestHint() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.State != AwaitingAnswer || !s.view.HintAvailable {
		return "", false
	}
	return s.quiz.Questions[s.view.QuestionIndex].Hint, true
}

// RequestHelp signals that the user opened the help text, which counts as a
// wrong answer for the current question. The help text is returned for
// display.
func (s *Session) RequestHelp() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.State != AwaitingAnswer || !s.view.HelpAvailable {
		return "", false
	}
	s.pending.help = true
	return s.quiz.Questions[s.view.QuestionIndex].Help, true
}

// TogglePause signals a pause or resume. Toggles are edge-triggered: two
// toggles within one poll interval cancel out.
func (s *Session) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.pauseToggle = !s.pending.pauseToggle
}

// RequestFinish signals early termination; the machine transitions straight
// to FINISHED and emits a result from whatever has been accumulated.
func (s *Session) RequestFinish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.finish = true
}

// Snapshot returns the latest published view model
func (s *Session) Snapshot() ViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := s.view
	view.Answers = append([]string(nil), s.view.Answers...)
	if s.view.RemainingSeconds != nil {
		remaining := *s.view.RemainingSeconds
		view.RemainingSeconds = &remaining
	}
	return view
}

// Results returns the terminal summary once the session has finished.
// Calling it repeatedly is safe; the result row is never written twice.
func (s *Session) Results() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.State != Finished {
		return Summary{}, false
	}
	return s.summary, true
}

// Done is closed when the session reaches FINISHED
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Abort stops the polling worker without emitting a result. Used when the
// presentation layer is torn down mid-attempt.
func (s *Session) Abort() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}
