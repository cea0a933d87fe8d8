package session

import (
	"log"
	"time"

	"quizzable/internal/models"
)

// Post-answer feedback delays before the next question is shown
const (
	correctAdvanceDelay = 1 * time.Second
	wrongAdvanceDelay   = 5 * time.Second
)

// Sentinel answer values, always scored as incorrect
const (
	sentinelTimeout = -2
	sentinelHelp    = -3
)

// begin loads the first question and enters AWAITING_ANSWER
func (s *Session) begin(now time.Time) {
	s.startTime = now
	s.loadQuestion(now)
	s.publish(now)
}

// loadQuestion shuffles and displays the question at the current index. The
// shuffle is re-rolled on every display and never cached.
func (s *Session) loadQuestion(now time.Time) {
	question := &s.quiz.Questions[s.index]
	s.answers, s.correctIdx = question.ShuffledAnswers(s.rng)
	s.questionStart = now
	s.budget, s.hasBudget = s.user.QuestionBudget(s.quiz.Difficulty)
	s.lastOutcome = OutcomeNone
	s.chosenIdx = -1
	s.state = AwaitingAnswer
}

// tick advances the machine by one poll step. It consumes the pending input
// set exactly once and returns true once the machine has reached FINISHED.
// All wall-clock comparisons are pause-aware: pausing shifts the question
// start and advance deadlines forward by the paused duration.
func (s *Session) tick(now time.Time) bool {
	s.mu.Lock()
	input := s.pending
	s.pending = pendingInput{}
	s.mu.Unlock()

	if s.state == Finished {
		return true
	}

	if input.finish {
		s.finalize(now)
		return true
	}

	if input.pauseToggle {
		if s.state == Paused {
			s.resume(now)
		} else if s.state == AwaitingAnswer || s.state == AnswerShown {
			s.resumeState = s.state
			s.pausedAt = now
			s.state = Paused
		}
	}

	if s.state == Paused {
		// Timers are frozen; answer clicks while paused are dropped
		s.publish(now)
		return false
	}

	if s.state == AwaitingAnswer {
		question := &s.quiz.Questions[s.index]
		switch {
		case input.help && question.Help != "":
			s.recordAnswer(now, sentinelHelp)
		case input.hasAnswer && input.answer >= 0 && input.answer < len(s.answers):
			s.recordAnswer(now, input.answer)
		case s.hasBudget && !now.Before(s.questionStart.Add(s.budget)):
			s.recordAnswer(now, sentinelTimeout)
		}
	}

	if s.state == AnswerShown && !now.Before(s.advanceAt) {
		s.index++
		if s.index == len(s.quiz.Questions) {
			s.finalize(now)
			return true
		}
		s.loadQuestion(now)
	}

	s.publish(now)
	return false
}

// recordAnswer evaluates an answer (or sentinel) for the current question
// and enters ANSWER_SHOWN with the appropriate feedback delay
func (s *Session) recordAnswer(now time.Time, answer int) {
	s.chosenIdx = answer
	switch {
	case answer == sentinelTimeout:
		// A timed-out question counts as the full budget
		s.latencies = append(s.latencies, s.budget.Seconds())
		s.lastOutcome = OutcomeOutOfTime
		s.advanceAt = now.Add(wrongAdvanceDelay)
	case answer == sentinelHelp:
		s.latencies = append(s.latencies, now.Sub(s.questionStart).Seconds())
		s.lastOutcome = OutcomeHelpUsed
		s.advanceAt = now.Add(wrongAdvanceDelay)
	case answer == s.correctIdx:
		s.latencies = append(s.latencies, now.Sub(s.questionStart).Seconds())
		s.correctCount++
		s.lastOutcome = OutcomeCorrect
		s.advanceAt = now.Add(correctAdvanceDelay)
	default:
		s.latencies = append(s.latencies, now.Sub(s.questionStart).Seconds())
		s.lastOutcome = OutcomeWrong
		s.advanceAt = now.Add(wrongAdvanceDelay)
	}
	s.state = AnswerShown
}

// resume leaves PAUSED, crediting the paused interval to the pause
// accumulator and shifting every pending deadline past it
func (s *Session) resume(now time.Time) {
	delta := now.Sub(s.pausedAt)
	s.totalPaused += delta
	s.questionStart = s.questionStart.Add(delta)
	s.advanceAt = s.advanceAt.Add(delta)
	s.state = s.resumeState
}

// finalize computes the attempt result, persists it exactly once, and
// enters the terminal state. Unreached questions contribute nothing to the
// average answer time; the score denominator is always the full question
// count.
func (s *Session) finalize(now time.Time) {
	if s.state == Paused {
		s.totalPaused += now.Sub(s.pausedAt)
	}

	total := now.Sub(s.startTime) - s.totalPaused
	var avg float64
	if len(s.latencies) > 0 {
		var sum float64
		for _, latency := range s.latencies {
			sum += latency
		}
		avg = sum / float64(len(s.latencies))
	}

	result := models.Result{
		UserID:            s.user.ID,
		QuizID:            s.quiz.ID,
		Score:             float64(s.correctCount) / float64(len(s.quiz.Questions)),
		DateCompleted:     now,
		AverageAnswerTime: avg,
		TotalDuration:     total.Seconds(),
	}

	summary := Summary{
		Score:             result.Score,
		CorrectCount:      s.correctCount,
		QuestionsAnswered: len(s.latencies),
		TotalQuestions:    len(s.quiz.Questions),
		TotalDuration:     result.TotalDuration,
		AverageAnswerTime: result.AverageAnswerTime,
	}
	if !s.resultSaved {
		s.resultSaved = true
		if s.sink != nil {
			if summary.SaveErr = s.sink(result); summary.SaveErr != nil {
				log.Printf("Failed to save result for quiz %d: %v", s.quiz.ID, summary.SaveErr)
			}
		}
	}

	s.state = Finished
	s.mu.Lock()
	s.summary = summary
	s.view = ViewModel{
		State:          Finished,
		QuestionIndex:  s.index,
		TotalQuestions: len(s.quiz.Questions),
		CorrectIndex:   -1,
		ChosenIndex:    -1,
		CorrectCount:   s.correctCount,
	}
	s.mu.Unlock()
	close(s.done)
}

// publish rebuilds the presentation snapshot for the current state
func (s *Session) publish(now time.Time) {
	question := &s.quiz.Questions[s.index]
	view := ViewModel{
		State:          s.state,
		QuestionIndex:  s.index,
		TotalQuestions: len(s.quiz.Questions),
		QuestionText:   question.Text,
		Answers:        s.answers,
		CorrectIndex:   -1,
		ChosenIndex:    s.chosenIdx,
		HintAvailable:  question.Hint != "",
		HelpAvailable:  question.Help != "",
		Outcome:        s.lastOutcome,
		CorrectCount:   s.correctCount,
	}
	if s.state == AnswerShown {
		view.CorrectIndex = s.correctIdx
	}
	if s.state == AwaitingAnswer && s.hasBudget {
		remaining := s.questionStart.Add(s.budget).Sub(now).Seconds()
		if remaining < 0 {
			remaining = 0
		}
		view.RemainingSeconds = &remaining
	}

	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
}
