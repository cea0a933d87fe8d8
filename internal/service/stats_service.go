package service

import (
	"sort"

	"quizzable/internal/repository"
)

const (
	// recentWindow is how many latest attempts feed the recent average
	recentWindow = 15
	// redoWindow and redoThreshold pick out quizzes worth retaking: the
	// average over the last few attempts sitting below 60%
	redoWindow    = 3
	redoThreshold = 0.6
)

// ScoreBandCount is the number of score histogram buckets: ten decile bands
// plus a separate band for perfect scores
const ScoreBandCount = 11

// PeriodStats aggregates attempts that fall in one slice of the day
type PeriodStats struct {
	Attempts     int
	AverageScore float64
}

// Overview summarises a user's performance, optionally restricted to quizzes
// matching the result filters. The Recent fields cover the latest attempts up
// to the recent window; the rest are all-time.
type Overview struct {
	TotalAttempts     int
	AllTimeAverage    float64
	RecentAverage     float64
	AverageAnswerTime float64
	RecentAnswerTime  float64
	AverageDuration   float64
	RecentDuration    float64
	// AverageHour is the mean completion hour of day, 0-23
	AverageHour float64
	Morning     PeriodStats
	Afternoon   PeriodStats
	Evening     PeriodStats
	ScoreBands  [ScoreBandCount]int
}

// RedoEntry is one quiz the user should retake
type RedoEntry struct {
	QuizID      int64
	Name        string
	Attempts    int
	RecentScore float64
	BestScore   float64
}

// StatsService computes performance summaries from stored results
type StatsService struct {
	results *repository.ResultRepository
	quizzes *repository.QuizRepository
}

// NewStatsService creates a new stats service
func NewStatsService(results *repository.ResultRepository, quizzes *repository.QuizRepository) *StatsService {
	return &StatsService{results: results, quizzes: quizzes}
}

// Overview computes the user's performance summary. Results arrive newest
// first, so the recent average reads from the front of the list.
func (s *StatsService) Overview(userID int64, filters repository.ResultFilters) (*Overview, error) {
	results, err := s.results.ListForUser(userID, filters, 0)
	if err != nil {
		return nil, err
	}

	overview := &Overview{TotalAttempts: len(results)}
	if len(results) == 0 {
		return overview, nil
	}

	var scoreSum, timeSum, durationSum, hourSum float64
	for i, result := range results {
		scoreSum += result.Score
		timeSum += result.AverageAnswerTime
		durationSum += result.TotalDuration
		if i < recentWindow {
			overview.RecentAverage += result.Score
			overview.RecentAnswerTime += result.AverageAnswerTime
			overview.RecentDuration += result.TotalDuration
		}

		overview.ScoreBands[scoreBand(result.Score)]++

		hour := result.DateCompleted.Hour()
		hourSum += float64(hour)
		switch {
		case hour < 12:
			addPeriod(&overview.Morning, result.Score)
		case hour < 18:
			addPeriod(&overview.Afternoon, result.Score)
		default:
			addPeriod(&overview.Evening, result.Score)
		}
	}

	n := float64(len(results))
	overview.AllTimeAverage = scoreSum / n
	overview.AverageAnswerTime = timeSum / n
	overview.AverageDuration = durationSum / n
	overview.AverageHour = hourSum / n

	recent := len(results)
	if recent > recentWindow {
		recent = recentWindow
	}
	overview.RecentAverage /= float64(recent)
	overview.RecentAnswerTime /= float64(recent)
	overview.RecentDuration /= float64(recent)

	finishPeriod(&overview.Morning)
	finishPeriod(&overview.Afternoon)
	finishPeriod(&overview.Evening)
	return overview, nil
}

// RedoList finds quizzes whose recent attempts average under the redo
// threshold, weakest first. Quizzes that no longer exist are skipped.
func (s *StatsService) RedoList(userID int64, filters repository.ResultFilters) ([]RedoEntry, error) {
	results, err := s.results.ListForUser(userID, filters, 0)
	if err != nil {
		return nil, err
	}

	// newest-first order means the first few per quiz are its latest attempts
	type tally struct {
		recentSum float64
		recent    int
		attempts  int
		best      float64
	}
	byQuiz := make(map[int64]*tally)
	var order []int64
	for _, result := range results {
		t := byQuiz[result.QuizID]
		if t == nil {
			t = &tally{}
			byQuiz[result.QuizID] = t
			order = append(order, result.QuizID)
		}
		t.attempts++
		if result.Score > t.best {
			t.best = result.Score
		}
		if t.recent < redoWindow {
			t.recentSum += result.Score
			t.recent++
		}
	}

	catalog, err := s.quizzes.ListQuizRows()
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(catalog))
	for _, row := range catalog {
		names[row.QuizID] = row.Name
	}

	var entries []RedoEntry
	for _, quizID := range order {
		name, exists := names[quizID]
		if !exists {
			continue
		}
		t := byQuiz[quizID]
		recentScore := t.recentSum / float64(t.recent)
		if recentScore >= redoThreshold {
			continue
		}
		entries = append(entries, RedoEntry{
			QuizID:      quizID,
			Name:        name,
			Attempts:    t.attempts,
			RecentScore: recentScore,
			BestScore:   t.best,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RecentScore < entries[j].RecentScore
	})
	return entries, nil
}

// scoreBand maps a score to its histogram bucket: one band per decile and a
// dedicated band for a perfect score
func scoreBand(score float64) int {
	if score >= 1 {
		return ScoreBandCount - 1
	}
	if score < 0 {
		return 0
	}
	return int(score * 10)
}

func addPeriod(p *PeriodStats, score float64) {
	p.Attempts++
	p.AverageScore += score
}

func finishPeriod(p *PeriodStats) {
	if p.Attempts > 0 {
		p.AverageScore /= float64(p.Attempts)
	}
}
