package models

import (
	"fmt"
	"math"
	"time"
)

// Result is one completed quiz attempt. Results are append-only and never
// mutated after insertion.
type Result struct {
	ID                int64
	UserID            int64
	QuizID            int64
	Score             float64
	DateCompleted     time.Time
	AverageAnswerTime float64
	TotalDuration     float64
}

// FormatDuration renders a duration in seconds as "3m 24.5s", omitting the
// minutes part under one minute
func FormatDuration(seconds float64) string {
	rounded := math.Ceil(seconds*10) / 10
	secs := math.Mod(rounded, 60)
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	return fmt.Sprintf("%dm %.1fs", int(rounded)/60, secs)
}
