package scheduler

import (
	"time"

	"github.com/taskforge/conductor/pkg/domain"
)

// defaultWorkingHoursPerDay is used when the caller does not specify one.
const defaultWorkingHoursPerDay = 8.0

// earlyLateSpread is the +/- percentage applied to produce the early/late
// completion-date bounds (spec.md §4.2: early = -20%, late = +20%).
const earlyLateSpread = 0.20

// Prediction is the output of PredictCompletion.
type Prediction struct {
	PredictedDate       time.Time
	EarlyDate           time.Time
	LateDate            time.Time
	RemainingHours      float64
	CompletedPercentage float64
}

// PredictCompletion subtracts completed task hours from the schedule's
// total duration (the sum of durations when schedule is nil or has no
// duration), converts the remainder to working days at
// workingHoursPerDay (default 8), and returns predicted/early/late
// completion dates anchored at startDate.
func PredictCompletion(
	schedule *ScheduleResult,
	durations map[string]float64,
	progress map[string]domain.TaskStatus,
	startDate time.Time,
	workingHoursPerDay float64,
) Prediction {
	if workingHoursPerDay <= 0 {
		workingHoursPerDay = defaultWorkingHoursPerDay
	}

	var total, completed float64
	for id, d := range durations {
		total += d
		if progress[id] == domain.StatusCompleted {
			completed += d
		}
	}
	if schedule != nil && schedule.TotalDuration > 0 {
		total = schedule.TotalDuration
	}

	remaining := total - completed
	if remaining < 0 {
		remaining = 0
	}

	var completedPct float64
	if total > 0 {
		completedPct = completed / total * 100
	}

	workingDays := remaining / workingHoursPerDay
	predicted := addWorkingDays(startDate, workingDays)
	early := addWorkingDays(startDate, workingDays*(1-earlyLateSpread))
	late := addWorkingDays(startDate, workingDays*(1+earlyLateSpread))

	return Prediction{
		PredictedDate:       predicted,
		EarlyDate:           early,
		LateDate:            late,
		RemainingHours:      remaining,
		CompletedPercentage: completedPct,
	}
}

// addWorkingDays adds a fractional number of calendar days to a date. The
// core only needs wall-clock distance, not a business-calendar that skips
// weekends — callers needing that can post-process the result.
func addWorkingDays(start time.Time, days float64) time.Time {
	return start.Add(time.Duration(days * float64(24*time.Hour)))
}
