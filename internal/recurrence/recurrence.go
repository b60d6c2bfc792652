// Package recurrence computes the next occurrences of repeating tasks.
//
// All functions are pure: they read their arguments, allocate new values
// and never mutate a task. The current instant and the ID source are
// explicit inputs so callers and tests stay deterministic.
package recurrence

import (
	"time"

	"github.com/fentz26/taskbeat/internal/models"
	"github.com/google/uuid"
)

// IDGenerator produces identifiers for generated occurrences.
type IDGenerator func() string

// NewID is the production IDGenerator.
func NewID() string {
	return uuid.New().String()
}

// NextDueDate computes the next due date of a recurring task from its
// current due date. It returns nil when the task does not recur, has no
// due date, or the computed date falls past the recurrence end date.
// Absence of a next date is a valid state, not an error.
func NextDueDate(task models.Task) *time.Time {
	if !task.Recurring() || task.DueDate == nil {
		return nil
	}

	interval := task.RecurrenceInterval
	if interval < 1 {
		interval = 1
	}

	due := *task.DueDate
	var next time.Time

	switch task.RecurrenceType {
	case models.RecurrenceDaily:
		next = due.AddDate(0, 0, interval)
	case models.RecurrenceWeekly:
		next = due.AddDate(0, 0, 7*interval)
	case models.RecurrenceMonthly:
		next = addMonths(due, interval)
	case models.RecurrenceYearly:
		// Same clamping as monthly, so Feb 29 lands on Feb 28 in
		// non-leap target years rather than rolling into March.
		next = addMonths(due, 12*interval)
	case models.RecurrenceCustom:
		// Custom is an alias of daily until a distinct rule exists.
		next = due.AddDate(0, 0, interval)
	default:
		// Unknown recurrence kinds come from malformed rows; the
		// storage layer owns validation, so treat as non-recurring.
		return nil
	}

	if task.RecurrenceEndDate != nil && next.After(*task.RecurrenceEndDate) {
		return nil
	}
	return &next
}

// NextOccurrence derives the follow-up task for a completed recurring
// task. The result is a copy with a fresh ID, the computed due date,
// status reset to pending and the completion timestamp cleared; the
// recurrence rule itself carries over untouched so the series continues.
// It returns nil when the series has no next occurrence.
func NextOccurrence(task models.Task, id IDGenerator, now time.Time) *models.Task {
	next := NextDueDate(task)
	if next == nil {
		return nil
	}
	if id == nil {
		id = NewID
	}

	out := task
	out.ID = id()
	out.DueDate = next
	out.Status = models.TaskStatusPending
	out.CompletedAt = nil
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out
}

// Preview returns up to count future due dates of a recurring task by
// repeatedly advancing a working copy. It stops early once the series
// ends, and returns an empty slice for non-recurring or undated tasks.
// Each call recomputes from scratch.
func Preview(task models.Task, count int) []time.Time {
	dates := make([]time.Time, 0, max(count, 0))
	work := task
	for i := 0; i < count; i++ {
		next := NextDueDate(work)
		if next == nil {
			break
		}
		dates = append(dates, *next)
		work.DueDate = next
	}
	return dates
}

// addMonths advances t by the given number of calendar months, clamping
// the day-of-month to the length of the target month (Jan 31 + 1 month
// is Feb 28, or Feb 29 in a leap year). Time-of-day is preserved.
// Months may be negative or span year boundaries.
func addMonths(t time.Time, months int) time.Time {
	year := t.Year()
	month := int(t.Month()) - 1 + months
	year += month / 12
	month %= 12
	if month < 0 {
		month += 12
		year--
	}

	day := t.Day()
	if last := daysIn(year, time.Month(month+1)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month+1), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
