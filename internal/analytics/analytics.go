// Package analytics derives completion statistics from a task snapshot.
//
// Everything here is a pure computation: the snapshot and the current
// instant go in, a fresh Statistics value comes out. Nothing is cached
// or persisted, and empty input yields zeroed results rather than errors.
package analytics

import (
	"sort"
	"time"

	"github.com/fentz26/taskbeat/internal/models"
)

// DefaultHeatmapDays is the trailing window used by Calculate.
const DefaultHeatmapDays = 30

// dayKey is the map key format for per-day buckets.
const dayKey = "2006-01-02"

// Calculate computes aggregate statistics over the non-archived tasks in
// the snapshot. All rates default to 0.0 when no tasks qualify.
func Calculate(tasks []models.Task, now time.Time) models.Statistics {
	active := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsArchived {
			active = append(active, t)
		}
	}

	stats := models.Statistics{
		TotalTasks:      len(active),
		TasksByPriority: make(map[models.TaskPriority]int, len(models.Priorities)),
		TasksByCategory: make(map[string]int),
		HeatmapDays:     DefaultHeatmapDays,
	}
	for _, p := range models.Priorities {
		stats.TasksByPriority[p] = 0
	}

	var latencySum float64
	var latencyCount int
	var accuracySum float64
	var accuracyCount int

	for _, t := range active {
		switch t.Status {
		case models.TaskStatusPending:
			stats.PendingTasks++
		case models.TaskStatusCompleted:
			stats.CompletedTasks++
		}
		if t.Overdue(now) {
			stats.OverdueTasks++
		}

		stats.TasksByPriority[t.Priority]++

		cat := t.CategoryID
		if cat == "" {
			cat = models.Uncategorized
		}
		stats.TasksByCategory[cat]++

		if isCompletion(t) {
			// Clock skew can put CompletedAt before CreatedAt; such
			// rows contribute zero rather than a negative latency.
			h := t.CompletedAt.Sub(t.CreatedAt).Hours()
			if h < 0 {
				h = 0
			}
			latencySum += h
			latencyCount++
		}

		if acc, ok := estimationAccuracy(t); ok {
			accuracySum += acc
			accuracyCount++
		}
	}

	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks)
	}
	if latencyCount > 0 {
		stats.AvgCompletionHours = latencySum / float64(latencyCount)
	}
	if accuracyCount > 0 {
		stats.EstimationAccuracy = accuracySum / float64(accuracyCount)
	}

	stats.Streak = Streaks(active, now)
	stats.CompletionsByDay = Heatmap(active, DefaultHeatmapDays, now)
	return stats
}

// estimationAccuracy scores how close the actual effort came to the
// estimate: 1 is a perfect estimate, 0 means the error was at least the
// whole estimate. Only completed tasks with a positive estimate and a
// recorded actual qualify.
func estimationAccuracy(t models.Task) (float64, bool) {
	if t.Status != models.TaskStatusCompleted {
		return 0, false
	}
	if t.EstimatedMinutes == nil || *t.EstimatedMinutes <= 0 || t.ActualMinutes == nil {
		return 0, false
	}
	est := float64(*t.EstimatedMinutes)
	act := float64(*t.ActualMinutes)
	errRatio := (act - est) / est
	if errRatio < 0 {
		errRatio = -errRatio
	}
	if errRatio > 1 {
		errRatio = 1
	}
	return 1 - errRatio, true
}

// Streaks computes the current and longest runs of consecutive calendar
// days with at least one completion. Multiple completions on one day
// count once. The current streak requires the most recent completion day
// to be today or yesterday; any larger gap resets it to zero.
func Streaks(tasks []models.Task, now time.Time) models.CompletionStreak {
	days := completionDays(tasks)
	if len(days) == 0 {
		return models.CompletionStreak{}
	}

	longest := 1
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	current := 0
	today := dayOf(now)
	last := days[len(days)-1]
	if last.Equal(today) || last.Equal(today.AddDate(0, 0, -1)) {
		current = 1
		for i := len(days) - 1; i > 0; i-- {
			if days[i].Sub(days[i-1]) != 24*time.Hour {
				break
			}
			current++
		}
	}

	return models.CompletionStreak{Current: current, Longest: longest}
}

// Heatmap buckets completions by calendar day over a trailing window of
// the given number of days ending today. Every day in the window is
// present in the result, zero when nothing was completed; completions
// outside the window are ignored.
func Heatmap(tasks []models.Task, days int, now time.Time) map[string]int {
	out := make(map[string]int, max(days, 0))
	if days <= 0 {
		return out
	}

	today := dayOf(now)
	start := today.AddDate(0, 0, -(days - 1))
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		out[d.Format(dayKey)] = 0
	}

	for _, t := range tasks {
		if t.IsArchived || !isCompletion(t) {
			continue
		}
		day := dayOf(*t.CompletedAt)
		if day.Before(start) || day.After(today) {
			continue
		}
		out[day.Format(dayKey)]++
	}
	return out
}

// isCompletion reports whether the task counts as a completion. A task
// reopened after completing keeps its CompletedAt, so the status check
// matters.
func isCompletion(t models.Task) bool {
	return t.Status == models.TaskStatusCompleted && t.CompletedAt != nil
}

// completionDays returns the distinct completion calendar dates across
// the snapshot, sorted ascending.
func completionDays(tasks []models.Task) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, t := range tasks {
		if !isCompletion(t) {
			continue
		}
		seen[dayOf(*t.CompletedAt)] = struct{}{}
	}

	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// dayOf truncates a timestamp to its calendar date in UTC.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
