// Package filter provides predicate and comparator helpers for task lists.
package filter

import (
	"sort"
	"time"

	"github.com/fentz26/taskbeat/internal/models"
)

// Predicate decides whether a task is kept by Apply.
type Predicate func(models.Task) bool

// Apply returns the tasks matching all given predicates, preserving order.
func Apply(tasks []models.Task, preds ...Predicate) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		keep := true
		for _, p := range preds {
			if !p(t) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, t)
		}
	}
	return out
}

// ByStatus keeps tasks with the given status.
func ByStatus(status models.TaskStatus) Predicate {
	return func(t models.Task) bool { return t.Status == status }
}

// ByPriority keeps tasks with the given priority.
func ByPriority(p models.TaskPriority) Predicate {
	return func(t models.Task) bool { return t.Priority == p }
}

// ByCategory keeps tasks in the given category. An empty id matches
// uncategorized tasks.
func ByCategory(categoryID string) Predicate {
	return func(t models.Task) bool { return t.CategoryID == categoryID }
}

// DueBefore keeps tasks with a due date strictly before the cutoff.
func DueBefore(cutoff time.Time) Predicate {
	return func(t models.Task) bool {
		return t.DueDate != nil && t.DueDate.Before(cutoff)
	}
}

// Overdue keeps tasks that are past due at the given instant.
func Overdue(now time.Time) Predicate {
	return func(t models.Task) bool { return t.Overdue(now) }
}

// Active keeps non-archived tasks.
func Active() Predicate {
	return func(t models.Task) bool { return !t.IsArchived }
}

// priorityRank orders priorities from most to least urgent.
var priorityRank = map[models.TaskPriority]int{
	models.PriorityUrgent: 0,
	models.PriorityHigh:   1,
	models.PriorityMedium: 2,
	models.PriorityLow:    3,
}

// SortByDueDate sorts tasks by due date ascending. Tasks without a due
// date sort last. The input slice is not modified.
func SortByDueDate(tasks []models.Task) []models.Task {
	out := append([]models.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DueDate, out[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return out
}

// SortByPriority sorts tasks from most to least urgent.
func SortByPriority(tasks []models.Task) []models.Task {
	out := append([]models.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank[out[i].Priority] < priorityRank[out[j].Priority]
	})
	return out
}

// SortByCreated sorts tasks newest first.
func SortByCreated(tasks []models.Task) []models.Task {
	out := append([]models.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// GroupByCategory buckets tasks by category id, with uncategorized tasks
// under the sentinel bucket.
func GroupByCategory(tasks []models.Task) map[string][]models.Task {
	out := make(map[string][]models.Task)
	for _, t := range tasks {
		key := t.CategoryID
		if key == "" {
			key = models.Uncategorized
		}
		out[key] = append(out[key], t)
	}
	return out
}
