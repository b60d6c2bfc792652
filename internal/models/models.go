// Package models defines the core domain types for taskbeat.
package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// TaskPriority represents the urgency of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Priorities lists all priority levels in ascending order of urgency.
// Aggregations iterate this so every level is always present in breakdowns.
var Priorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// RecurrenceType describes how a task repeats.
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
	RecurrenceCustom  RecurrenceType = "custom"
)

// Valid reports whether r is a known recurrence type.
func (r RecurrenceType) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly, RecurrenceCustom:
		return true
	}
	return false
}

// Task represents a single task. Optional fields are pointers; nil means
// the field is unset. Task values are treated as immutable by the
// recurrence and analytics packages, which only derive new values.
type Task struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	Status             TaskStatus     `json:"status"`
	Priority           TaskPriority   `json:"priority"`
	CategoryID         string         `json:"category_id,omitempty"`
	Tags               string         `json:"tags,omitempty"` // comma-separated
	DueDate            *time.Time     `json:"due_date,omitempty"`
	RecurrenceType     RecurrenceType `json:"recurrence_type"`
	RecurrenceInterval int            `json:"recurrence_interval,omitempty"`
	RecurrenceEndDate  *time.Time     `json:"recurrence_end_date,omitempty"`
	EstimatedMinutes   *int           `json:"estimated_minutes,omitempty"`
	ActualMinutes      *int           `json:"actual_minutes,omitempty"`
	IsArchived         bool           `json:"is_archived"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Recurring reports whether the task has an active recurrence rule.
func (t *Task) Recurring() bool {
	return t.RecurrenceType != "" && t.RecurrenceType != RecurrenceNone
}

// Overdue reports whether the task is past due at the given instant.
// Only completion clears a slipped due date.
func (t *Task) Overdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskStatusCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

// Category groups tasks under a user-defined label.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityEntry records a state-mutating event on a task.
type ActivityEntry struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CompletionStreak holds the current and longest runs of consecutive
// calendar days with at least one completed task. Longest is always
// greater than or equal to current.
type CompletionStreak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Statistics is a derived, read-only aggregate over a task snapshot.
// It is computed fresh on every request and never persisted.
type Statistics struct {
	TotalTasks         int                  `json:"total_tasks"`
	PendingTasks       int                  `json:"pending_tasks"`
	CompletedTasks     int                  `json:"completed_tasks"`
	OverdueTasks       int                  `json:"overdue_tasks"`
	CompletionRate     float64              `json:"completion_rate"`
	AvgCompletionHours float64              `json:"avg_completion_hours"`
	EstimationAccuracy float64              `json:"estimation_accuracy"`
	TasksByPriority    map[TaskPriority]int `json:"tasks_by_priority"`
	TasksByCategory    map[string]int       `json:"tasks_by_category"`
	Streak             CompletionStreak     `json:"streak"`
	CompletionsByDay   map[string]int       `json:"completions_by_day"` // ISO date -> count
	HeatmapDays        int                  `json:"heatmap_days"`
}

// Uncategorized is the sentinel category bucket for tasks without a category.
const Uncategorized = "uncategorized"
