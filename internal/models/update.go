package models

import "time"

// TaskUpdate carries a partial update to a task. A nil pointer field is
// left unchanged; a non-nil pointer sets the field. For optional fields
// where "no value" is itself a meaningful state, a separate Clear flag
// distinguishes "clear to empty" from "leave unchanged".
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	Tags        *string

	CategoryID      *string
	ClearCategoryID bool

	DueDate      *time.Time
	ClearDueDate bool

	RecurrenceType     *RecurrenceType
	RecurrenceInterval *int

	RecurrenceEndDate      *time.Time
	ClearRecurrenceEndDate bool

	EstimatedMinutes      *int
	ClearEstimatedMinutes bool

	ActualMinutes      *int
	ClearActualMinutes bool

	CompletedAt      *time.Time
	ClearCompletedAt bool

	IsArchived *bool
}

// Apply returns a copy of t with the update applied and UpdatedAt set to
// now. The receiver is never mutated. Clear flags win over set values.
func (u TaskUpdate) Apply(t Task, now time.Time) Task {
	out := t

	if u.Title != nil {
		out.Title = *u.Title
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.Status != nil {
		out.Status = *u.Status
	}
	if u.Priority != nil {
		out.Priority = *u.Priority
	}
	if u.Tags != nil {
		out.Tags = *u.Tags
	}

	switch {
	case u.ClearCategoryID:
		out.CategoryID = ""
	case u.CategoryID != nil:
		out.CategoryID = *u.CategoryID
	}

	switch {
	case u.ClearDueDate:
		out.DueDate = nil
	case u.DueDate != nil:
		d := *u.DueDate
		out.DueDate = &d
	}

	if u.RecurrenceType != nil {
		out.RecurrenceType = *u.RecurrenceType
	}
	if u.RecurrenceInterval != nil {
		out.RecurrenceInterval = *u.RecurrenceInterval
	}

	switch {
	case u.ClearRecurrenceEndDate:
		out.RecurrenceEndDate = nil
	case u.RecurrenceEndDate != nil:
		d := *u.RecurrenceEndDate
		out.RecurrenceEndDate = &d
	}

	switch {
	case u.ClearEstimatedMinutes:
		out.EstimatedMinutes = nil
	case u.EstimatedMinutes != nil:
		m := *u.EstimatedMinutes
		out.EstimatedMinutes = &m
	}

	switch {
	case u.ClearActualMinutes:
		out.ActualMinutes = nil
	case u.ActualMinutes != nil:
		m := *u.ActualMinutes
		out.ActualMinutes = &m
	}

	switch {
	case u.ClearCompletedAt:
		out.CompletedAt = nil
	case u.CompletedAt != nil:
		ts := *u.CompletedAt
		out.CompletedAt = &ts
	}

	if u.IsArchived != nil {
		out.IsArchived = *u.IsArchived
	}

	out.UpdatedAt = now
	return out
}
