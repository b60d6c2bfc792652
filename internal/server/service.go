// Package server provides the HTTP API and service layer for taskbeat.
package server

import (
	"fmt"
	"time"

	"github.com/fentz26/taskbeat/internal/activity"
	"github.com/fentz26/taskbeat/internal/analytics"
	"github.com/fentz26/taskbeat/internal/logger"
	"github.com/fentz26/taskbeat/internal/models"
	"github.com/fentz26/taskbeat/internal/recurrence"
	"github.com/fentz26/taskbeat/internal/store"
	"go.uber.org/zap"
)

// Service provides the task manager business logic.
type Service struct {
	store    *store.Store
	activity *activity.Logger
	newID    recurrence.IDGenerator
	now      func() time.Time
	log      *zap.Logger
}

// NewService creates a new service. The ID generator and clock default
// to production implementations when nil.
func NewService(s *store.Store, act *activity.Logger) *Service {
	return &Service{
		store:    s,
		activity: act,
		newID:    recurrence.NewID,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.Named("service"),
	}
}

// --- Task Operations ---

// CreateTask validates and creates a new task.
func (s *Service) CreateTask(p store.NewTask) (*models.Task, error) {
	if p.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if p.Priority != "" && !p.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, p.Priority)
	}
	if p.RecurrenceType != "" && !p.RecurrenceType.Valid() {
		return nil, fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidInput, p.RecurrenceType)
	}

	task, err := s.store.CreateTask(p)
	if err != nil {
		return nil, err
	}

	s.activity.Record(task.ID, "task.create", map[string]interface{}{"title": task.Title})
	s.log.Info("task created", zap.String("task_id", task.ID), zap.String("title", task.Title))
	return task, nil
}

// GetTask retrieves a task by ID.
func (s *Service) GetTask(id string) (*models.Task, error) {
	return s.store.GetTask(id)
}

// ListTasks returns filtered tasks.
func (s *Service) ListTasks(f store.ListFilter) ([]models.Task, error) {
	return s.store.ListTasks(f)
}

// UpdateTask applies a partial update.
func (s *Service) UpdateTask(id string, update models.TaskUpdate) (*models.Task, error) {
	if update.Status != nil && !update.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *update.Status)
	}
	if update.Priority != nil && !update.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *update.Priority)
	}

	task, err := s.store.UpdateTask(id, update)
	if err == store.ErrNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	s.activity.Record(id, "task.update", nil)
	return task, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(id string) error {
	err := s.store.DeleteTask(id)
	if err == store.ErrNotFound {
		return ErrTaskNotFound
	}
	return err
}

// ArchiveTask marks a task archived or unarchived.
func (s *Service) ArchiveTask(id string, archived bool) error {
	err := s.store.ArchiveTask(id, archived)
	if err == store.ErrNotFound {
		return ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	s.activity.Record(id, "task.archive", map[string]interface{}{"archived": archived})
	return nil
}

// CompleteResult holds the completed task and, for recurring tasks, the
// generated follow-up occurrence.
type CompleteResult struct {
	Completed *models.Task `json:"completed"`
	Next      *models.Task `json:"next,omitempty"`
}

// CompleteTask marks a task completed and, when it recurs, generates and
// persists the next occurrence in the series.
func (s *Service) CompleteTask(id string, actualMinutes *int) (*CompleteResult, error) {
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if task.Status == models.TaskStatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	now := s.now()
	completedStatus := models.TaskStatusCompleted
	update := models.TaskUpdate{
		Status:      &completedStatus,
		CompletedAt: &now,
	}
	if actualMinutes != nil {
		update.ActualMinutes = actualMinutes
	}

	completed, err := s.store.UpdateTask(id, update)
	if err != nil {
		return nil, err
	}
	s.activity.Record(id, "task.complete", nil)

	result := &CompleteResult{Completed: completed}

	if next := recurrence.NextOccurrence(*completed, s.newID, now); next != nil {
		if err := s.store.InsertTask(next); err != nil {
			return nil, fmt.Errorf("persist next occurrence: %w", err)
		}
		s.activity.Record(next.ID, "task.regenerate", map[string]interface{}{
			"from": id,
			"due":  next.DueDate.Format(time.RFC3339),
		})
		s.log.Info("generated next occurrence",
			zap.String("task_id", id),
			zap.String("next_id", next.ID),
			zap.Time("next_due", *next.DueDate))
		result.Next = next
	}

	return result, nil
}

// PreviewOccurrences returns up to count upcoming due dates for a task.
func (s *Service) PreviewOccurrences(id string, count int) ([]time.Time, error) {
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return recurrence.Preview(*task, count), nil
}

// GetTaskActivity returns the event log for a task.
func (s *Service) GetTaskActivity(id string) ([]models.ActivityEntry, error) {
	return s.activity.ForTask(id)
}

// --- Statistics Operations ---

// Statistics computes aggregate statistics over the full task snapshot.
func (s *Service) Statistics() (models.Statistics, error) {
	tasks, err := s.store.ListTasks(store.ListFilter{IncludeArchived: true})
	if err != nil {
		return models.Statistics{}, err
	}
	return analytics.Calculate(tasks, s.now()), nil
}

// Heatmap computes the completion heatmap over a trailing window.
func (s *Service) Heatmap(days int) (map[string]int, error) {
	tasks, err := s.store.ListTasks(store.ListFilter{IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	return analytics.Heatmap(tasks, days, s.now()), nil
}

// --- Category Operations ---

// CreateCategory creates a new category.
func (s *Service) CreateCategory(name, color string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.store.CreateCategory(name, color)
}

// ListCategories returns all categories.
func (s *Service) ListCategories() ([]models.Category, error) {
	return s.store.ListCategories()
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(id string) error {
	return s.store.DeleteCategory(id)
}
