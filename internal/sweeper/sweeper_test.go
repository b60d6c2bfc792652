package sweeper

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/taskbeat/internal/activity"
	"github.com/fentz26/taskbeat/internal/models"
	"github.com/fentz26/taskbeat/internal/store"
)

func newTestSweeper(t *testing.T) (*Sweeper, *store.Store) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	sw := New(s, activity.NewLogger(s), time.Minute)
	return sw, s
}

func overdueEntries(t *testing.T, sw *Sweeper, taskID string) int {
	t.Helper()
	entries, err := sw.activity.ForTask(taskID)
	if err != nil {
		t.Fatalf("Failed to read activity: %v", err)
	}
	count := 0
	for _, e := range entries {
		if e.Action == "task.overdue" {
			count++
		}
	}
	return count
}

func TestSweepFlagsOverdueTask(t *testing.T) {
	sw, s := newTestSweeper(t)

	past := time.Now().UTC().Add(-2 * time.Hour)
	task, err := s.CreateTask(store.NewTask{Title: "Late", DueDate: &past})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	sw.sweep()

	if got := overdueEntries(t, sw, task.ID); got != 1 {
		t.Errorf("Expected 1 overdue entry, got %d", got)
	}
}

func TestSweepFlagsOnce(t *testing.T) {
	sw, s := newTestSweeper(t)

	past := time.Now().UTC().Add(-2 * time.Hour)
	task, err := s.CreateTask(store.NewTask{Title: "Late", DueDate: &past})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	sw.sweep()
	sw.sweep()
	sw.sweep()

	if got := overdueEntries(t, sw, task.ID); got != 1 {
		t.Errorf("Expected a single overdue entry after repeated sweeps, got %d", got)
	}
}

func TestSweepIgnoresFutureAndCompleted(t *testing.T) {
	sw, s := newTestSweeper(t)

	future := time.Now().UTC().Add(2 * time.Hour)
	upcoming, err := s.CreateTask(store.NewTask{Title: "Upcoming", DueDate: &future})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	past := time.Now().UTC().Add(-2 * time.Hour)
	finished, err := s.CreateTask(store.NewTask{Title: "Finished", DueDate: &past})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	done := models.TaskStatusCompleted
	now := time.Now().UTC()
	if _, err := s.UpdateTask(finished.ID, models.TaskUpdate{Status: &done, CompletedAt: &now}); err != nil {
		t.Fatalf("Failed to complete task: %v", err)
	}

	sw.sweep()

	if got := overdueEntries(t, sw, upcoming.ID); got != 0 {
		t.Errorf("Future task flagged as overdue %d times", got)
	}
	if got := overdueEntries(t, sw, finished.ID); got != 0 {
		t.Errorf("Completed task flagged as overdue %d times", got)
	}
}

func TestSweepIgnoresCancelled(t *testing.T) {
	sw, s := newTestSweeper(t)

	past := time.Now().UTC().Add(-2 * time.Hour)
	task, err := s.CreateTask(store.NewTask{Title: "Abandoned", DueDate: &past})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	cancelled := models.TaskStatusCancelled
	if _, err := s.UpdateTask(task.ID, models.TaskUpdate{Status: &cancelled}); err != nil {
		t.Fatalf("Failed to cancel task: %v", err)
	}

	sw.sweep()

	if got := overdueEntries(t, sw, task.ID); got != 0 {
		t.Errorf("Cancelled task flagged as overdue %d times", got)
	}
}

func TestSweepReflagsAfterReschedule(t *testing.T) {
	sw, s := newTestSweeper(t)

	past := time.Now().UTC().Add(-2 * time.Hour)
	task, err := s.CreateTask(store.NewTask{Title: "Slips twice", DueDate: &past})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	sw.sweep()

	// Reschedule into the future: the task is no longer overdue and the
	// sweeper should forget it.
	future := time.Now().UTC().Add(time.Hour)
	if _, err := s.UpdateTask(task.ID, models.TaskUpdate{DueDate: &future}); err != nil {
		t.Fatalf("Failed to reschedule: %v", err)
	}
	sw.sweep()

	// Slip again.
	if _, err := s.UpdateTask(task.ID, models.TaskUpdate{DueDate: &past}); err != nil {
		t.Fatalf("Failed to reschedule: %v", err)
	}
	sw.sweep()

	if got := overdueEntries(t, sw, task.ID); got != 2 {
		t.Errorf("Expected 2 overdue entries after a second slip, got %d", got)
	}
}

func TestStartStop(t *testing.T) {
	sw, _ := newTestSweeper(t)

	sw.Start()
	sw.Stop()
}
