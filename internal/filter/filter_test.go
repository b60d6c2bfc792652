package filter

import (
	"testing"
	"time"

	"github.com/fentz26/taskbeat/internal/models"
)

func sampleTasks() []models.Task {
	due1 := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	due2 := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	return []models.Task{
		{ID: "a", Status: models.TaskStatusPending, Priority: models.PriorityLow, DueDate: &due2, CreatedAt: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Status: models.TaskStatusCompleted, Priority: models.PriorityUrgent, CategoryID: "work", CreatedAt: time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)},
		{ID: "c", Status: models.TaskStatusPending, Priority: models.PriorityHigh, DueDate: &due1, CategoryID: "work", CreatedAt: time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "d", Status: models.TaskStatusPending, Priority: models.PriorityMedium, IsArchived: true},
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestApply(t *testing.T) {
	got := Apply(sampleTasks(), Active(), ByStatus(models.TaskStatusPending))
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Expected [a c], got %v", ids(got))
	}

	got = Apply(sampleTasks(), ByCategory("work"))
	if len(got) != 2 {
		t.Errorf("Expected 2 work tasks, got %v", ids(got))
	}

	got = Apply(sampleTasks(), ByPriority(models.PriorityUrgent))
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Expected [b], got %v", ids(got))
	}
}

func TestDueBeforeAndOverdue(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	got := Apply(sampleTasks(), DueBefore(now))
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("Expected [c], got %v", ids(got))
	}

	got = Apply(sampleTasks(), Overdue(now))
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("Expected [c] overdue, got %v", ids(got))
	}
}

func TestSortByDueDate(t *testing.T) {
	got := SortByDueDate(sampleTasks())
	want := []string{"c", "a", "b", "d"}
	for i, w := range want {
		if got[i].ID != w {
			t.Fatalf("Expected order %v, got %v", want, ids(got))
		}
	}
}

func TestSortByPriority(t *testing.T) {
	got := SortByPriority(sampleTasks())
	want := []string{"b", "c", "d", "a"}
	for i, w := range want {
		if got[i].ID != w {
			t.Fatalf("Expected order %v, got %v", want, ids(got))
		}
	}
}

func TestSortByCreated(t *testing.T) {
	tasks := sampleTasks()[:3]
	got := SortByCreated(tasks)
	want := []string{"b", "c", "a"}
	for i, w := range want {
		if got[i].ID != w {
			t.Fatalf("Expected order %v, got %v", want, ids(got))
		}
	}
	// Input untouched.
	if tasks[0].ID != "a" {
		t.Error("Sort mutated its input")
	}
}

func TestGroupByCategory(t *testing.T) {
	groups := GroupByCategory(sampleTasks())
	if len(groups["work"]) != 2 {
		t.Errorf("Expected 2 work tasks, got %d", len(groups["work"]))
	}
	if len(groups[models.Uncategorized]) != 2 {
		t.Errorf("Expected 2 uncategorized tasks, got %d", len(groups[models.Uncategorized]))
	}
}
