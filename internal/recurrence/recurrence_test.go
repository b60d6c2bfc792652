package recurrence

import (
	"testing"
	"time"

	"github.com/fentz26/taskbeat/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func recurringTask(rt models.RecurrenceType, interval int, due time.Time) models.Task {
	return models.Task{
		ID:                 "task-1",
		Title:              "Water plants",
		Status:             models.TaskStatusPending,
		Priority:           models.PriorityMedium,
		RecurrenceType:     rt,
		RecurrenceInterval: interval,
		DueDate:            &due,
	}
}

func TestNextDueDate_NonRecurring(t *testing.T) {
	due := date(2024, time.March, 15)
	end := date(2025, time.March, 15)

	// No next date regardless of the other rule fields.
	task := models.Task{
		RecurrenceType:     models.RecurrenceNone,
		RecurrenceInterval: 3,
		DueDate:            &due,
		RecurrenceEndDate:  &end,
	}
	if got := NextDueDate(task); got != nil {
		t.Errorf("Expected nil for non-recurring task, got %v", got)
	}
}

func TestNextDueDate_NoDueDate(t *testing.T) {
	task := models.Task{RecurrenceType: models.RecurrenceDaily, RecurrenceInterval: 1}
	if got := NextDueDate(task); got != nil {
		t.Errorf("Expected nil without a due date, got %v", got)
	}
}

func TestNextDueDate_Intervals(t *testing.T) {
	tests := []struct {
		name     string
		rt       models.RecurrenceType
		interval int
		due      time.Time
		want     time.Time
	}{
		{"daily", models.RecurrenceDaily, 1, date(2024, time.March, 15), date(2024, time.March, 16)},
		{"daily interval 3", models.RecurrenceDaily, 3, date(2024, time.March, 15), date(2024, time.March, 18)},
		{"daily across month end", models.RecurrenceDaily, 1, date(2024, time.March, 31), date(2024, time.April, 1)},
		{"weekly", models.RecurrenceWeekly, 1, date(2024, time.March, 15), date(2024, time.March, 22)},
		{"weekly interval 2", models.RecurrenceWeekly, 2, date(2024, time.March, 25), date(2024, time.April, 8)},
		{"monthly", models.RecurrenceMonthly, 1, date(2024, time.March, 15), date(2024, time.April, 15)},
		{"monthly clamps jan 31", models.RecurrenceMonthly, 1, date(2023, time.January, 31), date(2023, time.February, 28)},
		{"monthly clamps jan 31 leap", models.RecurrenceMonthly, 1, date(2024, time.January, 31), date(2024, time.February, 29)},
		{"monthly across year", models.RecurrenceMonthly, 2, date(2024, time.November, 30), date(2025, time.January, 30)},
		{"monthly interval 14", models.RecurrenceMonthly, 14, date(2024, time.January, 31), date(2025, time.March, 31)},
		{"yearly", models.RecurrenceYearly, 1, date(2024, time.March, 15), date(2025, time.March, 15)},
		{"yearly leap day clamps", models.RecurrenceYearly, 1, date(2024, time.February, 29), date(2025, time.February, 28)},
		{"yearly leap day to leap year", models.RecurrenceYearly, 4, date(2024, time.February, 29), date(2028, time.February, 29)},
		{"custom behaves as daily", models.RecurrenceCustom, 2, date(2024, time.March, 15), date(2024, time.March, 17)},
		{"zero interval defaults to 1", models.RecurrenceDaily, 0, date(2024, time.March, 15), date(2024, time.March, 16)},
		{"negative interval defaults to 1", models.RecurrenceWeekly, -5, date(2024, time.March, 15), date(2024, time.March, 22)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDueDate(recurringTask(tt.rt, tt.interval, tt.due))
			if got == nil {
				t.Fatalf("Expected %v, got nil", tt.want)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, *got)
			}
		})
	}
}

func TestNextDueDate_PreservesTimeOfDay(t *testing.T) {
	due := time.Date(2024, time.January, 31, 14, 30, 45, 0, time.UTC)
	task := recurringTask(models.RecurrenceMonthly, 1, due)

	got := NextDueDate(task)
	if got == nil {
		t.Fatal("Expected a next date")
	}
	if got.Hour() != 14 || got.Minute() != 30 || got.Second() != 45 {
		t.Errorf("Time of day not preserved: %v", *got)
	}
}

func TestNextDueDate_EndDateReached(t *testing.T) {
	due := date(2024, time.March, 15)
	end := date(2024, time.March, 17)
	task := recurringTask(models.RecurrenceDaily, 5, due)
	task.RecurrenceEndDate = &end

	// Raw arithmetic would give March 20, past the end date.
	if got := NextDueDate(task); got != nil {
		t.Errorf("Expected nil past recurrence end date, got %v", *got)
	}
}

func TestNextDueDate_EndDateExactlyOnCandidate(t *testing.T) {
	due := date(2024, time.March, 15)
	end := date(2024, time.March, 16)
	task := recurringTask(models.RecurrenceDaily, 1, due)
	task.RecurrenceEndDate = &end

	// Only a strictly later candidate ends the series.
	got := NextDueDate(task)
	if got == nil {
		t.Fatal("Candidate equal to the end date should still be produced")
	}
	if !got.Equal(end) {
		t.Errorf("Expected %v, got %v", end, *got)
	}
}

func TestNextOccurrence(t *testing.T) {
	due := date(2024, time.March, 15)
	completed := date(2024, time.March, 15)
	now := date(2024, time.March, 16)
	est := 30

	task := recurringTask(models.RecurrenceWeekly, 1, due)
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &completed
	task.CategoryID = "cat-1"
	task.Tags = "home,garden"
	task.EstimatedMinutes = &est
	task.CreatedAt = date(2024, time.March, 1)

	next := NextOccurrence(task, func() string { return "task-2" }, now)
	if next == nil {
		t.Fatal("Expected a next occurrence")
	}

	if next.ID != "task-2" {
		t.Errorf("Expected fresh ID task-2, got %s", next.ID)
	}
	if next.Status != models.TaskStatusPending {
		t.Errorf("Expected status pending, got %s", next.Status)
	}
	if next.CompletedAt != nil {
		t.Error("CompletedAt should be cleared")
	}
	if next.DueDate == nil || !next.DueDate.Equal(date(2024, time.March, 22)) {
		t.Errorf("Expected due date March 22, got %v", next.DueDate)
	}
	if !next.CreatedAt.Equal(now) || !next.UpdatedAt.Equal(now) {
		t.Error("CreatedAt/UpdatedAt should be the generation time")
	}

	// Everything else carries over unchanged.
	if next.Title != task.Title || next.CategoryID != "cat-1" || next.Tags != "home,garden" {
		t.Error("Title, category and tags should carry over")
	}
	if next.EstimatedMinutes == nil || *next.EstimatedMinutes != 30 {
		t.Error("Estimate should carry over")
	}
	if next.RecurrenceType != models.RecurrenceWeekly || next.RecurrenceInterval != 1 {
		t.Error("Recurrence rule must not be mutated")
	}

	// The input task is untouched.
	if task.Status != models.TaskStatusCompleted || task.CompletedAt == nil {
		t.Error("Input task was mutated")
	}
}

func TestNextOccurrence_SeriesEnded(t *testing.T) {
	due := date(2024, time.March, 15)
	end := date(2024, time.March, 16)
	task := recurringTask(models.RecurrenceWeekly, 1, due)
	task.RecurrenceEndDate = &end

	if got := NextOccurrence(task, nil, due); got != nil {
		t.Errorf("Expected nil when the series has ended, got %+v", got)
	}
}

func TestNextOccurrence_CadenceContinues(t *testing.T) {
	due := date(2024, time.March, 1)
	task := recurringTask(models.RecurrenceDaily, 3, due)
	now := due

	// Re-generating from each output keeps the same cadence and rule.
	current := task
	expected := due
	for i := 0; i < 10; i++ {
		next := NextOccurrence(current, nil, now)
		if next == nil {
			t.Fatalf("Generation %d unexpectedly ended the series", i)
		}
		expected = expected.AddDate(0, 0, 3)
		if !next.DueDate.Equal(expected) {
			t.Fatalf("Generation %d: expected due %v, got %v", i, expected, *next.DueDate)
		}
		if next.RecurrenceType != models.RecurrenceDaily || next.RecurrenceInterval != 3 {
			t.Fatalf("Generation %d: recurrence rule changed", i)
		}
		current = *next
	}
}

func TestPreview_Daily(t *testing.T) {
	due := date(2024, time.March, 15)
	task := recurringTask(models.RecurrenceDaily, 2, due)

	dates := Preview(task, 5)
	if len(dates) != 5 {
		t.Fatalf("Expected 5 dates, got %d", len(dates))
	}
	prev := due
	for i, d := range dates {
		want := prev.AddDate(0, 0, 2)
		if !d.Equal(want) {
			t.Errorf("Date %d: expected %v, got %v", i, want, d)
		}
		if !d.After(prev) {
			t.Errorf("Date %d not strictly increasing", i)
		}
		prev = d
	}
}

func TestPreview_StopsAtEndDate(t *testing.T) {
	due := date(2024, time.March, 15)
	end := date(2024, time.March, 18)
	task := recurringTask(models.RecurrenceDaily, 1, due)
	task.RecurrenceEndDate = &end

	dates := Preview(task, 10)
	if len(dates) != 3 {
		t.Fatalf("Expected 3 dates up to the end date, got %d", len(dates))
	}
	if !dates[2].Equal(end) {
		t.Errorf("Last date should be the end date, got %v", dates[2])
	}
}

func TestPreview_NonRecurring(t *testing.T) {
	due := date(2024, time.March, 15)
	task := models.Task{RecurrenceType: models.RecurrenceNone, DueDate: &due}
	if dates := Preview(task, 5); len(dates) != 0 {
		t.Errorf("Expected empty preview, got %d dates", len(dates))
	}

	undated := models.Task{RecurrenceType: models.RecurrenceDaily}
	if dates := Preview(undated, 5); len(dates) != 0 {
		t.Errorf("Expected empty preview without due date, got %d dates", len(dates))
	}
}

func TestPreview_Restartable(t *testing.T) {
	due := date(2024, time.March, 15)
	task := recurringTask(models.RecurrenceMonthly, 1, due)

	first := Preview(task, 4)
	second := Preview(task, 4)
	if len(first) != len(second) {
		t.Fatalf("Preview not restartable: %d vs %d dates", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("Date %d differs across calls: %v vs %v", i, first[i], second[i])
		}
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Error("Preview mutated the input task")
	}
}

func TestPreview_MonthEndClamping(t *testing.T) {
	due := date(2024, time.January, 31)
	task := recurringTask(models.RecurrenceMonthly, 1, due)

	dates := Preview(task, 4)
	want := []time.Time{
		date(2024, time.February, 29),
		date(2024, time.March, 29),
		date(2024, time.April, 29),
		date(2024, time.May, 29),
	}
	if len(dates) != len(want) {
		t.Fatalf("Expected %d dates, got %d", len(want), len(dates))
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("Date %d: expected %v, got %v", i, want[i], dates[i])
		}
	}
}
