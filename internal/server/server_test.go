package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/taskbeat/internal/activity"
	"github.com/fentz26/taskbeat/internal/models"
	"github.com/fentz26/taskbeat/internal/store"
)

func newTestServer(t *testing.T) (*Server, *Service) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	service := NewService(st, activity.NewLogger(st))
	return NewServer(service, "127.0.0.1:0"), service
}

func doJSON(t *testing.T, fn http.HandlerFunc, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.ContentLength = int64(buf.Len())
	}
	w := httptest.NewRecorder()
	fn(w, req)
	return w
}

func createTask(t *testing.T, s *Server, body map[string]interface{}) models.Task {
	t.Helper()
	w := doJSON(t, s.handleTasks, http.MethodPost, "/tasks", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var task models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("Failed to decode task: %v", err)
	}
	return task
}

func TestCreateAndGetTask(t *testing.T) {
	s, _ := newTestServer(t)

	due := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC)
	task := createTask(t, s, map[string]interface{}{
		"title":               "Water plants",
		"priority":            "high",
		"due_date":            due.Format(time.RFC3339),
		"recurrence_type":     "weekly",
		"recurrence_interval": 1,
	})

	if task.Priority != models.PriorityHigh {
		t.Errorf("Expected high priority, got %s", task.Priority)
	}
	if task.RecurrenceType != models.RecurrenceWeekly {
		t.Errorf("Expected weekly recurrence, got %s", task.RecurrenceType)
	}

	w := doJSON(t, s.handleTaskByID, http.MethodGet, "/tasks/"+task.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var got models.Task
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != task.ID || got.Title != "Water plants" {
		t.Errorf("Unexpected task: %+v", got)
	}
}

func TestCreateTask_MissingTitle(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s.handleTasks, http.MethodPost, "/tasks", map[string]interface{}{"priority": "low"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing title, got %d", w.Code)
	}
}

func TestCreateTask_UnknownPriority(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s.handleTasks, http.MethodPost, "/tasks", map[string]interface{}{
		"title":    "x",
		"priority": "extreme",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown priority, got %d", w.Code)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s.handleTaskByID, http.MethodGet, "/tasks/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestCompleteTask_GeneratesNextOccurrence(t *testing.T) {
	s, _ := newTestServer(t)

	due := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC)
	task := createTask(t, s, map[string]interface{}{
		"title":               "Weekly review",
		"due_date":            due.Format(time.RFC3339),
		"recurrence_type":     "weekly",
		"recurrence_interval": 1,
	})

	w := doJSON(t, s.handleTaskByID, http.MethodPost, "/tasks/"+task.ID+"/complete",
		map[string]interface{}{"actual_minutes": 25})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result CompleteResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}

	if result.Completed.Status != models.TaskStatusCompleted {
		t.Errorf("Expected completed status, got %s", result.Completed.Status)
	}
	if result.Completed.CompletedAt == nil {
		t.Error("Expected CompletedAt to be set")
	}
	if result.Completed.ActualMinutes == nil || *result.Completed.ActualMinutes != 25 {
		t.Errorf("Expected actual minutes 25, got %v", result.Completed.ActualMinutes)
	}

	if result.Next == nil {
		t.Fatal("Expected a next occurrence for a recurring task")
	}
	wantDue := due.AddDate(0, 0, 7)
	if !result.Next.DueDate.Equal(wantDue) {
		t.Errorf("Expected next due %v, got %v", wantDue, *result.Next.DueDate)
	}
	if result.Next.Status != models.TaskStatusPending {
		t.Errorf("Expected next occurrence pending, got %s", result.Next.Status)
	}
	if result.Next.ID == task.ID {
		t.Error("Next occurrence must have a fresh ID")
	}

	// The follow-up is persisted.
	w = doJSON(t, s.handleTaskByID, http.MethodGet, "/tasks/"+result.Next.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Next occurrence not persisted: %d", w.Code)
	}
}

func TestCompleteTask_NonRecurring(t *testing.T) {
	s, _ := newTestServer(t)

	task := createTask(t, s, map[string]interface{}{"title": "One-off"})

	w := doJSON(t, s.handleTaskByID, http.MethodPost, "/tasks/"+task.ID+"/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var result CompleteResult
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Next != nil {
		t.Error("Non-recurring task must not generate a follow-up")
	}
}

func TestCompleteTask_AlreadyCompleted(t *testing.T) {
	s, _ := newTestServer(t)

	task := createTask(t, s, map[string]interface{}{"title": "Once"})
	doJSON(t, s.handleTaskByID, http.MethodPost, "/tasks/"+task.ID+"/complete", nil)

	w := doJSON(t, s.handleTaskByID, http.MethodPost, "/tasks/"+task.ID+"/complete", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for double completion, got %d", w.Code)
	}
}

func TestCompleteTask_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s.handleTaskByID, http.MethodPost, "/tasks/nope/complete", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	due := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC)
	task := createTask(t, s, map[string]interface{}{
		"title":               "Daily standup",
		"due_date":            due.Format(time.RFC3339),
		"recurrence_type":     "daily",
		"recurrence_interval": 1,
	})

	w := doJSON(t, s.handleTaskByID, http.MethodGet, "/tasks/"+task.ID+"/preview?count=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Dates []string `json:"dates"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Dates) != 3 {
		t.Fatalf("Expected 3 preview dates, got %d", len(resp.Dates))
	}
	want := due.AddDate(0, 0, 1).Format(time.RFC3339)
	if resp.Dates[0] != want {
		t.Errorf("Expected first date %s, got %s", want, resp.Dates[0])
	}
}

func TestUpdateTask_ClearDueDate(t *testing.T) {
	s, _ := newTestServer(t)

	due := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC)
	task := createTask(t, s, map[string]interface{}{
		"title":    "Flexible",
		"due_date": due.Format(time.RFC3339),
	})

	w := doJSON(t, s.handleTaskByID, http.MethodPatch, "/tasks/"+task.ID,
		map[string]interface{}{"clear_due_date": true, "priority": "urgent"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got models.Task
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.DueDate != nil {
		t.Errorf("Expected cleared due date, got %v", got.DueDate)
	}
	if got.Priority != models.PriorityUrgent {
		t.Errorf("Expected urgent priority, got %s", got.Priority)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s, service := newTestServer(t)

	task := createTask(t, s, map[string]interface{}{"title": "Done today", "estimated_minutes": 60})
	if _, err := service.CompleteTask(task.ID, intPtr(90)); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	createTask(t, s, map[string]interface{}{"title": "Still open"})

	w := doJSON(t, s.handleStats, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var stats models.Statistics
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}

	if stats.TotalTasks != 2 || stats.CompletedTasks != 1 || stats.PendingTasks != 1 {
		t.Errorf("Unexpected counts: %+v", stats)
	}
	if stats.CompletionRate != 0.5 {
		t.Errorf("Expected completion rate 0.5, got %v", stats.CompletionRate)
	}
	// estimated 60, actual 90: accuracy 0.5
	if stats.EstimationAccuracy != 0.5 {
		t.Errorf("Expected estimation accuracy 0.5, got %v", stats.EstimationAccuracy)
	}
	if stats.Streak.Current != 1 || stats.Streak.Longest != 1 {
		t.Errorf("Expected 1/1 streak, got %+v", stats.Streak)
	}
}

func TestHeatmapEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s.handleHeatmap, http.MethodGet, "/stats/heatmap?days=7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var hm map[string]int
	json.Unmarshal(w.Body.Bytes(), &hm)
	if len(hm) != 7 {
		t.Errorf("Expected 7 heatmap days, got %d", len(hm))
	}

	w = doJSON(t, s.handleHeatmap, http.MethodGet, "/stats/heatmap?days=0", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for days=0, got %d", w.Code)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s.handleCategories, http.MethodPost, "/categories",
		map[string]string{"name": "Home", "color": "#10B981"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}

	var cat models.Category
	json.Unmarshal(w.Body.Bytes(), &cat)
	if cat.Name != "Home" {
		t.Errorf("Unexpected category: %+v", cat)
	}

	w = doJSON(t, s.handleCategories, http.MethodGet, "/categories", nil)
	var cats []models.Category
	json.Unmarshal(w.Body.Bytes(), &cats)
	if len(cats) != 1 {
		t.Errorf("Expected 1 category, got %d", len(cats))
	}

	w = doJSON(t, s.handleCategoryByID, http.MethodDelete, "/categories/"+cat.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 on delete, got %d", w.Code)
	}
}

func TestActivityEndpoint(t *testing.T) {
	s, service := newTestServer(t)

	task := createTask(t, s, map[string]interface{}{"title": "Tracked"})
	if _, err := service.CompleteTask(task.ID, nil); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	w := doJSON(t, s.handleTaskByID, http.MethodGet, "/tasks/"+task.ID+"/activity", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var entries []models.ActivityEntry
	json.Unmarshal(w.Body.Bytes(), &entries)
	if len(entries) < 2 {
		t.Errorf("Expected create and complete entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.TaskID != task.ID {
			t.Errorf("Entry for wrong task: %+v", e)
		}
	}
}

func TestListTasks_StatusFilter(t *testing.T) {
	s, service := newTestServer(t)

	createTask(t, s, map[string]interface{}{"title": "open"})
	done := createTask(t, s, map[string]interface{}{"title": "done"})
	if _, err := service.CompleteTask(done.ID, nil); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	w := doJSON(t, s.handleTasks, http.MethodGet, "/tasks?status=pending", nil)
	var tasks []models.Task
	json.Unmarshal(w.Body.Bytes(), &tasks)
	if len(tasks) != 1 || tasks[0].Title != "open" {
		t.Errorf("Expected only the open task, got %d", len(tasks))
	}
}

func intPtr(n int) *int { return &n }
