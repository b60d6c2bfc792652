package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the taskbeat API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

type taskJSON struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	Tags               string     `json:"tags"`
	DueDate            *time.Time `json:"due_date"`
	RecurrenceType     string     `json:"recurrence_type"`
	RecurrenceInterval int        `json:"recurrence_interval"`
	EstimatedMinutes   *int       `json:"estimated_minutes"`
	ActualMinutes      *int       `json:"actual_minutes"`
	CompletedAt        *time.Time `json:"completed_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ListTasks fetches tasks from the API
func (c *Client) ListTasks(status string) ([]TaskItem, error) {
	url := c.baseURL + "/tasks"
	if status != "" {
		url += "?status=" + status
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var tasks []taskJSON
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, err
	}

	items := make([]TaskItem, len(tasks))
	for i, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Local().Format("Jan 2 15:04")
		}
		items[i] = TaskItem{
			ID:        t.ID,
			TaskTitle: t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			DueDate:   due,
			Recurring: t.RecurrenceType != "" && t.RecurrenceType != "none",
		}
	}
	return items, nil
}

// GetTask fetches a single task
func (c *Client) GetTask(id string) (*TaskDetail, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/tasks/" + id)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var task taskJSON
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, err
	}

	detail := &TaskDetail{
		ID:                 task.ID,
		Title:              task.Title,
		Description:        task.Description,
		Status:             task.Status,
		Priority:           task.Priority,
		Tags:               task.Tags,
		RecurrenceType:     task.RecurrenceType,
		RecurrenceInterval: task.RecurrenceInterval,
		CreatedAt:          task.CreatedAt.Local().Format("2006-01-02 15:04"),
		UpdatedAt:          task.UpdatedAt.Local().Format("2006-01-02 15:04"),
	}
	if task.DueDate != nil {
		detail.DueDate = task.DueDate.Local().Format("2006-01-02 15:04")
	}
	if task.CompletedAt != nil {
		detail.CompletedAt = task.CompletedAt.Local().Format("2006-01-02 15:04")
	}
	if task.EstimatedMinutes != nil {
		detail.EstimatedMinutes = *task.EstimatedMinutes
	}
	if task.ActualMinutes != nil {
		detail.ActualMinutes = *task.ActualMinutes
	}
	return detail, nil
}

// GetTaskActivity fetches the activity log for a task
func (c *Client) GetTaskActivity(taskID string) ([]ActivityItem, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/tasks/" + taskID + "/activity")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []struct {
		Action    string    `json:"action"`
		Details   string    `json:"details"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}

	items := make([]ActivityItem, len(entries))
	for i, e := range entries {
		items[i] = ActivityItem{
			Action:    e.Action,
			Details:   e.Details,
			CreatedAt: e.Timestamp.Local().Format("Jan 2 15:04"),
		}
	}
	return items, nil
}

// CreateTask creates a new task
func (c *Client) CreateTask(title, priority string) (string, error) {
	body := map[string]string{"title": title}
	if priority != "" {
		body["priority"] = priority
	}
	resp, err := c.post("/tasks", body)
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// CompleteTask marks a task done and reports whether a follow-up was generated
func (c *Client) CompleteTask(taskID string, actualMinutes int) (nextDue string, err error) {
	body := map[string]interface{}{}
	if actualMinutes > 0 {
		body["actual_minutes"] = actualMinutes
	}
	resp, err := c.post("/tasks/"+taskID+"/complete", body)
	if err != nil {
		return "", err
	}

	var result struct {
		Next *taskJSON `json:"next"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", err
	}
	if result.Next != nil && result.Next.DueDate != nil {
		return result.Next.DueDate.Local().Format("Jan 2 15:04"), nil
	}
	return "", nil
}

// DeleteTask removes a task
func (c *Client) DeleteTask(taskID string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", string(body))
	}
	return nil
}

// ArchiveTask hides a task from the default views
func (c *Client) ArchiveTask(taskID string) error {
	_, err := c.post("/tasks/"+taskID+"/archive", map[string]bool{"archived": true})
	return err
}

// PreviewTask fetches the next occurrence dates for a recurring task
func (c *Client) PreviewTask(taskID string, count int) ([]string, error) {
	url := c.baseURL + "/tasks/" + taskID + "/preview?count=" + strconv.Itoa(count)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var result struct {
		Dates []string `json:"dates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	out := make([]string, len(result.Dates))
	for i, d := range result.Dates {
		if ts, err := time.Parse(time.RFC3339, d); err == nil {
			out[i] = ts.Local().Format("Mon Jan 2 15:04")
		} else {
			out[i] = d
		}
	}
	return out, nil
}

// GetStats fetches aggregated completion statistics
func (c *Client) GetStats() (*StatsDetail, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/stats")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var stats struct {
		TotalTasks         int            `json:"total_tasks"`
		PendingTasks       int            `json:"pending_tasks"`
		CompletedTasks     int            `json:"completed_tasks"`
		OverdueTasks       int            `json:"overdue_tasks"`
		CompletionRate     float64        `json:"completion_rate"`
		AvgCompletionHours float64        `json:"avg_completion_hours"`
		EstimationAccuracy float64        `json:"estimation_accuracy"`
		TasksByPriority    map[string]int `json:"tasks_by_priority"`
		TasksByCategory    map[string]int `json:"tasks_by_category"`
		Streak             struct {
			Current int `json:"current"`
			Longest int `json:"longest"`
		} `json:"streak"`
		CompletionsByDay map[string]int `json:"completions_by_day"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}

	return &StatsDetail{
		TotalTasks:         stats.TotalTasks,
		PendingTasks:       stats.PendingTasks,
		CompletedTasks:     stats.CompletedTasks,
		OverdueTasks:       stats.OverdueTasks,
		CompletionRate:     stats.CompletionRate,
		AvgCompletionHours: stats.AvgCompletionHours,
		EstimationAccuracy: stats.EstimationAccuracy,
		CurrentStreak:      stats.Streak.Current,
		LongestStreak:      stats.Streak.Longest,
		ByPriority:         stats.TasksByPriority,
		ByCategory:         stats.TasksByCategory,
		Heatmap:            stats.CompletionsByDay,
	}, nil
}

func (c *Client) post(path string, data interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	return body, nil
}

// CheckHealth checks if the daemon is healthy
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
