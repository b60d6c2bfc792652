package tui

// TaskItem is a summary of a task for the list view
type TaskItem struct {
	ID        string
	TaskTitle string
	Status    string
	Priority  string
	DueDate   string
	Recurring bool
}

// TaskDetail is the full task information
type TaskDetail struct {
	ID                 string
	Title              string
	Description        string
	Status             string
	Priority           string
	Tags               string
	DueDate            string
	RecurrenceType     string
	RecurrenceInterval int
	EstimatedMinutes   int
	ActualMinutes      int
	CompletedAt        string
	CreatedAt          string
	UpdatedAt          string
}

// ActivityItem represents an activity log entry
type ActivityItem struct {
	Action    string
	Details   string
	CreatedAt string
}

// StatsDetail holds the aggregated completion statistics
type StatsDetail struct {
	TotalTasks         int
	PendingTasks       int
	CompletedTasks     int
	OverdueTasks       int
	CompletionRate     float64
	AvgCompletionHours float64
	EstimationAccuracy float64
	CurrentStreak      int
	LongestStreak      int
	ByPriority         map[string]int
	ByCategory         map[string]int
	Heatmap            map[string]int
}
