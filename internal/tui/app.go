// Package tui provides the interactive terminal UI for taskbeat.
package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	daemonOnStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	daemonOffStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// Heatmap shades from empty to busy days
	heatShades = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#065F46")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#059669")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#6EE7B7")),
	}
)

// App is the main TUI application model.
type App struct {
	client       *Client
	tasks        []TaskItem
	selectedIdx  int
	input        textinput.Model
	viewport     viewport.Model
	width        int
	height       int
	mode         string // "list", "detail", "stats"
	currentTask  *TaskDetail
	activityLog  []ActivityItem
	previewDates []string
	stats        *StatsDetail
	message      string
	filter       string
	filterIdx    int
	loading      bool
	daemonOnline bool
	suggestions  *Suggestions
}

var filters = []string{"", "pending", "in_progress", "completed", "cancelled"}
var filterNames = []string{"ALL", "PENDING", "ACTIVE", "DONE", "CANCELLED"}

// New creates a new TUI application.
func New(apiAddr string) *App {
	ti := textinput.New()
	ti.Placeholder = "Type: add <title> | done [minutes] | preview | stats | archive | rm"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	vp := viewport.New(80, 20)

	return &App{
		client:      NewClient(apiAddr),
		input:       ti,
		viewport:    vp,
		mode:        "list",
		suggestions: NewSuggestions(),
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchTasks(),
		a.checkDaemon(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit

		case "esc":
			if a.mode == "detail" || a.mode == "stats" {
				a.mode = "list"
				a.currentTask = nil
				a.previewDates = nil
				return a, a.fetchTasks()
			}

		case "up", "k":
			if a.suggestions.IsVisible() {
				a.suggestions.Prev()
			} else if a.mode == "list" && a.selectedIdx > 0 {
				a.selectedIdx--
			}

		case "down", "j":
			if a.suggestions.IsVisible() {
				a.suggestions.Next()
			} else if a.mode == "list" && a.selectedIdx < len(a.tasks)-1 {
				a.selectedIdx++
			}

		case "tab":
			// If suggestions visible, accept selection
			if a.suggestions.IsVisible() {
				if selected := a.suggestions.Selected(); selected != nil {
					a.input.SetValue(selected.Text + " ")
					a.suggestions.Update("")
				}
				return a, nil
			}
			if a.mode == "list" {
				a.filterIdx = (a.filterIdx + 1) % len(filters)
				a.filter = filters[a.filterIdx]
				return a, a.fetchTasks()
			}

		case "enter":
			if a.suggestions.IsVisible() {
				if selected := a.suggestions.Selected(); selected != nil {
					a.input.SetValue(selected.Text + " ")
					a.suggestions.Update("")
				}
				return a, nil
			}
			cmd := strings.TrimSpace(a.input.Value())
			if cmd != "" {
				a.input.SetValue("")
				return a, a.executeCommand(cmd)
			} else if a.mode == "list" && len(a.tasks) > 0 {
				task := a.tasks[a.selectedIdx]
				a.mode = "detail"
				return a, a.fetchTaskDetail(task.ID)
			}

		case "r":
			if a.mode == "list" {
				return a, a.fetchTasks()
			} else if a.mode == "stats" {
				return a, a.fetchStats()
			}

		case "s":
			if a.input.Value() == "" {
				a.mode = "stats"
				return a, a.fetchStats()
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 10

	case tasksLoadedMsg:
		a.loading = false
		a.tasks = msg.tasks
		if a.selectedIdx >= len(a.tasks) {
			a.selectedIdx = max(0, len(a.tasks)-1)
		}

	case taskDetailLoadedMsg:
		a.currentTask = msg.task
		a.activityLog = msg.activity
		a.previewDates = msg.preview

	case statsLoadedMsg:
		a.stats = msg.stats

	case daemonStatusMsg:
		a.daemonOnline = msg.online

	case commandResultMsg:
		a.message = msg.message
		if a.mode == "stats" {
			return a, a.fetchStats()
		}
		return a, a.fetchTasks()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	// Update input
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	// Update suggestions based on input
	a.suggestions.Update(a.input.Value())
	if strings.HasPrefix(a.input.Value(), "@") {
		a.suggestions.SetTasks(a.tasks)
	}

	return a, tea.Batch(cmds...)
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemonStatus := daemonOnStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemonStatus = daemonOffStyle.Render("○ DAEMON")
	}

	header := titleStyle.Render("⏱ TASKBEAT")
	header += "  " + daemonStatus
	if a.stats != nil && a.stats.CurrentStreak > 0 {
		header += "  " + lipgloss.NewStyle().Foreground(warningColor).Render(fmt.Sprintf("🔥 %d day streak", a.stats.CurrentStreak))
	}

	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", a.width) + "\n")

	contentHeight := a.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case "list":
		filterLabel := fmt.Sprintf(" Filter: [%s]", filterNames[a.filterIdx])
		b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render(filterLabel) + "\n")
		b.WriteString(a.renderTaskList(contentHeight - 1))
	case "detail":
		b.WriteString(a.renderTaskDetail(contentHeight))
	case "stats":
		b.WriteString(a.renderStatsPanel(contentHeight))
	}

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	// Input box
	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))

	// Suggestions dropdown renders below the input
	if a.suggestions.IsVisible() {
		b.WriteString("\n")
		b.WriteString(a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	var status string
	switch a.mode {
	case "list":
		status = fmt.Sprintf(" Tasks: %d | ↑↓:nav | Tab:filter | s:stats | r:refresh | Ctrl+C:quit", len(a.tasks))
	case "stats":
		status = " Stats | r:refresh | Esc:back | Ctrl+C:quit"
	default:
		status = " Esc:back | Enter:command | Ctrl+C:quit"
	}
	b.WriteString(statusBarStyle.Width(a.width).Render(status))

	return b.String()
}

func (a *App) renderTaskList(height int) string {
	if a.loading {
		return "\n  Loading tasks...\n"
	}
	if len(a.tasks) == 0 {
		return "\n  No tasks found. Type: add <title> to create one.\n"
	}

	var lines []string
	for i, task := range a.tasks {
		recur := " "
		if task.Recurring {
			recur = "↻"
		}
		due := task.DueDate
		if due != "" {
			due = "  " + lipgloss.NewStyle().Foreground(mutedColor).Render(due)
		}

		if i == a.selectedIdx {
			line := selectedStyle.Render(fmt.Sprintf("▶ %s %s %s  %s", a.statusIcon(task.Status), recur, a.priorityTag(task.Priority), task.TaskTitle))
			lines = append(lines, line+due)
		} else {
			line := taskItemStyle.Render(fmt.Sprintf("  %s %s %s  %s", a.formatStatus(task.Status), recur, a.priorityTag(task.Priority), task.TaskTitle))
			lines = append(lines, line+due)
		}
	}

	// Limit visible lines
	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

func (a *App) renderTaskDetail(height int) string {
	if a.currentTask == nil {
		return "\n  Loading...\n"
	}

	var b strings.Builder
	t := a.currentTask

	b.WriteString(fmt.Sprintf("\n  📋 %s\n", lipgloss.NewStyle().Bold(true).Render(t.Title)))
	b.WriteString(fmt.Sprintf("  ID: %s\n", t.ID[:8]))
	b.WriteString(fmt.Sprintf("  Status: %s   Priority: %s\n", a.formatStatus(t.Status), a.priorityTag(t.Priority)))
	if t.Description != "" {
		b.WriteString(fmt.Sprintf("  Description: %s\n", t.Description))
	}
	if t.Tags != "" {
		b.WriteString(fmt.Sprintf("  Tags: %s\n", t.Tags))
	}
	if t.DueDate != "" {
		b.WriteString(fmt.Sprintf("  Due: %s\n", t.DueDate))
	}
	if t.RecurrenceType != "" && t.RecurrenceType != "none" {
		interval := t.RecurrenceInterval
		if interval < 1 {
			interval = 1
		}
		b.WriteString(fmt.Sprintf("  Repeats: every %d %s\n", interval, t.RecurrenceType))
	}
	if t.EstimatedMinutes > 0 {
		b.WriteString(fmt.Sprintf("  Estimated: %dm", t.EstimatedMinutes))
		if t.ActualMinutes > 0 {
			b.WriteString(fmt.Sprintf("   Actual: %dm", t.ActualMinutes))
		}
		b.WriteString("\n")
	}
	if t.CompletedAt != "" {
		b.WriteString(fmt.Sprintf("  Completed: %s\n", t.CompletedAt))
	}

	if len(a.previewDates) > 0 {
		b.WriteString("\n  📅 Upcoming:\n")
		for _, d := range a.previewDates {
			b.WriteString(fmt.Sprintf("    • %s\n", d))
		}
	}

	if len(a.activityLog) > 0 {
		b.WriteString("\n  📜 Activity:\n")
		for i, entry := range a.activityLog {
			if i >= 5 {
				break
			}
			b.WriteString(fmt.Sprintf("    • %s  %s\n", entry.CreatedAt, entry.Action))
		}
	}

	return b.String()
}

func (a *App) renderStatsPanel(height int) string {
	var b strings.Builder

	b.WriteString("\n  📊 Completion Statistics\n")
	b.WriteString("  " + strings.Repeat("─", 50) + "\n\n")

	if a.stats == nil {
		b.WriteString("  Loading...\n")
		return b.String()
	}

	s := a.stats

	rateStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	b.WriteString(fmt.Sprintf("  Tasks: %d total, %d pending, %d done",
		s.TotalTasks, s.PendingTasks, s.CompletedTasks))
	if s.OverdueTasks > 0 {
		b.WriteString(", " + lipgloss.NewStyle().Foreground(errorColor).Render(fmt.Sprintf("%d overdue", s.OverdueTasks)))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Completion rate: %s\n", rateStyle.Render(fmt.Sprintf("%.0f%%", s.CompletionRate*100))))
	if s.AvgCompletionHours > 0 {
		b.WriteString(fmt.Sprintf("  Avg time to complete: %.1fh\n", s.AvgCompletionHours))
	}
	if s.EstimationAccuracy > 0 {
		b.WriteString(fmt.Sprintf("  Estimation accuracy: %.0f%%\n", s.EstimationAccuracy*100))
	}

	streakStyle := lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	b.WriteString(fmt.Sprintf("\n  🔥 Streak: %s current, %d longest\n",
		streakStyle.Render(fmt.Sprintf("%d days", s.CurrentStreak)), s.LongestStreak))

	if len(s.ByPriority) > 0 {
		b.WriteString("\n  By priority:\n")
		for _, p := range []string{"urgent", "high", "medium", "low"} {
			if count, ok := s.ByPriority[p]; ok {
				b.WriteString(fmt.Sprintf("    %s %d\n", a.priorityTag(p), count))
			}
		}
	}

	if len(s.Heatmap) > 0 {
		b.WriteString("\n  Last " + strconv.Itoa(len(s.Heatmap)) + " days:\n")
		b.WriteString(a.renderHeatmap(s.Heatmap))
	}

	b.WriteString("\n  " + helpStyle.Render("Press Esc to go back, r to refresh") + "\n")

	return b.String()
}

// renderHeatmap draws one shaded block per day, oldest first, in rows
// of ten.
func (a *App) renderHeatmap(hm map[string]int) string {
	days := make([]string, 0, len(hm))
	for d := range hm {
		days = append(days, d)
	}
	sort.Strings(days)

	peak := 0
	for _, d := range days {
		if hm[d] > peak {
			peak = hm[d]
		}
	}

	var b strings.Builder
	b.WriteString("    ")
	for i, d := range days {
		if i > 0 && i%10 == 0 {
			b.WriteString("\n    ")
		}
		b.WriteString(a.heatBlock(hm[d], peak) + " ")
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) heatBlock(count, peak int) string {
	if count == 0 {
		return heatShades[0].Render("▪")
	}
	idx := 1
	if peak > 1 {
		idx = 1 + (count-1)*(len(heatShades)-2)/max(peak-1, 1)
	}
	if idx >= len(heatShades) {
		idx = len(heatShades) - 1
	}
	return heatShades[idx].Render("■")
}

func (a *App) formatStatus(status string) string {
	switch status {
	case "pending":
		return lipgloss.NewStyle().Foreground(warningColor).Render("○")
	case "in_progress":
		return lipgloss.NewStyle().Foreground(secondaryColor).Render("◐")
	case "completed":
		return lipgloss.NewStyle().Foreground(successColor).Render("●")
	case "cancelled":
		return lipgloss.NewStyle().Foreground(mutedColor).Render("✗")
	default:
		return "?"
	}
}

func (a *App) statusIcon(status string) string {
	switch status {
	case "pending":
		return "○"
	case "in_progress":
		return "◐"
	case "completed":
		return "●"
	case "cancelled":
		return "✗"
	default:
		return "?"
	}
}

func (a *App) priorityTag(priority string) string {
	switch priority {
	case "urgent":
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true).Render("!!")
	case "high":
		return lipgloss.NewStyle().Foreground(warningColor).Render("! ")
	case "medium":
		return lipgloss.NewStyle().Foreground(cyanColor).Render("- ")
	case "low":
		return lipgloss.NewStyle().Foreground(mutedColor).Render(". ")
	default:
		return "  "
	}
}

func (a *App) fetchTasks() tea.Cmd {
	a.loading = true
	return func() tea.Msg {
		tasks, err := a.client.ListTasks(a.filter)
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{tasks}
	}
}

func (a *App) fetchTaskDetail(taskID string) tea.Cmd {
	return func() tea.Msg {
		task, err := a.client.GetTask(taskID)
		if err != nil {
			return errMsg{err}
		}
		activity, _ := a.client.GetTaskActivity(taskID)
		var preview []string
		if task.RecurrenceType != "" && task.RecurrenceType != "none" {
			preview, _ = a.client.PreviewTask(taskID, 3)
		}
		return taskDetailLoadedMsg{task, activity, preview}
	}
}

func (a *App) fetchStats() tea.Cmd {
	return func() tea.Msg {
		stats, err := a.client.GetStats()
		if err != nil {
			return errMsg{err}
		}
		return statsLoadedMsg{stats}
	}
}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		ok, err := a.client.CheckHealth()
		return daemonStatusMsg{online: err == nil && ok}
	}
}

func (a *App) executeCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := parts[0]
	args := parts[1:]

	return func() tea.Msg {
		switch cmd {
		case "add":
			if len(args) < 1 {
				return commandResultMsg{"Usage: add <title>"}
			}
			title := strings.Join(args, " ")
			id, err := a.client.CreateTask(title, "")
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Created task: %s", id[:8])}

		case "urgent":
			if len(args) < 1 {
				return commandResultMsg{"Usage: urgent <title>"}
			}
			title := strings.Join(args, " ")
			id, err := a.client.CreateTask(title, "urgent")
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Created urgent task: %s", id[:8])}

		case "done", "complete":
			if len(a.tasks) == 0 {
				return commandResultMsg{"No task selected"}
			}
			taskID := a.tasks[a.selectedIdx].ID
			minutes := 0
			if len(args) > 0 {
				if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
					minutes = n
				}
			}
			nextDue, err := a.client.CompleteTask(taskID, minutes)
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			if nextDue != "" {
				return commandResultMsg{fmt.Sprintf("✓ Done. Next occurrence due %s", nextDue)}
			}
			return commandResultMsg{"✓ Task completed"}

		case "rm", "delete":
			if len(a.tasks) == 0 {
				return commandResultMsg{"No task selected"}
			}
			taskID := a.tasks[a.selectedIdx].ID
			if err := a.client.DeleteTask(taskID); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task deleted"}

		case "archive":
			if len(a.tasks) == 0 {
				return commandResultMsg{"No task selected"}
			}
			taskID := a.tasks[a.selectedIdx].ID
			if err := a.client.ArchiveTask(taskID); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task archived"}

		case "preview":
			if len(a.tasks) == 0 {
				return commandResultMsg{"No task selected"}
			}
			task := a.tasks[a.selectedIdx]
			if !task.Recurring {
				return commandResultMsg{"Selected task does not repeat"}
			}
			dates, err := a.client.PreviewTask(task.ID, 5)
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("Next: %s", strings.Join(dates, ", "))}

		case "stats":
			a.mode = "stats"
			return commandResultMsg{"Showing statistics"}

		case "q", "quit", "exit":
			return tea.Quit()

		default:
			return commandResultMsg{fmt.Sprintf("Unknown: %s (try: add, done, rm, archive, preview, stats)", cmd)}
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type tasksLoadedMsg struct {
	tasks []TaskItem
}

type taskDetailLoadedMsg struct {
	task     *TaskDetail
	activity []ActivityItem
	preview  []string
}

type statsLoadedMsg struct {
	stats *StatsDetail
}

type daemonStatusMsg struct {
	online bool
}
