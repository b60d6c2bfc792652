package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskPreviewCmd = &cobra.Command{
	Use:   "preview [task-id]",
	Short: "Preview upcoming occurrences of a recurring task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskPreview,
}

var taskArchiveCmd = &cobra.Command{
	Use:   "archive [task-id]",
	Short: "Archive a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskArchive,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Edit a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var (
	taskTitle    string
	taskDesc     string
	taskPriority string
	taskDue      string
	taskEvery    string
	taskInterval int
	taskUntil    string
	taskEstimate int
	taskTags     string
	taskStatus   string
	taskAll      bool
	doneMinutes  int
	previewCount int
	editStatus   string
	clearDue     bool
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskDoneCmd, taskPreviewCmd, taskArchiveCmd, taskRmCmd, taskEditCmd)

	taskAddCmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	taskAddCmd.Flags().StringVar(&taskDesc, "desc", "", "Task description")
	taskAddCmd.Flags().StringVar(&taskPriority, "priority", "", "Priority (low, medium, high, urgent)")
	taskAddCmd.Flags().StringVar(&taskDue, "due", "", "Due date (2006-01-02 or RFC3339)")
	taskAddCmd.Flags().StringVar(&taskEvery, "every", "", "Recurrence (daily, weekly, monthly, yearly, custom)")
	taskAddCmd.Flags().IntVar(&taskInterval, "interval", 1, "Recurrence interval")
	taskAddCmd.Flags().StringVar(&taskUntil, "until", "", "Stop recurring after this date")
	taskAddCmd.Flags().IntVar(&taskEstimate, "estimate", 0, "Estimated minutes")
	taskAddCmd.Flags().StringVar(&taskTags, "tags", "", "Comma-separated tags")
	taskAddCmd.MarkFlagRequired("title")

	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status (pending, in_progress, completed, cancelled)")
	taskListCmd.Flags().BoolVar(&taskAll, "all", false, "Include archived tasks")

	taskDoneCmd.Flags().IntVar(&doneMinutes, "minutes", 0, "Actual minutes spent")

	taskPreviewCmd.Flags().IntVar(&previewCount, "count", 5, "Number of occurrences to preview")

	taskEditCmd.Flags().StringVar(&taskTitle, "title", "", "New title")
	taskEditCmd.Flags().StringVar(&taskPriority, "priority", "", "New priority")
	taskEditCmd.Flags().StringVar(&editStatus, "status", "", "New status")
	taskEditCmd.Flags().StringVar(&taskDue, "due", "", "New due date")
	taskEditCmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
}

func parseDate(s string) (string, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(time.RFC3339), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t.Format(time.RFC3339), nil
	}
	return "", fmt.Errorf("invalid date %q (want 2006-01-02 or RFC3339)", s)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	body := map[string]interface{}{
		"title":       taskTitle,
		"description": taskDesc,
	}
	if taskPriority != "" {
		body["priority"] = taskPriority
	}
	if taskDue != "" {
		due, err := parseDate(taskDue)
		if err != nil {
			return err
		}
		body["due_date"] = due
	}
	if taskEvery != "" {
		body["recurrence_type"] = taskEvery
		body["recurrence_interval"] = taskInterval
		if taskUntil != "" {
			until, err := parseDate(taskUntil)
			if err != nil {
				return err
			}
			body["recurrence_end_date"] = until
		}
	}
	if taskEstimate > 0 {
		body["estimated_minutes"] = taskEstimate
	}
	if taskTags != "" {
		body["tags"] = taskTags
	}

	resp, err := apiPost("/tasks", body)
	if err != nil {
		return err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Created task: %s\n", result["id"])
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	url := "/tasks"
	var params []string
	if taskStatus != "" {
		params = append(params, "status="+taskStatus)
	}
	if taskAll {
		params = append(params, "archived=true")
	}
	if len(params) > 0 {
		url += "?" + strings.Join(params, "&")
	}

	resp, err := apiGet(url)
	if err != nil {
		return err
	}

	var tasks []map[string]interface{}
	if err := json.Unmarshal(resp, &tasks); err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE\tREPEATS")
	for _, t := range tasks {
		id := truncateID(t["id"].(string))
		title := truncate(t["title"].(string), 40)
		status := t["status"].(string)
		priority := ""
		if p, ok := t["priority"].(string); ok {
			priority = p
		}
		due := ""
		if d, ok := t["due_date"].(string); ok {
			if ts, err := time.Parse(time.RFC3339, d); err == nil {
				due = ts.Local().Format("Jan 2 15:04")
			}
		}
		repeats := ""
		if rt, ok := t["recurrence_type"].(string); ok && rt != "" && rt != "none" {
			repeats = rt
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", id, title, status, priority, due, repeats)
	}
	w.Flush()
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/tasks/" + args[0])
	if err != nil {
		return err
	}

	var task map[string]interface{}
	if err := json.Unmarshal(resp, &task); err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", task["id"])
	fmt.Printf("Title:       %s\n", task["title"])
	if desc, ok := task["description"].(string); ok && desc != "" {
		fmt.Printf("Description: %s\n", desc)
	}
	fmt.Printf("Status:      %s\n", task["status"])
	fmt.Printf("Priority:    %s\n", task["priority"])
	if tags, ok := task["tags"].(string); ok && tags != "" {
		fmt.Printf("Tags:        %s\n", tags)
	}
	if due, ok := task["due_date"].(string); ok && due != "" {
		fmt.Printf("Due:         %s\n", due)
	}
	if rt, ok := task["recurrence_type"].(string); ok && rt != "" && rt != "none" {
		interval := 1.0
		if iv, ok := task["recurrence_interval"].(float64); ok && iv >= 1 {
			interval = iv
		}
		fmt.Printf("Repeats:     every %.0f %s\n", interval, rt)
		if end, ok := task["recurrence_end_date"].(string); ok && end != "" {
			fmt.Printf("Until:       %s\n", end)
		}
	}
	if est, ok := task["estimated_minutes"].(float64); ok && est > 0 {
		fmt.Printf("Estimated:   %.0fm\n", est)
	}
	if act, ok := task["actual_minutes"].(float64); ok && act > 0 {
		fmt.Printf("Actual:      %.0fm\n", act)
	}
	if done, ok := task["completed_at"].(string); ok && done != "" {
		fmt.Printf("Completed:   %s\n", done)
	}
	fmt.Printf("Created:     %s\n", task["created_at"])
	fmt.Printf("Updated:     %s\n", task["updated_at"])

	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	body := map[string]interface{}{}
	if doneMinutes > 0 {
		body["actual_minutes"] = doneMinutes
	}

	resp, err := apiPost("/tasks/"+args[0]+"/complete", body)
	if err != nil {
		return err
	}

	var result struct {
		Next *struct {
			ID      string `json:"id"`
			DueDate string `json:"due_date"`
		} `json:"next"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Completed task %s\n", truncateID(args[0]))
	if result.Next != nil {
		due := result.Next.DueDate
		if ts, err := time.Parse(time.RFC3339, due); err == nil {
			due = ts.Local().Format("Mon Jan 2 15:04")
		}
		fmt.Printf("Next occurrence %s due %s\n", truncateID(result.Next.ID), due)
	}
	return nil
}

func runTaskPreview(cmd *cobra.Command, args []string) error {
	resp, err := apiGet(fmt.Sprintf("/tasks/%s/preview?count=%d", args[0], previewCount))
	if err != nil {
		return err
	}

	var result struct {
		Dates []string `json:"dates"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	if len(result.Dates) == 0 {
		fmt.Println("No upcoming occurrences")
		return nil
	}

	fmt.Println("Upcoming occurrences:")
	for _, d := range result.Dates {
		if ts, err := time.Parse(time.RFC3339, d); err == nil {
			d = ts.Local().Format("Mon Jan 2 2006 15:04")
		}
		fmt.Printf("  %s\n", d)
	}
	return nil
}

func runTaskArchive(cmd *cobra.Command, args []string) error {
	_, err := apiPost("/tasks/"+args[0]+"/archive", map[string]bool{"archived": true})
	if err != nil {
		return err
	}
	fmt.Printf("Archived task %s\n", truncateID(args[0]))
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	body := map[string]interface{}{}
	if taskTitle != "" {
		body["title"] = taskTitle
	}
	if taskPriority != "" {
		body["priority"] = taskPriority
	}
	if editStatus != "" {
		body["status"] = editStatus
	}
	if clearDue {
		body["clear_due_date"] = true
	} else if taskDue != "" {
		due, err := parseDate(taskDue)
		if err != nil {
			return err
		}
		body["due_date"] = due
	}
	if len(body) == 0 {
		return fmt.Errorf("nothing to change")
	}

	if _, err := apiPatch("/tasks/"+args[0], body); err != nil {
		return err
	}
	fmt.Printf("Updated task %s\n", truncateID(args[0]))
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	if err := apiDelete("/tasks/" + args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted task %s\n", truncateID(args[0]))
	return nil
}

// --- Helpers ---

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
