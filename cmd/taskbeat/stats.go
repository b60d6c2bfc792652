package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "Heatmap window in days (0 uses the server default)")
}

func runStats(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/stats")
	if err != nil {
		return err
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
	}
	if err := json.Unmarshal(resp, &stats); err != nil {
		return err
	}

	fmt.Printf("Tasks:               %d total, %d pending, %d completed, %d overdue\n",
		stats.TotalTasks, stats.PendingTasks, stats.CompletedTasks, stats.OverdueTasks)
	fmt.Printf("Completion rate:     %.0f%%\n", stats.CompletionRate*100)
	if stats.AvgCompletionHours > 0 {
		fmt.Printf("Avg time to done:    %.1fh\n", stats.AvgCompletionHours)
	}
	if stats.EstimationAccuracy > 0 {
		fmt.Printf("Estimation accuracy: %.0f%%\n", stats.EstimationAccuracy*100)
	}
	fmt.Printf("Streak:              %d days current, %d longest\n",
		stats.Streak.Current, stats.Streak.Longest)

	if len(stats.TasksByPriority) > 0 {
		fmt.Println("\nBy priority:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, p := range []string{"urgent", "high", "medium", "low"} {
			if count, ok := stats.TasksByPriority[p]; ok {
				fmt.Fprintf(w, "  %s\t%d\n", p, count)
			}
		}
		w.Flush()
	}

	if len(stats.TasksByCategory) > 0 {
		fmt.Println("\nBy category:")
		names := make([]string, 0, len(stats.TasksByCategory))
		for name := range stats.TasksByCategory {
			names = append(names, name)
		}
		sort.Strings(names)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, name := range names {
			fmt.Fprintf(w, "  %s\t%d\n", name, stats.TasksByCategory[name])
		}
		w.Flush()
	}

	return printHeatmap()
}

func printHeatmap() error {
	url := "/stats/heatmap"
	if statsDays > 0 {
		url = fmt.Sprintf("%s?days=%d", url, statsDays)
	}
	resp, err := apiGet(url)
	if err != nil {
		return err
	}

	var hm map[string]int
	if err := json.Unmarshal(resp, &hm); err != nil {
		return err
	}
	if len(hm) == 0 {
		return nil
	}

	days := make([]string, 0, len(hm))
	for d := range hm {
		days = append(days, d)
	}
	sort.Strings(days)

	fmt.Printf("\nLast %d days:\n", len(days))
	for _, d := range days {
		count := hm[d]
		if count == 0 {
			continue
		}
		bar := ""
		for i := 0; i < count && i < 40; i++ {
			bar += "█"
		}
		fmt.Printf("  %s  %s %d\n", d, bar, count)
	}
	return nil
}
