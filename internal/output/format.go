// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/nibzard/task-cli/internal/task"
)

const (
	// statusWidth fits the longest status name, "in-progress".
	statusWidth = 11

	// TimeLayout is how list output shows createdAt and updatedAt.
	TimeLayout = "2006-01-02 15:04"

	timeWidth = len(TimeLayout)
)

// FormatTask formats a task line for list output.
// Format: "{ID:>4}  {STATUS:<11}  {CREATED}  {UPDATED}  {DESCRIPTION}\n"
// Times are local; a task never changed shows "-" as its update time.
func FormatTask(w io.Writer, t task.Task) {
	fmt.Fprintf(w, "%4d  %-*s  %-*s  %-*s  %s\n",
		t.ID,
		statusWidth, t.Status,
		timeWidth, formatTime(t.CreatedAt),
		timeWidth, formatTime(t.UpdatedAt),
		normalizeDescription(t.Description))
}

// FormatTasks writes one line per task.
func FormatTasks(w io.Writer, tasks []task.Task) {
	for _, t := range tasks {
		FormatTask(w, t)
	}
}

// FormatCounts formats per-status totals on one line.
// Format: "todo: N  in-progress: N  done: N\n"
func FormatCounts(w io.Writer, counts map[task.Status]int) {
	parts := make([]string, 0, len(task.Statuses))
	for _, s := range task.Statuses {
		parts = append(parts, fmt.Sprintf("%s: %d", s, counts[s]))
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
}

// normalizeDescription keeps each task on a single line.
func normalizeDescription(description string) string {
	description = strings.ReplaceAll(description, "\r", " ")
	return strings.ReplaceAll(description, "\n", " ")
}

func formatTime(ts task.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(TimeLayout)
}
