package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task

	// Elapsed is the live tracked time, including any open session.
	Elapsed time.Duration

	// Now is the render time used for deadline countdowns.
	Now time.Time
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Text }

// Title returns the task text for the list.
func (i TaskItem) Title() string { return i.Task.Text }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		string(i.Task.Priority),
		string(i.Task.TrackingState().Status()),
	}
	if i.Task.Deadline != nil {
		parts = append(parts, model.TimeRemaining(*i.Task.Deadline, i.Now))
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering task lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderLine(it, index == m.Index()))
}

// renderLine builds the one-line rendering of a task.
func renderLine(it TaskItem, selected bool) string {
	task := it.Task

	prefix := "○"
	if task.Completed {
		prefix = "✓"
	}

	priBadge := theme.PriorityStyle(task.Priority).Render(priorityLabel(task.Priority))

	status := task.TrackingState().Status()
	trackBadge := ""
	if status != model.TrackingNotStarted || it.Elapsed > 0 {
		trackBadge = " " + theme.TrackingStyle(status).Render(
			trackingIcon(status)+" "+model.FormatDuration(it.Elapsed),
		)
	}

	auto := ""
	if task.Automated {
		auto = lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(" ⟳")
	}

	line := fmt.Sprintf("%s %s %s%s%s%s", prefix, priBadge, task.Text, auto, trackBadge, deadlineLabel(task, it.Now))

	if task.Completed {
		line = theme.DimmedStyle.Render(line)
	}

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// deadlineLabel renders the countdown for open tasks and the due date for
// completed ones.
func deadlineLabel(task model.Task, now time.Time) string {
	if task.Deadline == nil {
		return ""
	}
	deadline := *task.Deadline

	if task.Completed {
		return theme.DueDateStyle.Render(" " + deadline.Local().Format("Jan 02 15:04"))
	}

	remaining := model.TimeRemaining(deadline, now)
	switch {
	case deadline.Before(now):
		return theme.OverdueStyle.Render(" " + strings.ToUpper(remaining))
	case model.IsUrgent(deadline, now):
		return theme.UrgentStyle.Render(" " + remaining)
	default:
		return theme.DueDateStyle.Render(" " + remaining)
	}
}

func trackingIcon(s model.TrackingStatus) string {
	switch s {
	case model.TrackingInProgress:
		return "▶"
	case model.TrackingPaused:
		return "⏸"
	case model.TrackingCompleted:
		return "■"
	default:
		return "·"
	}
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "H"
	case model.PriorityMedium:
		return "M"
	case model.PriorityLow:
		return "L"
	default:
		return "?"
	}
}
