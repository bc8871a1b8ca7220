package tasklist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktrack/internal/filter"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/theme"
)

// Model is the main task list view component.
type Model struct {
	list     list.Model
	criteria filter.Criteria
	width    int
	height   int
}

// New creates a new task list model.
func New(width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		criteria: filter.DefaultCriteria(),
		width:    width,
		height:   height,
	}
}

// Update handles navigation keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SetTasks replaces the shown tasks, keeping the cursor on the same task
// when it is still visible.
func (m *Model) SetTasks(tasks []model.Task, elapsed map[string]time.Duration, now time.Time, c filter.Criteria) tea.Cmd {
	selected, hadSelection := m.SelectedTask()

	items := make([]list.Item, len(tasks))
	for i, task := range tasks {
		items[i] = TaskItem{Task: task, Elapsed: elapsed[task.ID], Now: now}
	}

	m.criteria = c
	m.list.Title = title(c)
	cmd := m.list.SetItems(items)

	if hadSelection {
		for i, task := range tasks {
			if task.ID == selected.ID {
				m.list.Select(i)
				break
			}
		}
	}
	return cmd
}

// SetElapsed refreshes live elapsed times without reordering.
func (m *Model) SetElapsed(elapsed map[string]time.Duration, now time.Time) {
	for i, item := range m.list.Items() {
		it, ok := item.(TaskItem)
		if !ok {
			continue
		}
		if d, ok := elapsed[it.Task.ID]; ok {
			it.Elapsed = d
		}
		it.Now = now
		m.list.SetItem(i, it)
	}
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	it, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return it.Task, true
}

// Len returns the number of shown tasks.
func (m Model) Len() int {
	return len(m.list.Items())
}

// View renders the task list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when no tasks are shown.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if !m.criteria.Unfiltered() {
		return style.Render("No matching tasks.\nPress 0 to clear filters.")
	}

	return style.Render(
		"No tasks yet.\n\n" +
			"Press n to add one, or : then type 'add task ...'.",
	)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

// title summarizes the active filters and sort.
func title(c filter.Criteria) string {
	parts := []string{"Tasks"}
	if s := FilterSummary(c); s != "" {
		parts = append(parts, s)
	}
	if c.Sort != "" && c.Sort != filter.SortDefault {
		parts = append(parts, fmt.Sprintf("sort: %s", c.Sort))
	}
	return strings.Join(parts, " · ")
}

// FilterSummary describes the active predicates, or "" when none is set.
func FilterSummary(c filter.Criteria) string {
	var parts []string
	if c.Status != "" && c.Status != filter.StatusAll {
		parts = append(parts, string(c.Status))
	}
	if c.Priority != "" && c.Priority != filter.PriorityAll {
		parts = append(parts, string(c.Priority)+" priority")
	}
	if c.Date != "" && c.Date != filter.DateAll {
		parts = append(parts, "due "+string(c.Date))
	}
	if c.Tracking != "" && c.Tracking != filter.TrackingAll {
		parts = append(parts, strings.ReplaceAll(string(c.Tracking), "_", " "))
	}
	return strings.Join(parts, ", ")
}
