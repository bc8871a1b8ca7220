package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktrack/internal/keys"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Action names a task operation requested from the detail view.
type Action string

const (
	ActionToggle Action = "toggle"
	ActionStart  Action = "start"
	ActionPause  Action = "pause"
	ActionEdit   Action = "edit"
)

// ActionMsg signals the parent to execute an action on the shown task.
type ActionMsg struct {
	Action Action
	TaskID string
}

const stampLayout = "2006-01-02 15:04"

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	elapsed  time.Duration
	now      time.Time
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(keyMsg, m.keys.Toggle):
			return m, m.action(ActionToggle)

		case key.Matches(keyMsg, m.keys.Start):
			return m, m.action(ActionStart)

		case key.Matches(keyMsg, m.keys.Pause):
			return m, m.action(ActionPause)

		case key.Matches(keyMsg, m.keys.Edit):
			return m, m.action(ActionEdit)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(a Action) tea.Cmd {
	if m.task == nil {
		return nil
	}
	id := m.task.ID
	return func() tea.Msg { return ActionMsg{Action: a, TaskID: id} }
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No task selected")
	}

	return m.viewport.View() + "\n" +
		theme.HelpStyle.Render("x done | s start/resume | p pause | e edit | esc back")
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	if task.Completed {
		titleStyle = titleStyle.Inherit(theme.DimmedStyle)
	}
	sections = append(sections, titleStyle.Render(task.Text))

	status := task.TrackingState().Status()
	badges := []string{
		theme.PriorityStyle(task.Priority).Render(strings.ToUpper(string(task.Priority))),
		theme.TrackingStyle(status).Render(strings.ReplaceAll(string(status), "_", " ")),
	}
	if task.Automated {
		badges = append(badges, lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render("automated"))
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(11)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return metaStyle.Render(label+":") + valStyle.Render(value)
	}

	sections = append(sections,
		row("Created", task.CreatedAt.Format(stampLayout)),
		row("Modified", task.LastModified.Format(stampLayout)),
	)
	if task.HasDeadline() {
		due := task.Deadline.Format(stampLayout)
		if !task.Completed {
			due += "  " + deadlineLabel(*task.Deadline, m.now)
		}
		sections = append(sections, row("Due", due))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	sections = append(sections, headerStyle.Render("Time Tracking"))
	sections = append(sections, trackingRows(task.TrackingState(), m.elapsed, row)...)

	if pauses := pausesOf(task.TrackingState()); len(pauses) > 0 {
		sections = append(sections, "", headerStyle.Render(fmt.Sprintf("Pauses (%d)", len(pauses))))
		for _, p := range pauses {
			sections = append(sections, pauseLine(p, m.now))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func trackingRows(tt model.TimeTracking, elapsed time.Duration, row func(string, string) string) []string {
	switch s := tt.(type) {
	case model.InProgress:
		return []string{
			row("Started", s.StartedAt.Format(stampLayout)),
			row("Session", "since "+s.SessionStart.Format("15:04")),
			row("Elapsed", model.FormatDuration(elapsed)),
		}
	case model.Paused:
		return []string{
			row("Started", s.StartedAt.Format(stampLayout)),
			row("Elapsed", model.FormatDuration(s.Total)),
		}
	case model.Completed:
		rows := []string{}
		if s.StartedAt != nil {
			rows = append(rows, row("Started", s.StartedAt.Format(stampLayout)))
		}
		return append(rows,
			row("Finished", s.CompletedAt.Format(stampLayout)),
			row("Total", model.FormatDuration(s.Total)),
		)
	default:
		if total := tt.TotalTime(); total > 0 {
			return []string{row("Recorded", model.FormatDuration(total))}
		}
		return []string{lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("Not started")}
	}
}

func pausesOf(tt model.TimeTracking) []model.Pause {
	switch s := tt.(type) {
	case model.InProgress:
		return s.Pauses
	case model.Paused:
		return s.Pauses
	case model.Completed:
		return s.Pauses
	}
	return nil
}

func pauseLine(p model.Pause, now time.Time) string {
	if p.End == nil {
		return fmt.Sprintf("  %s → now (%s)", p.Start.Format("15:04"), model.FormatDuration(now.Sub(p.Start)))
	}
	return fmt.Sprintf("  %s → %s (%s)", p.Start.Format("15:04"), p.End.Format("15:04"), model.FormatDuration(p.End.Sub(p.Start)))
}

func deadlineLabel(deadline, now time.Time) string {
	switch {
	case !deadline.After(now):
		return theme.OverdueStyle.Render("OVERDUE")
	case model.IsUrgent(deadline, now):
		return theme.UrgentStyle.Render(model.TimeRemaining(deadline, now))
	default:
		return theme.DueDateStyle.Render(model.TimeRemaining(deadline, now))
	}
}

// SetTask shows task with its live elapsed time. Showing a different task
// scrolls back to the top.
func (m *Model) SetTask(task model.Task, elapsed time.Duration, now time.Time) {
	switched := m.task == nil || m.task.ID != task.ID
	m.task = &task
	m.elapsed = elapsed
	m.now = now
	m.viewport.SetContent(m.renderContent())
	if switched {
		m.viewport.GotoTop()
	}
}

// Clear drops the shown task.
func (m *Model) Clear() {
	m.task = nil
	m.viewport.SetContent("")
}

// TaskID returns the ID of the shown task, or "".
func (m Model) TaskID() string {
	if m.task == nil {
		return ""
	}
	return m.task.ID
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-2, 0)
	if m.task != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
