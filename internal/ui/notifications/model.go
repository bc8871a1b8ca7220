package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktrack/internal/keys"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/theme"
)

// CloseMsg signals the parent to close the panel.
type CloseMsg struct{}

// DismissMsg asks the parent to remove one notification.
type DismissMsg struct {
	ID string
}

// DismissAllMsg asks the parent to clear the feed.
type DismissAllMsg struct{}

// Model is the notification feed panel.
type Model struct {
	keys        *keys.KeyMap
	feed        []model.Notification
	now         time.Time
	selectedIdx int
	width       int
	height      int
}

// New creates a new notification panel.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

// SetFeed replaces the shown notifications (newest first).
func (m *Model) SetFeed(feed []model.Notification, now time.Time) {
	m.feed = feed
	m.now = now
	if m.selectedIdx >= len(m.feed) {
		m.selectedIdx = max(len(m.feed)-1, 0)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Back), key.Matches(keyMsg, m.keys.Notifications):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		if len(m.feed) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.feed)
		}

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.feed) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.feed) - 1
			}
		}

	case key.Matches(keyMsg, m.keys.Dismiss):
		if len(m.feed) == 0 {
			return m, nil
		}
		id := m.feed[m.selectedIdx].ID
		return m, func() tea.Msg { return DismissMsg{ID: id} }

	case key.Matches(keyMsg, m.keys.DismissAll):
		if len(m.feed) == 0 {
			return m, nil
		}
		return m, func() tea.Msg { return DismissAllMsg{} }
	}

	return m, nil
}

// View renders the feed.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render(fmt.Sprintf("Notifications (%d)", len(m.feed))))
	b.WriteString("\n\n")

	if len(m.feed) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Nothing new."))
	}

	for i, n := range m.feed {
		title := theme.NotificationStyle(n.Type).Render(n.Title)
		when := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(relativeTime(n.Timestamp, m.now))
		label := fmt.Sprintf("%s  %s  %s", title, n.Message, when)

		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("d dismiss | D dismiss all | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
