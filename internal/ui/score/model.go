// Package score renders the points, level progress and streak line.
package score

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktrack/internal/engine"
	"github.com/nhle/tasktrack/internal/theme"
)

// FlashExpiredMsg ends the score-change highlight.
type FlashExpiredMsg struct {
	seq int
}

// barWidth is the width of the level progress bar.
const barWidth = 20

// Model is the score line.
type Model struct {
	view  engine.ScoreView
	bar   progress.Model
	flash time.Duration
	seq   int
	width int
}

// New returns a score line that highlights changes for flash.
func New(flash time.Duration, width int) Model {
	return Model{
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		),
		flash: flash,
		width: width,
	}
}

// Set shows v. When v carries a fresh change, the returned command clears
// the highlight after the flash duration.
func (m *Model) Set(v engine.ScoreView) tea.Cmd {
	m.view = v
	if !v.Flash {
		return nil
	}
	m.seq++
	seq := m.seq
	return tea.Tick(m.flash, func(time.Time) tea.Msg {
		return FlashExpiredMsg{seq: seq}
	})
}

// Expired reports whether msg ends the latest highlight. Older timers are
// ignored so back-to-back changes each get the full duration.
func (m *Model) Expired(msg FlashExpiredMsg) bool {
	if msg.seq != m.seq {
		return false
	}
	m.view.Flash = false
	return true
}

// SetWidth updates the line width.
func (m *Model) SetWidth(width int) {
	m.width = width
}

// View renders the score line.
func (m Model) View() string {
	v := m.view
	lvl := v.Level

	parts := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorYellow).
			Render(fmt.Sprintf("★ %d pts", v.Points)),
		fmt.Sprintf("Lv %d", max(lvl.Level, 1)),
		m.bar.ViewAs(lvl.Progress / 100),
		lipgloss.NewStyle().Foreground(theme.ColorGray).
			Render(fmt.Sprintf("%d/%d", lvl.Into, lvl.Needed)),
	}

	if v.Streak > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorOrange).
			Render(fmt.Sprintf("🔥 %d day streak", v.Streak)))
	}

	if v.Flash && v.LastChange != 0 {
		parts = append(parts, Delta(v.LastChange))
	}

	return lipgloss.NewStyle().
		Width(m.width).
		PaddingLeft(1).
		Render(strings.Join(parts, "  "))
}

// Delta renders a signed points change.
func Delta(n int) string {
	if n > 0 {
		return theme.GainStyle.Render(fmt.Sprintf("+%d", n))
	}
	return theme.LossStyle.Render(fmt.Sprintf("%d", n))
}
