package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktrack/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// historySize bounds the recalled commands.
const historySize = 20

// Model is the command palette view.
type Model struct {
	input   textinput.Model
	reply   string
	history []string
	cursor  int
	width   int
	height  int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "add task buy milk with high priority due tomorrow"
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			cmd := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if cmd == "" {
				return m, nil
			}
			m.remember(cmd)
			return m, func() tea.Msg {
				return CommandMsg(cmd)
			}
		case "up":
			if m.cursor > 0 {
				m.cursor--
				m.input.SetValue(m.history[m.cursor])
				m.input.CursorEnd()
			}
			return m, nil
		case "down":
			if m.cursor < len(m.history)-1 {
				m.cursor++
				m.input.SetValue(m.history[m.cursor])
				m.input.CursorEnd()
			} else {
				m.cursor = len(m.history)
				m.input.Reset()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) remember(cmd string) {
	if n := len(m.history); n == 0 || m.history[n-1] != cmd {
		m.history = append(m.history, cmd)
	}
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
	m.cursor = len(m.history)
}

// SetReply shows the dispatcher's answer under the input.
func (m *Model) SetReply(reply string) {
	m.reply = reply
}

// Reply returns the last shown answer.
func (m Model) Reply() string {
	return m.reply
}

// View renders the command palette.
func (m Model) View() string {
	parts := []string{
		theme.TitleStyle.Render("Command Palette"),
		m.input.View(),
	}
	if m.reply != "" {
		parts = append(parts, "", lipgloss.NewStyle().
			Foreground(theme.ColorGreen).
			Width(m.width-8).
			Render(m.reply))
	}
	parts = append(parts, "", theme.HelpStyle.Render("say 'help' for the command list"))

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
