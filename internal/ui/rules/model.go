package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktrack/internal/automation"
	"github.com/nhle/tasktrack/internal/keys"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/theme"
)

// CloseMsg signals the parent to close the rule view.
type CloseMsg struct{}

// RuleSubmittedMsg carries a new rule from the form.
type RuleSubmittedMsg struct {
	Rule model.AutomationRule
}

// RuleToggleMsg asks the parent to flip a rule on or off.
type RuleToggleMsg struct {
	ID string
}

// RuleDeleteMsg asks the parent to delete a rule.
type RuleDeleteMsg struct {
	ID string
}

type ruleMode int

const (
	modeList ruleMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name      string
	taskText  string
	frequency string
	at        string
	deadline  string
	active    bool
	confirm   bool
}

// Model is the Bubble Tea model for automation rule management.
type Model struct {
	mode        ruleMode
	keys        *keys.KeyMap
	rules       []model.AutomationRule
	selectedIdx int
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new rule manager model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// SetRules replaces the listed rules.
func (m *Model) SetRules(rules []model.AutomationRule) {
	m.rules = rules
	if m.selectedIdx >= len(m.rules) {
		m.selectedIdx = max(len(m.rules)-1, 0)
	}
}

// SetStatus shows a one-line result under the list.
func (m *Model) SetStatus(s string) {
	m.statusMsg = s
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.rules) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.rules)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.rules) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.rules) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.fb.name = ""
		m.fb.taskText = ""
		m.fb.frequency = model.FrequencyDaily
		m.fb.at = "09:00"
		m.fb.deadline = "1"
		m.fb.active = true
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Toggle):
		if len(m.rules) == 0 {
			return m, nil
		}
		id := m.rules[m.selectedIdx].ID
		return m, func() tea.Msg { return RuleToggleMsg{ID: id} }

	case key.Matches(msg, m.keys.Delete):
		if len(m.rules) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Morning review").
				Value(&m.fb.name).
				Validate(required("name")),
			huh.NewInput().
				Title("Task").
				Placeholder("Text of the task to create").
				Value(&m.fb.taskText).
				Validate(required("task")),
			huh.NewSelect[string]().
				Title("Frequency").
				Options(
					huh.NewOption("Daily", model.FrequencyDaily),
					huh.NewOption("Weekly", model.FrequencyWeekly),
					huh.NewOption("Monthly", model.FrequencyMonthly),
				).
				Value(&m.fb.frequency),
			huh.NewInput().
				Title("Time").
				Placeholder("HH:MM").
				Value(&m.fb.at).
				Validate(validateTime),
			huh.NewInput().
				Title("Due after (days)").
				Value(&m.fb.deadline).
				Validate(validateDays),
			huh.NewConfirm().
				Title("Active").
				Value(&m.fb.active),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.rules) {
		name = m.rules[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete rule %q?", name)).
				Description("Tasks it already created are kept.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.mode = modeList
		rule := m.fb.rule()
		return m, func() tea.Msg { return RuleSubmittedMsg{Rule: rule} }
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		m.mode = modeList
		if m.fb.confirm && m.selectedIdx < len(m.rules) {
			id := m.rules[m.selectedIdx].ID
			return m, func() tea.Msg { return RuleDeleteMsg{ID: id} }
		}
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the rule manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("Automation Rules"))
	b.WriteString("\n\n")

	if len(m.rules) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No rules yet. Press 'n' to create one."))
	} else {
		for i, r := range m.rules {
			b.WriteString(m.renderRule(r, i == m.selectedIdx))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("n new | x on/off | d delete | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderRule(r model.AutomationRule, selected bool) string {
	state := lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("on ")
	if !r.IsActive {
		state = lipgloss.NewStyle().Foreground(theme.ColorGray).Render("off")
	}

	label := fmt.Sprintf("%s  %s  %s at %s → %q, due in %dd", state, r.Name, r.Frequency, r.Time, r.TaskText, r.DeadlineDays)
	if r.LastRun != "" {
		label += lipgloss.NewStyle().Foreground(theme.ColorGray).Render("  last run " + r.LastRun)
	}

	if selected {
		return theme.SelectedItemStyle.Render(label)
	}
	return theme.ListItemStyle.Render(label)
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

// rule builds the rule the form describes. Validation already ran.
func (fb *formBindings) rule() model.AutomationRule {
	days, _ := strconv.Atoi(strings.TrimSpace(fb.deadline))
	return model.AutomationRule{
		Name:         fb.name,
		TaskText:     fb.taskText,
		Frequency:    fb.frequency,
		Time:         fb.at,
		DeadlineDays: days,
		IsActive:     fb.active,
	}
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateTime(s string) error {
	if _, err := time.Parse(automation.TimeLayout, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("use HH:MM")
	}
	return nil
}

func validateDays(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("enter a whole number of days, at least 1")
	}
	return nil
}
