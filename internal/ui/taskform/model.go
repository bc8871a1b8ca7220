package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktrack/internal/command"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/theme"
)

// Deadline input layouts, most specific first.
const (
	layoutDateTime = "2006-01-02 15:04"
	layoutDate     = "2006-01-02"
)

// TaskSubmittedMsg is dispatched when the form is submitted. ID is empty for
// a new task.
type TaskSubmittedMsg struct {
	ID       string
	Text     string
	Priority model.Priority

	// Deadline is nil when the field was left blank.
	Deadline *time.Time
}

// TaskFormCancelMsg is dispatched when the user cancels the form.
type TaskFormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text     string
	priority model.Priority
	deadline string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	now      func() time.Time
	editMode bool
	editID   string
	width    int
	height   int
}

// New creates a new task form model. now resolves relative deadlines.
func New(now func() time.Time, width, height int) Model {
	if now == nil {
		now = time.Now
	}
	return Model{
		fb:     &formBindings{priority: model.PriorityMedium},
		now:    now,
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for creating a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editID = ""
	m.fb.text = ""
	m.fb.priority = model.PriorityMedium
	m.fb.deadline = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing task.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editMode = true
	m.editID = task.ID
	m.fb.text = task.Text
	m.fb.priority = model.ParsePriority(string(task.Priority))
	m.fb.deadline = ""
	if task.Deadline != nil {
		m.fb.deadline = task.Deadline.Local().Format(layoutDateTime)
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return TaskFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	content := theme.TitleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				Placeholder("What needs to be done?").
				Value(&m.fb.text).
				Validate(validateRequired("Task")),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(
					huh.NewOption("High", model.PriorityHigh),
					huh.NewOption("Medium", model.PriorityMedium),
					huh.NewOption("Low", model.PriorityLow),
				).
				Value(&m.fb.priority),
			huh.NewInput().
				Title("Deadline").
				Placeholder("YYYY-MM-DD [HH:MM], today, tomorrow, in 3 days (optional)").
				Value(&m.fb.deadline).
				Validate(m.validateDeadline),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	msg := TaskSubmittedMsg{
		ID:       m.editID,
		Text:     strings.TrimSpace(m.fb.text),
		Priority: m.fb.priority,
	}
	if d, err := ParseDeadline(m.fb.deadline, m.now()); err == nil {
		msg.Deadline = d
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func (m *Model) validateDeadline(s string) error {
	_, err := ParseDeadline(s, m.now())
	return err
}

// ParseDeadline reads a deadline field. A bare date means 23:59 that day.
// Blank input yields nil.
func ParseDeadline(s string, now time.Time) (*time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, nil
	}

	if t, err := time.ParseInLocation(layoutDateTime, s, time.Local); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation(layoutDate, s, time.Local); err == nil {
		t = t.Add(23*time.Hour + 59*time.Minute)
		return &t, nil
	}
	if t, ok := command.ResolveRelativeDate(s, now); ok {
		return &t, nil
	}
	return nil, fmt.Errorf("use YYYY-MM-DD, YYYY-MM-DD HH:MM or a phrase like 'tomorrow'")
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
