package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tasktrack/internal/command"
	"github.com/nhle/tasktrack/internal/engine"
	"github.com/nhle/tasktrack/internal/filter"
	"github.com/nhle/tasktrack/internal/keys"
	"github.com/nhle/tasktrack/internal/notify"
	"github.com/nhle/tasktrack/internal/scheduler"
	"github.com/nhle/tasktrack/internal/theme"
	"github.com/nhle/tasktrack/internal/ui"
	palette "github.com/nhle/tasktrack/internal/ui/command"
	"github.com/nhle/tasktrack/internal/ui/detail"
	helpview "github.com/nhle/tasktrack/internal/ui/help"
	"github.com/nhle/tasktrack/internal/ui/notifications"
	"github.com/nhle/tasktrack/internal/ui/rules"
	"github.com/nhle/tasktrack/internal/ui/score"
	"github.com/nhle/tasktrack/internal/ui/taskform"
	"github.com/nhle/tasktrack/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewTaskForm
	ViewNotifications
	ViewRules
)

// Model is the root Bubble Tea model. It routes keys to the active view and
// turns user actions into engine calls.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	ctx          context.Context
	eng          *engine.Engine
	sched        *scheduler.Scheduler
	sink         *notify.ChanSink
	dispatcher   command.Dispatcher
	keys         *keys.KeyMap
	bell         io.Writer

	taskList     tasklist.Model
	detailView   detail.Model
	taskForm     taskform.Model
	commandView  palette.Model
	helpView     helpview.Model
	notifyView   notifications.Model
	ruleView     rules.Model
	scoreLine    score.Model
	headerStatus string
	unreadCount  int
	status       string
	ready        bool
}

// New creates the root model. sink may be nil when nothing should be
// surfaced as a toast.
func New(ctx context.Context, eng *engine.Engine, sched *scheduler.Scheduler, sink *notify.ChanSink, scoreFlash time.Duration) Model {
	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewList,
		ctx:         ctx,
		eng:         eng,
		sched:       sched,
		sink:        sink,
		dispatcher:  command.NewRegexDispatcher(eng, log.Default()),
		keys:        k,
		bell:        os.Stderr,
		taskList:    tasklist.New(80, 24),
		detailView:  detail.New(k, 80, 24),
		taskForm:    taskform.New(eng.Now, 80, 24),
		commandView: palette.New(80, 24),
		helpView:    helpview.New(k, command.HelpText, 80, 24),
		notifyView:  notifications.New(k, 80, 24),
		ruleView:    rules.New(k, 80, 24),
		scoreLine:   score.New(scoreFlash, 80),
	}
}

// Init starts the timers and the notification listener and draws the
// initial state.
func (m Model) Init() tea.Cmd {
	var listen tea.Cmd
	if m.sink != nil {
		listen = waitForNotification(m.sink.C())
	}
	return tea.Batch(
		m.sched.Start(m.ctx),
		listen,
		func() tea.Msg { return refreshMsg{} },
	)
}

// reload redraws every view from the engine.
func (m *Model) reload() tea.Cmd {
	now := m.eng.Now()
	elapsed, _ := m.eng.ElapsedTimes()
	theme.Apply(m.eng.Theme())

	listCmd := m.taskList.SetTasks(m.eng.View(), elapsed, now, m.eng.Criteria())
	feed := m.eng.Notifications()
	m.unreadCount = len(feed)
	m.notifyView.SetFeed(feed, now)
	m.ruleView.SetRules(m.eng.Rules())
	m.headerStatus = collectionStatus(m.eng.Collections())
	m.refreshDetail(elapsed, now)

	return tea.Batch(listCmd, m.scoreLine.Set(m.eng.Score()))
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.taskList.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.taskForm.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.notifyView.SetSize(contentWidth, contentHeight)
		m.ruleView.SetSize(contentWidth, contentHeight)
		m.scoreLine.SetWidth(contentWidth)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case refreshMsg:
		return m, m.reload()

	case scheduler.ElapsedMsg:
		now := m.eng.Now()
		m.taskList.SetElapsed(msg.Elapsed, now)
		m.refreshDetail(msg.Elapsed, now)
		return m, m.sched.WaitForNext()

	case scheduler.DeadlineReachedMsg:
		if len(msg.Tasks) == 0 {
			return m, m.sched.WaitForNext()
		}
		m.status = fmt.Sprintf("Deadline reached: %q", msg.Tasks[0].Text)
		if more := len(msg.Tasks) - 1; more > 0 {
			m.status += fmt.Sprintf(" (+%d more)", more)
		}
		return m, tea.Batch(ringBell(m.bell), m.sched.WaitForNext())

	case scheduler.ScanMsg:
		if msg.Err != nil {
			m.status = fmt.Sprintf("Background scan failed: %v", msg.Err)
		} else if n := len(msg.Created); n > 0 {
			m.status = fmt.Sprintf("Automation created %d task(s)", n)
		}
		return m, tea.Batch(m.reload(), m.sched.WaitForNext())

	case notificationMsg:
		m.status = msg.n.Title + ": " + msg.n.Message
		return m, waitForNotification(m.sink.C())

	case actionResultMsg:
		if msg.err != nil {
			m.status = errorStatus(msg.err)
		} else if msg.status != "" {
			m.status = msg.status
		}
		m.ruleView.SetStatus(m.status)
		return m, m.reload()

	case commandResultMsg:
		m.commandView.SetReply(msg.resp.Text)
		m.status = msg.resp.Text
		return m, m.reload()

	case score.FlashExpiredMsg:
		if m.scoreLine.Expired(msg) {
			m.eng.AcknowledgeScoreChange()
		}
		return m, nil

	case palette.CommandMsg:
		return m, m.executeCommand(string(msg))

	case taskform.TaskSubmittedMsg:
		m.currentView = m.previousView
		return m, m.submitTask(msg)

	case taskform.TaskFormCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		m.detailView.Clear()
		return m, nil

	case detail.ActionMsg:
		return m, m.detailAction(msg)

	case notifications.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case notifications.DismissMsg:
		return m, m.dismiss(msg.ID)

	case notifications.DismissAllMsg:
		return m, m.dismissAll()

	case rules.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case rules.RuleSubmittedMsg:
		return m, m.addRule(msg.Rule)

	case rules.RuleToggleMsg:
		return m, m.toggleRule(msg.ID)

	case rules.RuleDeleteMsg:
		return m, m.deleteRule(msg.ID)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if handled, cmd := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
		if m.currentView == ViewList {
			m.status = ""
			if handled, cmd := m.handleListKey(msg); handled {
				return m, cmd
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey handles the overlay toggles. Views with text input keep
// their keys.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch m.currentView {
	case ViewTaskForm, ViewRules:
		return false, nil

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return true, nil
		}
		return false, nil

	case ViewHelp:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Help) {
			m.currentView = m.previousView
			return true, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return true, m.commandView.Focus()
	}
	return false, nil
}

// handleListKey handles task actions on the list view.
func (m *Model) handleListKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	selected, hasSelection := m.taskList.SelectedTask()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return true, m.quit()

	case key.Matches(msg, m.keys.New):
		m.previousView = ViewList
		m.currentView = ViewTaskForm
		return true, m.taskForm.StartCreate()

	case key.Matches(msg, m.keys.Edit):
		if !hasSelection {
			return true, nil
		}
		m.previousView = ViewList
		m.currentView = ViewTaskForm
		return true, m.taskForm.StartEdit(selected)

	case key.Matches(msg, m.keys.Detail):
		if !hasSelection {
			return true, nil
		}
		elapsed, _ := m.eng.ElapsedTimes()
		m.detailView.SetTask(selected, elapsed[selected.ID], m.eng.Now())
		m.currentView = ViewDetail
		return true, nil

	case key.Matches(msg, m.keys.Toggle):
		if !hasSelection {
			return true, nil
		}
		return true, m.toggleTask(selected.ID)

	case key.Matches(msg, m.keys.Delete):
		if !hasSelection {
			return true, nil
		}
		return true, m.deleteTask(selected)

	case key.Matches(msg, m.keys.Start):
		if !hasSelection {
			return true, nil
		}
		return true, m.startOrResume(selected)

	case key.Matches(msg, m.keys.Pause):
		if !hasSelection {
			return true, nil
		}
		return true, m.pauseTask(selected)

	case key.Matches(msg, m.keys.ClearCompleted):
		return true, m.clearCompleted()

	case key.Matches(msg, m.keys.CycleStatus):
		return true, m.updateCriteria(func(c *filter.Criteria) { c.Status = filter.Next(filter.Statuses, c.Status) })

	case key.Matches(msg, m.keys.CyclePriority):
		return true, m.updateCriteria(func(c *filter.Criteria) { c.Priority = filter.Next(filter.Priorities, c.Priority) })

	case key.Matches(msg, m.keys.CycleDate):
		return true, m.updateCriteria(func(c *filter.Criteria) { c.Date = filter.Next(filter.DateRanges, c.Date) })

	case key.Matches(msg, m.keys.CycleTracking):
		return true, m.updateCriteria(func(c *filter.Criteria) { c.Tracking = filter.Next(filter.TrackingStatuses, c.Tracking) })

	case key.Matches(msg, m.keys.CycleSort):
		return true, m.updateCriteria(func(c *filter.Criteria) { c.Sort = filter.Next(filter.SortOptions, c.Sort) })

	case key.Matches(msg, m.keys.ClearFilters):
		m.eng.ClearFilters()
		return true, m.reload()

	case key.Matches(msg, m.keys.Theme):
		return true, m.toggleTheme()

	case key.Matches(msg, m.keys.Notifications):
		m.currentView = ViewNotifications
		return true, nil

	case key.Matches(msg, m.keys.Rules):
		m.currentView = ViewRules
		return true, nil
	}
	return false, nil
}

// refreshDetail redraws the detail view from the engine. A task deleted
// meanwhile closes the view.
func (m *Model) refreshDetail(elapsed map[string]time.Duration, now time.Time) {
	id := m.detailView.TaskID()
	if id == "" {
		return
	}
	task, ok := m.eng.Task(id)
	if !ok {
		m.detailView.Clear()
		if m.currentView == ViewDetail {
			m.currentView = ViewList
		}
		return
	}
	m.detailView.SetTask(task, elapsed[id], now)
}

// detailAction runs an action requested from the detail view.
func (m *Model) detailAction(msg detail.ActionMsg) tea.Cmd {
	task, ok := m.eng.Task(msg.TaskID)
	if !ok {
		return nil
	}
	switch msg.Action {
	case detail.ActionToggle:
		return m.toggleTask(task.ID)
	case detail.ActionStart:
		return m.startOrResume(task)
	case detail.ActionPause:
		return m.pauseTask(task)
	case detail.ActionEdit:
		m.previousView = ViewDetail
		m.currentView = ViewTaskForm
		return m.taskForm.StartEdit(task)
	}
	return nil
}

// updateCriteria changes the view criteria and redraws the list. Criteria
// are view state, so this never touches the store.
func (m *Model) updateCriteria(fn func(c *filter.Criteria)) tea.Cmd {
	m.eng.UpdateCriteria(fn)
	return m.reload()
}

// quit stops the timers before exiting.
func (m *Model) quit() tea.Cmd {
	if err := m.sched.Stop(); err != nil {
		log.Printf("stopping scheduler: %v", err)
	}
	return tea.Quit
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTaskForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewNotifications:
		m.notifyView, cmd = m.notifyView.Update(msg)
	case ViewRules:
		m.ruleView, cmd = m.ruleView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Task Tracker"
	if m.unreadCount > 0 {
		headerTitle = fmt.Sprintf("Task Tracker [%d new]", m.unreadCount)
	}
	header := m.layout.RenderHeader(headerTitle, m.headerStatus, m.scoreLine.View())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTaskForm:
		return m.taskForm.View()
	case ViewNotifications:
		return m.notifyView.View()
	case ViewRules:
		return m.ruleView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewDetail:
		return "x done | s start | p pause | e edit | j/k scroll | esc back"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | ↑/↓ history | esc back"
	case ViewTaskForm:
		return "enter submit | esc cancel"
	case ViewNotifications:
		return "d dismiss | D dismiss all | esc back"
	case ViewRules:
		return "n new | x on/off | d delete | esc back"
	}

	if m.status != "" {
		return m.status
	}
	if summary := tasklist.FilterSummary(m.eng.Criteria()); summary != "" {
		return summary + " | 0 clear"
	}
	return "q quit | ? help | : command | n new | x done | s start | p pause | 1-4 filter | tab sort"
}

// collectionStatus summarizes the overview collections for the header.
func collectionStatus(c filter.Collections) string {
	var parts []string
	if n := len(c.Urgent); n > 0 {
		parts = append(parts, fmt.Sprintf("%d urgent", n))
	}
	if n := len(c.DueToday); n > 0 {
		parts = append(parts, fmt.Sprintf("%d today", n))
	}
	if n := len(c.DueTomorrow); n > 0 {
		parts = append(parts, fmt.Sprintf("%d tomorrow", n))
	}
	if n := len(c.Upcoming); n > 0 {
		parts = append(parts, fmt.Sprintf("%d upcoming", n))
	}
	if n := len(c.HighPriority); n > 0 {
		parts = append(parts, fmt.Sprintf("%d high", n))
	}
	if len(parts) == 0 {
		return "all clear"
	}
	return strings.Join(parts, " · ")
}

// errorStatus turns an engine error into a status bar message.
func errorStatus(err error) string {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return "That task no longer exists"
	case errors.Is(err, engine.ErrIllegalState), errors.Is(err, engine.ErrValidation):
		return err.Error()
	default:
		log.Printf("action failed: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}
}
