package app

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tasktrack/internal/command"
	"github.com/nhle/tasktrack/internal/engine"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/ui/taskform"
)

// actionResultMsg is sent after an engine mutation finished.
type actionResultMsg struct {
	status string
	err    error
}

// commandResultMsg carries the dispatcher's reply to a palette command.
type commandResultMsg struct {
	resp command.Response
}

// notificationMsg carries a notification published by the engine.
type notificationMsg struct {
	n model.Notification
}

// refreshMsg asks the root model to redraw every view from the engine.
type refreshMsg struct{}

// act runs fn against the engine and reports status or the error.
func (m *Model) act(status string, fn func(ctx context.Context, eng *engine.Engine) error) tea.Cmd {
	ctx, eng := m.ctx, m.eng
	return func() tea.Msg {
		if err := fn(ctx, eng); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{status: status}
	}
}

// submitTask creates or edits a task from the form.
func (m *Model) submitTask(msg taskform.TaskSubmittedMsg) tea.Cmd {
	if msg.ID == "" {
		return m.act(fmt.Sprintf("Added %q", msg.Text), func(ctx context.Context, eng *engine.Engine) error {
			_, err := eng.AddTask(ctx, engine.NewTask{
				Text:     msg.Text,
				Priority: msg.Priority,
				Deadline: msg.Deadline,
			})
			return err
		})
	}

	edit := engine.TaskEdit{
		Text:          &msg.Text,
		Priority:      &msg.Priority,
		Deadline:      msg.Deadline,
		ClearDeadline: msg.Deadline == nil,
	}
	return m.act(fmt.Sprintf("Updated %q", msg.Text), func(ctx context.Context, eng *engine.Engine) error {
		_, err := eng.EditTask(ctx, msg.ID, edit)
		return err
	})
}

// toggleTask flips completion of the task with id.
func (m *Model) toggleTask(id string) tea.Cmd {
	ctx, eng := m.ctx, m.eng
	return func() tea.Msg {
		t, err := eng.ToggleComplete(ctx, id)
		if err != nil {
			return actionResultMsg{err: err}
		}
		if t.Completed {
			return actionResultMsg{status: fmt.Sprintf("Completed %q", t.Text)}
		}
		return actionResultMsg{status: fmt.Sprintf("Reopened %q", t.Text)}
	}
}

// deleteTask removes the task with id.
func (m *Model) deleteTask(t model.Task) tea.Cmd {
	return m.act(fmt.Sprintf("Deleted %q", t.Text), func(ctx context.Context, eng *engine.Engine) error {
		return eng.DeleteTask(ctx, t.ID)
	})
}

// startOrResume starts tracking a fresh task and resumes a paused one.
func (m *Model) startOrResume(t model.Task) tea.Cmd {
	if t.Tracking != nil && t.Tracking.Status() == model.TrackingPaused {
		return m.act(fmt.Sprintf("Resumed %q", t.Text), func(ctx context.Context, eng *engine.Engine) error {
			_, err := eng.ResumeTracking(ctx, t.ID)
			return err
		})
	}
	return m.act(fmt.Sprintf("Started %q", t.Text), func(ctx context.Context, eng *engine.Engine) error {
		_, err := eng.StartTracking(ctx, t.ID)
		return err
	})
}

// pauseTask pauses tracking of t.
func (m *Model) pauseTask(t model.Task) tea.Cmd {
	return m.act(fmt.Sprintf("Paused %q", t.Text), func(ctx context.Context, eng *engine.Engine) error {
		_, err := eng.PauseTracking(ctx, t.ID)
		return err
	})
}

// clearCompleted drops every completed task.
func (m *Model) clearCompleted() tea.Cmd {
	ctx, eng := m.ctx, m.eng
	return func() tea.Msg {
		n, err := eng.ClearCompleted(ctx)
		if err != nil {
			return actionResultMsg{err: err}
		}
		if n == 1 {
			return actionResultMsg{status: "Cleared 1 completed task"}
		}
		return actionResultMsg{status: fmt.Sprintf("Cleared %d completed tasks", n)}
	}
}

// toggleTheme switches between light and dark.
func (m *Model) toggleTheme() tea.Cmd {
	ctx, eng := m.ctx, m.eng
	return func() tea.Msg {
		th, err := eng.ToggleTheme(ctx)
		if err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{status: fmt.Sprintf("Switched to %s mode", th)}
	}
}

// executeCommand hands a palette command to the dispatcher.
func (m *Model) executeCommand(input string) tea.Cmd {
	ctx, d := m.ctx, m.dispatcher
	return func() tea.Msg {
		return commandResultMsg{resp: d.Dispatch(ctx, input)}
	}
}

// addRule stores a rule from the rule form.
func (m *Model) addRule(r model.AutomationRule) tea.Cmd {
	return m.act(fmt.Sprintf("Saved rule %q", r.Name), func(ctx context.Context, eng *engine.Engine) error {
		_, err := eng.AddRule(ctx, r)
		return err
	})
}

// toggleRule flips a rule on or off.
func (m *Model) toggleRule(id string) tea.Cmd {
	ctx, eng := m.ctx, m.eng
	return func() tea.Msg {
		r, err := eng.ToggleRule(ctx, id)
		if err != nil {
			return actionResultMsg{err: err}
		}
		state := "off"
		if r.IsActive {
			state = "on"
		}
		return actionResultMsg{status: fmt.Sprintf("Rule %q is %s", r.Name, state)}
	}
}

// deleteRule removes a rule.
func (m *Model) deleteRule(id string) tea.Cmd {
	return m.act("Rule deleted", func(ctx context.Context, eng *engine.Engine) error {
		return eng.DeleteRule(ctx, id)
	})
}

// dismiss removes one notification from the feed.
func (m *Model) dismiss(id string) tea.Cmd {
	return m.act("", func(ctx context.Context, eng *engine.Engine) error {
		return eng.Dismiss(ctx, id)
	})
}

// dismissAll empties the feed.
func (m *Model) dismissAll() tea.Cmd {
	return m.act("Notifications cleared", func(ctx context.Context, eng *engine.Engine) error {
		return eng.DismissAll(ctx)
	})
}

// waitForNotification blocks on the sink channel for the next notification.
func waitForNotification(ch <-chan model.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg{n: n}
	}
}

// ringBell writes the terminal bell to w.
func ringBell(w io.Writer) tea.Cmd {
	return func() tea.Msg {
		_, _ = io.WriteString(w, "\a")
		return nil
	}
}
