package app

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktrack/internal/engine"
	"github.com/nhle/tasktrack/internal/filter"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/notify"
	"github.com/nhle/tasktrack/internal/scheduler"
	"github.com/nhle/tasktrack/internal/store"
	"github.com/nhle/tasktrack/internal/testutil"
	palette "github.com/nhle/tasktrack/internal/ui/command"
	"github.com/nhle/tasktrack/internal/ui/taskform"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local)

func setup(t *testing.T) (Model, *engine.Engine) {
	t.Helper()
	clock := testutil.NewClock(now)
	sink := notify.NewChanSink(16)
	eng, err := engine.New(context.Background(), store.NewMemoryStore(),
		engine.WithClock(clock.Now),
		engine.WithSink(sink),
	)
	require.NoError(t, err)

	sched := scheduler.New(eng, time.Hour, time.Hour)
	m := New(context.Background(), eng, sched, sink, time.Millisecond)
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return step(t, m, refreshMsg{}), eng
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to m and returns the updated root model.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// run feeds msg to m, executes the returned command once and feeds its
// result back.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	out := next.(Model)
	require.NotNil(t, cmd)
	return step(t, out, cmd())
}

// chain feeds msg to m and then feeds back the result of each returned
// command, hops times.
func chain(t *testing.T, m Model, msg tea.Msg, hops int) Model {
	t.Helper()
	for i := 0; i <= hops; i++ {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if i == hops {
			break
		}
		require.NotNil(t, cmd)
		msg = cmd()
	}
	return m
}

func addTask(t *testing.T, eng *engine.Engine, text string) model.Task {
	t.Helper()
	task, err := eng.AddTask(context.Background(), engine.NewTask{Text: text, Priority: model.PriorityHigh})
	require.NoError(t, err)
	return task
}

func TestReloadShowsTasks(t *testing.T) {
	m, eng := setup(t)
	addTask(t, eng, "Pay rent")

	m = step(t, m, refreshMsg{})

	assert.Equal(t, 1, m.taskList.Len())
	assert.Equal(t, "1 high", m.headerStatus)
	assert.Contains(t, m.View(), "Task Tracker")
}

func TestSubmitNewTask(t *testing.T) {
	m, eng := setup(t)

	m = step(t, m, runes("n"))
	assert.Equal(t, ViewTaskForm, m.currentView)

	m = run(t, m, taskform.TaskSubmittedMsg{Text: "Buy milk", Priority: model.PriorityLow})

	assert.Equal(t, ViewList, m.currentView)
	require.Len(t, eng.Tasks(), 1)
	assert.Equal(t, "Buy milk", eng.Tasks()[0].Text)
	assert.Equal(t, `Added "Buy milk"`, m.status)
	assert.Equal(t, 1, m.taskList.Len())
}

func TestEditWithBlankDeadlineClearsIt(t *testing.T) {
	m, eng := setup(t)
	due := now.Add(48 * time.Hour)
	task, err := eng.AddTask(context.Background(), engine.NewTask{Text: "Report", Deadline: &due})
	require.NoError(t, err)

	run(t, m, taskform.TaskSubmittedMsg{ID: task.ID, Text: "Final report", Priority: model.PriorityHigh})

	got, ok := eng.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, "Final report", got.Text)
	assert.Nil(t, got.Deadline)
}

func TestToggleSelectedTask(t *testing.T) {
	m, eng := setup(t)
	task := addTask(t, eng, "Write tests")
	m = step(t, m, refreshMsg{})

	m = run(t, m, runes("x"))

	got, _ := eng.Task(task.ID)
	assert.True(t, got.Completed)
	assert.Equal(t, `Completed "Write tests"`, m.status)
	assert.Positive(t, eng.Score().Points)
}

func TestStartThenResume(t *testing.T) {
	m, eng := setup(t)
	task := addTask(t, eng, "Focus")
	m = step(t, m, refreshMsg{})

	m = run(t, m, runes("s"))
	m = run(t, m, runes("p"))
	got, _ := eng.Task(task.ID)
	assert.Equal(t, model.TrackingPaused, got.Tracking.Status())

	m = run(t, m, runes("s"))
	got, _ = eng.Task(task.ID)
	assert.Equal(t, model.TrackingInProgress, got.Tracking.Status())
	assert.Equal(t, `Resumed "Focus"`, m.status)
}

func TestFilterKeysCycleCriteria(t *testing.T) {
	m, eng := setup(t)

	m = step(t, m, runes("1"))
	m = step(t, m, runes("2"))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	c := eng.Criteria()
	assert.Equal(t, filter.StatusActive, c.Status)
	assert.Equal(t, model.PriorityHigh, c.Priority)
	assert.Equal(t, filter.SortPriority, c.Sort)
	assert.Contains(t, m.keyHints(), "0 clear")

	step(t, m, runes("0"))
	assert.Equal(t, filter.DefaultCriteria(), eng.Criteria())
}

func TestCommandPalette(t *testing.T) {
	m, eng := setup(t)

	m = step(t, m, runes(":"))
	require.Equal(t, ViewCommand, m.currentView)

	m = run(t, m, palette.CommandMsg("add task buy milk with high priority"))

	require.Len(t, eng.Tasks(), 1)
	assert.Equal(t, model.PriorityHigh, eng.Tasks()[0].Priority)
	assert.NotEmpty(t, m.commandView.Reply())
	assert.Equal(t, ViewCommand, m.currentView)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, m.currentView)
}

func TestHelpToggle(t *testing.T) {
	m, _ := setup(t)

	m = step(t, m, runes("?"))
	assert.Equal(t, ViewHelp, m.currentView)

	m = step(t, m, runes("?"))
	assert.Equal(t, ViewList, m.currentView)
}

func TestPanelsOpenAndClose(t *testing.T) {
	m, _ := setup(t)

	m = step(t, m, runes("N"))
	assert.Equal(t, ViewNotifications, m.currentView)
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, m.currentView)

	m = step(t, m, runes("A"))
	assert.Equal(t, ViewRules, m.currentView)
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, m.currentView)
}

func TestNotificationToast(t *testing.T) {
	m, eng := setup(t)
	task := addTask(t, eng, "Ship it")
	require.NoError(t, eng.DeleteTask(context.Background(), task.ID))

	n := <-m.sink.C()
	m = step(t, m, notificationMsg{n: n})
	assert.Equal(t, n.Title+": "+n.Message, m.status)
}

func TestDismissAllEmptiesFeed(t *testing.T) {
	m, eng := setup(t)
	task := addTask(t, eng, "Ship it")
	require.NoError(t, eng.DeleteTask(context.Background(), task.ID))
	m = step(t, m, refreshMsg{})
	require.Equal(t, 1, m.unreadCount)

	m = step(t, m, runes("N"))
	m = run(t, m, runes("D"))

	assert.Empty(t, eng.Notifications())
	assert.Zero(t, m.unreadCount)
	assert.Equal(t, "Notifications cleared", m.status)
}

func TestActionErrorStatus(t *testing.T) {
	m, _ := setup(t)

	m = step(t, m, actionResultMsg{err: fmt.Errorf("toggle: %w", engine.ErrNotFound)})
	assert.Equal(t, "That task no longer exists", m.status)
}

func TestCollectionStatus(t *testing.T) {
	assert.Equal(t, "all clear", collectionStatus(filter.Collections{}))
	assert.Equal(t, "1 urgent · 2 today", collectionStatus(filter.Collections{
		Urgent:   make([]model.Task, 1),
		DueToday: make([]model.Task, 2),
	}))
}

func TestDetailView(t *testing.T) {
	m, eng := setup(t)
	task := addTask(t, eng, "Deep work")
	m = step(t, m, refreshMsg{})

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewDetail, m.currentView)
	assert.Contains(t, m.View(), "Deep work")

	// s emits an ActionMsg, which in turn runs the engine call.
	m = chain(t, m, runes("s"), 2)
	got, _ := eng.Task(task.ID)
	assert.Equal(t, model.TrackingInProgress, got.Tracking.Status())
	assert.Equal(t, ViewDetail, m.currentView)
	assert.Contains(t, m.View(), "Elapsed")

	require.NoError(t, eng.DeleteTask(context.Background(), task.ID))
	m = step(t, m, refreshMsg{})
	assert.Equal(t, ViewList, m.currentView)
}

func TestDeadlineReachedRingsBell(t *testing.T) {
	m, _ := setup(t)
	var bell bytes.Buffer
	m.bell = &bell
	// A stopped scheduler makes the re-listen command return at once.
	m.sched.Start(m.ctx)
	require.NoError(t, m.sched.Stop())

	next, cmd := m.Update(scheduler.DeadlineReachedMsg{Tasks: []model.Task{
		{ID: "a", Text: "Submit form"},
		{ID: "b", Text: "Call bank"},
	}})
	m = next.(Model)
	assert.Equal(t, `Deadline reached: "Submit form" (+1 more)`, m.status)

	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c != nil {
			c()
		}
	}
	assert.Equal(t, "\a", bell.String())
}
