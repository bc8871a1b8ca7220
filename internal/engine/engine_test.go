package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktrack/internal/filter"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/notify"
	"github.com/nhle/tasktrack/internal/store"
	"github.com/nhle/tasktrack/internal/testutil"
)

var t0 = time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local)

// flakyStore fails every batch write while fail is set.
type flakyStore struct {
	store.Store
	fail bool
}

func (s *flakyStore) SetMany(ctx context.Context, entries map[string]string) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Store.SetMany(ctx, entries)
}

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

type harness struct {
	eng   *Engine
	store store.Store
	clock *testutil.Clock
}

func newHarness(t *testing.T, s store.Store, opts ...Option) *harness {
	t.Helper()
	if s == nil {
		s = testutil.NewTestStore(t)
	}
	clock := testutil.NewClock(t0)
	opts = append([]Option{WithClock(clock.Now), WithIDs(seqIDs("id"))}, opts...)

	eng, err := New(context.Background(), s, opts...)
	require.NoError(t, err)
	return &harness{eng: eng, store: s, clock: clock}
}

func (h *harness) add(t *testing.T, text string, p model.Priority, deadline *time.Time) model.Task {
	t.Helper()
	task, err := h.eng.AddTask(context.Background(), NewTask{Text: text, Priority: p, Deadline: deadline})
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T { return &v }

func TestAddTask(t *testing.T) {
	h := newHarness(t, nil)

	task := h.add(t, "  Write report  ", "", nil)

	assert.Equal(t, "id1", task.ID)
	assert.Equal(t, "Write report", task.Text)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
	assert.Equal(t, model.TrackingNotStarted, task.TrackingState().Status())
	assert.Equal(t, t0, task.CreatedAt)
	assert.Equal(t, t0, task.LastModified)

	reloaded := newHarness(t, h.store)
	require.Len(t, reloaded.eng.Tasks(), 1)
	assert.Equal(t, "Write report", reloaded.eng.Tasks()[0].Text)
}

func TestAddTask_EmptyText(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.eng.AddTask(context.Background(), NewTask{Text: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, h.eng.Tasks())
}

func TestEditTask(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	task := h.add(t, "Draft", model.PriorityLow, ptr(t0.Add(time.Hour)))
	_, err := h.eng.StartTracking(ctx, task.ID)
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	edited, err := h.eng.EditTask(ctx, task.ID, TaskEdit{Text: ptr("Final"), Priority: ptr(model.PriorityHigh), ClearDeadline: true})
	require.NoError(t, err)

	assert.Equal(t, "Final", edited.Text)
	assert.Equal(t, model.PriorityHigh, edited.Priority)
	assert.Nil(t, edited.Deadline)
	assert.Equal(t, t0.Add(time.Minute), edited.LastModified)
	assert.Equal(t, model.TrackingInProgress, edited.TrackingState().Status())
	assert.Equal(t, 0, h.eng.Score().Points)

	feed := h.eng.Notifications()
	require.Len(t, feed, 1)
	assert.Equal(t, model.KindUpdated, feed[0].Kind)

	_, err = h.eng.EditTask(ctx, task.ID, TaskEdit{Text: ptr("")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.eng.EditTask(ctx, "missing", TaskEdit{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditTask_NoChangeIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	due := t0.Add(time.Hour)
	task := h.add(t, "Draft", model.PriorityLow, ptr(due))

	var changes []Change
	h.eng.onChange = func(c Change) { changes = append(changes, c) }

	h.clock.Advance(time.Minute)
	edits := []TaskEdit{
		{},
		{Text: ptr(" Draft "), Priority: ptr(model.PriorityLow), Deadline: ptr(due.In(time.UTC))},
	}
	for _, edit := range edits {
		got, err := h.eng.EditTask(ctx, task.ID, edit)
		require.NoError(t, err)
		assert.Equal(t, t0, got.LastModified)
	}

	assert.Empty(t, h.eng.Notifications())
	assert.Empty(t, changes)
}

func TestComplete_HighPriorityScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	task := h.add(t, "Ship", model.PriorityHigh, ptr(t0.Add(48*time.Hour)))

	done, err := h.eng.SetCompleted(ctx, task.ID, true)
	require.NoError(t, err)

	assert.True(t, done.Completed)
	assert.Equal(t, model.TrackingCompleted, done.TrackingState().Status())

	score := h.eng.Score()
	assert.Equal(t, 29, score.Points)
	assert.Equal(t, 1, score.Streak)
	assert.Equal(t, model.DayString(t0), score.LastCompletionDate)
	assert.Equal(t, 29, score.LastChange)
	assert.True(t, score.Flash)

	h.eng.AcknowledgeScoreChange()
	assert.False(t, h.eng.Score().Flash)

	feed := h.eng.Notifications()
	require.Len(t, feed, 1)
	assert.Equal(t, model.KindCompleted, feed[0].Kind)

	reloaded := newHarness(t, h.store)
	assert.Equal(t, 29, reloaded.eng.Score().Points)
	assert.Equal(t, 1, reloaded.eng.Score().Streak)
}

func TestCompleteThenUncomplete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	task := h.add(t, "Ship", model.PriorityLow, nil)

	_, err := h.eng.StartTracking(ctx, task.ID)
	require.NoError(t, err)
	h.clock.Advance(30 * time.Minute)

	_, err = h.eng.SetCompleted(ctx, task.ID, true)
	require.NoError(t, err)
	after := h.eng.Score().Points
	assert.Equal(t, 15, after)

	_, err = h.eng.SetCompleted(ctx, task.ID, true)
	require.NoError(t, err)
	assert.Equal(t, after, h.eng.Score().Points)

	undone, err := h.eng.ToggleComplete(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Equal(t, model.NotStarted{Total: 30 * time.Minute}, undone.Tracking)

	score := h.eng.Score()
	assert.Equal(t, max(0, after-10), score.Points)
	assert.Equal(t, -10, score.LastChange)
	assert.Equal(t, 1, score.Streak)
}

func TestComplete_StreakMilestone(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.SetMany(ctx, map[string]string{
		store.KeyStreak:             "2",
		store.KeyLastCompletionDate: model.DayString(t0.AddDate(0, 0, -1)),
	}))
	h := newHarness(t, s)
	task := h.add(t, "Run", model.PriorityMedium, nil)

	_, err := h.eng.SetCompleted(ctx, task.ID, true)
	require.NoError(t, err)

	assert.Equal(t, 3, h.eng.Score().Streak)
	assert.Equal(t, 10+10+6, h.eng.Score().Points)

	var streaks []model.Notification
	for _, n := range h.eng.Notifications() {
		if n.Type == model.NotificationAchievement && n.Kind == model.KindStreak {
			streaks = append(streaks, n)
		}
	}
	require.Len(t, streaks, 1)
	assert.Equal(t, 3, streaks[0].Value)
	assert.Equal(t, model.KindStreak, h.eng.Notifications()[0].Kind)
}

func TestComplete_LevelUp(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, store.KeyScore, "210"))
	h := newHarness(t, s)
	require.Equal(t, 2, h.eng.Score().Level.Level)

	task := h.add(t, "Push", model.PriorityLow, nil)
	_, err := h.eng.SetCompleted(ctx, task.ID, true)
	require.NoError(t, err)

	assert.Equal(t, 3, h.eng.Score().Level.Level)
	feed := h.eng.Notifications()
	require.Len(t, feed, 2)
	assert.Equal(t, model.KindLevelUp, feed[0].Kind)
	assert.Equal(t, 3, feed[0].Value)
	assert.Equal(t, model.KindCompleted, feed[1].Kind)
}

func TestComplete_NoLevelUpFromLevelOne(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, store.KeyScore, "95"))
	h := newHarness(t, s)

	task := h.add(t, "Push", model.PriorityLow, nil)
	_, err := h.eng.SetCompleted(ctx, task.ID, true)
	require.NoError(t, err)

	assert.Equal(t, 2, h.eng.Score().Level.Level)
	for _, n := range h.eng.Notifications() {
		assert.NotEqual(t, model.KindLevelUp, n.Kind)
	}
}

func TestTracking(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	task := h.add(t, "Focus", "", nil)

	started, err := h.eng.StartTracking(ctx, task.ID)
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	again, err := h.eng.StartTracking(ctx, task.ID)
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.Empty(t, again.ID)

	current, _ := h.eng.Task(task.ID)
	assert.Equal(t, started.Tracking, current.Tracking)

	h.clock.Advance(9 * time.Minute)
	paused, err := h.eng.PauseTracking(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, paused.TrackingState().TotalTime())

	h.clock.Advance(5 * time.Minute)
	resumed, err := h.eng.ResumeTracking(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TrackingInProgress, resumed.TrackingState().Status())
	assert.Equal(t, 10*time.Minute, resumed.TrackingState().TotalTime())

	h.clock.Advance(2 * time.Minute)
	elapsed, active := h.eng.ElapsedTimes()
	assert.True(t, active)
	assert.Equal(t, 12*time.Minute, elapsed[task.ID])

	_, err = h.eng.ResumeTracking(ctx, task.ID)
	assert.ErrorIs(t, err, ErrIllegalState)

	_, err = h.eng.PauseTracking(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	a := h.add(t, "a", "", nil)
	b := h.add(t, "b", "", nil)

	require.NoError(t, h.eng.DeleteTask(ctx, a.ID))
	assert.ErrorIs(t, h.eng.DeleteTask(ctx, a.ID), ErrNotFound)

	tasks := h.eng.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, b.ID, tasks[0].ID)
	assert.Equal(t, `"a" has been deleted.`, h.eng.Notifications()[0].Message)
}

func TestClearCompleted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	n, err := h.eng.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, h.eng.Notifications())

	a := h.add(t, "a", "", nil)
	b := h.add(t, "b", "", nil)
	h.add(t, "c", "", nil)
	_, err = h.eng.SetCompleted(ctx, a.ID, true)
	require.NoError(t, err)
	_, err = h.eng.SetCompleted(ctx, b.ID, true)
	require.NoError(t, err)

	n, err = h.eng.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, h.eng.Tasks(), 1)
	assert.Equal(t, "c", h.eng.Tasks()[0].Text)

	feed := h.eng.Notifications()
	assert.Equal(t, model.KindCleared, feed[0].Kind)
	assert.Equal(t, "Cleared 2 completed tasks", feed[0].Message)
}

func TestScanDeadlines_OverdueOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	task := h.add(t, "Taxes", "", ptr(t0.Add(-36*time.Hour)))

	emitted, err := h.eng.ScanDeadlines(ctx)
	require.NoError(t, err)
	require.Len(t, emitted, 1)
	assert.Equal(t, model.NotificationDeadline, emitted[0].Type)
	assert.Equal(t, model.KindOverdue, emitted[0].Kind)

	got, _ := h.eng.Task(task.ID)
	assert.True(t, got.NotifiedOverdue)

	emitted, err = h.eng.ScanDeadlines(ctx)
	require.NoError(t, err)
	assert.Empty(t, emitted)
	assert.Len(t, h.eng.Notifications(), 1)

	reloaded := newHarness(t, h.store)
	emitted, err = reloaded.eng.ScanDeadlines(ctx)
	require.NoError(t, err)
	assert.Empty(t, emitted)
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	fs := &flakyStore{Store: store.NewMemoryStore()}
	h := newHarness(t, fs)
	task := h.add(t, "Keep", model.PriorityHigh, nil)

	fs.fail = true

	_, err := h.eng.SetCompleted(ctx, task.ID, true)
	require.Error(t, err)

	got, _ := h.eng.Task(task.ID)
	assert.False(t, got.Completed)
	assert.Zero(t, h.eng.Score().Points)
	assert.Empty(t, h.eng.Notifications())

	_, err = h.eng.AddTask(ctx, NewTask{Text: "lost"})
	require.Error(t, err)
	assert.Len(t, h.eng.Tasks(), 1)

	fs.fail = false
	_, err = h.eng.SetCompleted(ctx, task.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 25, h.eng.Score().Points)
}

func TestChangeHookAndSink(t *testing.T) {
	ctx := context.Background()
	var changes []Change
	sink := notify.NewChanSink(4)

	h := newHarness(t, nil,
		WithChangeHook(func(c Change) { changes = append(changes, c) }),
		WithSink(sink),
	)

	task := h.add(t, "a", "", nil)
	_, err := h.eng.SetCompleted(ctx, task.ID, true)
	require.NoError(t, err)
	_, err = h.eng.StartTracking(ctx, task.ID)
	require.Error(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, ChangedTasks, changes[0])
	assert.True(t, changes[1].Has(ChangedTasks|ChangedScore|ChangedNotifications))

	select {
	case n := <-sink.C():
		assert.Equal(t, model.KindCompleted, n.Kind)
	default:
		t.Fatal("expected notification on sink")
	}
}

func TestViewAndCriteria(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	none := h.add(t, "none", model.PriorityMedium, nil)
	soon := h.add(t, "soon", model.PriorityMedium, ptr(t0.Add(24*time.Hour)))
	done := h.add(t, "done", model.PriorityHigh, nil)
	_, err := h.eng.SetCompleted(ctx, done.ID, true)
	require.NoError(t, err)

	view := h.eng.View()
	require.Len(t, view, 3)
	assert.Equal(t, []string{soon.ID, none.ID, done.ID}, []string{view[0].ID, view[1].ID, view[2].ID})

	c := h.eng.UpdateCriteria(func(c *filter.Criteria) { c.Status = filter.StatusActive })
	assert.Equal(t, filter.StatusActive, c.Status)
	assert.Len(t, h.eng.View(), 2)

	h.eng.ClearFilters()
	assert.Equal(t, filter.DefaultCriteria(), h.eng.Criteria())
	assert.Len(t, h.eng.View(), 3)

	col := h.eng.Collections()
	assert.Len(t, col.NoDueDate, 1)
	assert.Len(t, col.DueTomorrow, 1)
}

func TestFindTask(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, "Buy milk", "", nil)
	h.add(t, "Buy MILK and eggs", "", nil)

	got, ok := h.eng.FindTask("milk")
	require.True(t, ok)
	assert.Equal(t, "Buy milk", got.Text)

	_, ok = h.eng.FindTask("bread")
	assert.False(t, ok)
	_, ok = h.eng.FindTask("  ")
	assert.False(t, ok)
}

func TestNotificationsDismiss(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	a := h.add(t, "a", "", nil)
	b := h.add(t, "b", "", nil)
	require.NoError(t, h.eng.DeleteTask(ctx, a.ID))
	require.NoError(t, h.eng.DeleteTask(ctx, b.ID))

	feed := h.eng.Notifications()
	require.Len(t, feed, 2)

	require.NoError(t, h.eng.Dismiss(ctx, feed[0].ID))
	assert.ErrorIs(t, h.eng.Dismiss(ctx, feed[0].ID), ErrNotFound)
	assert.Len(t, h.eng.Notifications(), 1)

	require.NoError(t, h.eng.DismissAll(ctx))
	assert.Empty(t, h.eng.Notifications())

	reloaded := newHarness(t, h.store)
	assert.Empty(t, reloaded.eng.Notifications())
}

func TestAutomation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	_, err := h.eng.AddRule(ctx, model.AutomationRule{Name: "x", Time: "09:00"})
	assert.ErrorIs(t, err, ErrValidation)

	rule, err := h.eng.AddRule(ctx, model.AutomationRule{
		Name: "Standup", Frequency: model.FrequencyDaily, Time: "12:00",
		TaskText: "Standup notes", DeadlineDays: 2, IsActive: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)

	created, err := h.eng.RunAutomation(ctx)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.True(t, created[0].Automated)
	assert.Equal(t, model.PriorityMedium, created[0].Priority)
	assert.True(t, created[0].Deadline.Equal(t0.AddDate(0, 0, 2)))

	h.clock.Advance(30 * time.Second)
	created, err = h.eng.RunAutomation(ctx)
	require.NoError(t, err)
	assert.Empty(t, created)

	toggled, err := h.eng.ToggleRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	require.NoError(t, h.eng.DeleteRule(ctx, rule.ID))
	assert.Empty(t, h.eng.Rules())
	assert.ErrorIs(t, h.eng.DeleteRule(ctx, rule.ID), ErrNotFound)
	_, err = h.eng.ToggleRule(ctx, rule.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, WithDefaultTheme(model.ThemeDark))
	assert.Equal(t, model.ThemeDark, h.eng.Theme())

	next, err := h.eng.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeLight, next)

	assert.ErrorIs(t, h.eng.SetTheme(ctx, "sepia"), ErrValidation)

	reloaded := newHarness(t, h.store, WithDefaultTheme(model.ThemeDark))
	assert.Equal(t, model.ThemeLight, reloaded.eng.Theme())
}

func TestNew_CorruptStateFallsBack(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.SetMany(ctx, map[string]string{
		store.KeyTasks: "[{broken",
		store.KeyScore: "12",
	}))

	h := newHarness(t, s)
	assert.Empty(t, h.eng.Tasks())
	assert.Equal(t, 12, h.eng.Score().Points)
}

func TestNew_NilStore(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestDeadlinesReached(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.add(t, "Submit form", model.PriorityMedium, ptr(t0.Add(30*time.Second)))
	done := h.add(t, "Call bank", model.PriorityMedium, ptr(t0.Add(30*time.Second)))
	_, err := h.eng.SetCompleted(ctx, done.ID, true)
	require.NoError(t, err)

	assert.Empty(t, h.eng.DeadlinesReached())

	h.clock.Advance(45 * time.Second)
	reached := h.eng.DeadlinesReached()
	require.Len(t, reached, 1)
	assert.Equal(t, "Submit form", reached[0].Text)

	h.clock.Advance(time.Minute)
	assert.Empty(t, h.eng.DeadlinesReached())
}

func TestNew_BadTaskRecordKeepsTheRest(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.SetMany(ctx, map[string]string{
		store.KeyTasks: `[{"id":"a","text":"keep me"},{"id":"b","text":"broken","timeTracking":{"status":"running"}}]`,
	}))

	h := newHarness(t, s)
	require.Len(t, h.eng.Tasks(), 1)
	h.add(t, "new", model.PriorityLow, nil)

	raw, ok, err := s.Get(ctx, store.KeyTasks)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, "keep me")
	assert.Contains(t, raw, `"new"`)
}
