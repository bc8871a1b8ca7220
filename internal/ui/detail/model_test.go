package detail

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktrack/internal/keys"
	"github.com/nhle/tasktrack/internal/model"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func trackedTask() model.Task {
	started := now.Add(-2 * time.Hour)
	pauseStart := now.Add(-90 * time.Minute)
	pauseEnd := now.Add(-60 * time.Minute)
	return model.Task{
		ID:           "t1",
		Text:         "Write report",
		Priority:     model.PriorityHigh,
		CreatedAt:    now.Add(-3 * time.Hour),
		LastModified: now.Add(-time.Hour),
		Tracking: model.InProgress{
			StartedAt:    started,
			SessionStart: pauseEnd,
			Total:        30 * time.Minute,
			Pauses:       []model.Pause{{Start: pauseStart, End: &pauseEnd}},
		},
	}
}

func TestViewShowsTracking(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 40)
	m.SetTask(trackedTask(), 90*time.Minute, now)

	out := m.View()
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "in progress")
	assert.Contains(t, out, "01:30:00")
	assert.Contains(t, out, "Pauses (1)")
	assert.Contains(t, out, "(00:30:00)")
}

func TestViewNotStarted(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 40)
	due := now.Add(-time.Hour)
	m.SetTask(model.Task{ID: "t2", Text: "Pay rent", Priority: model.PriorityLow, Deadline: &due}, 0, now)

	out := m.View()
	assert.Contains(t, out, "Not started")
	assert.Contains(t, out, "OVERDUE")
}

func TestEmpty(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	assert.Contains(t, m.View(), "No task selected")
	assert.Equal(t, "", m.TaskID())

	_, cmd := m.Update(runes("x"))
	assert.Nil(t, cmd)
}

func TestActions(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 40)
	m.SetTask(trackedTask(), 0, now)

	tests := []struct {
		key  string
		want Action
	}{
		{"x", ActionToggle},
		{"s", ActionStart},
		{"p", ActionPause},
		{"e", ActionEdit},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, cmd := m.Update(runes(tt.key))
			require.NotNil(t, cmd)
			assert.Equal(t, ActionMsg{Action: tt.want, TaskID: "t1"}, cmd())
		})
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}
