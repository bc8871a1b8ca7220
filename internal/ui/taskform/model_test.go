package taskform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktrack/internal/model"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local)

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-10-20 09:30", time.Date(2026, 10, 20, 9, 30, 0, 0, time.Local)},
		{"2026-10-20", time.Date(2026, 10, 20, 23, 59, 0, 0, time.Local)},
		{" Tomorrow ", time.Date(2026, 10, 16, 23, 59, 0, 0, time.Local)},
		{"in 2 days", time.Date(2026, 10, 17, 23, 59, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDeadline(tt.in, now)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v", got)
		})
	}
}

func TestParseDeadlineBlankAndInvalid(t *testing.T) {
	got, err := ParseDeadline("  ", now)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseDeadline("next tuesday", now)
	assert.Error(t, err)
}

func TestStartEditPrefills(t *testing.T) {
	m := New(func() time.Time { return now }, 80, 24)
	deadline := time.Date(2026, 10, 20, 9, 30, 0, 0, time.Local)

	m.StartEdit(model.Task{ID: "t1", Text: "Pay rent", Priority: model.PriorityHigh, Deadline: &deadline})

	assert.Equal(t, "Pay rent", m.fb.text)
	assert.Equal(t, model.PriorityHigh, m.fb.priority)
	assert.Equal(t, "2026-10-20 09:30", m.fb.deadline)

	msg := m.handleSubmit()().(TaskSubmittedMsg)
	assert.Equal(t, "t1", msg.ID)
	require.NotNil(t, msg.Deadline)
	assert.True(t, deadline.Equal(*msg.Deadline))
}

func TestStartCreateResets(t *testing.T) {
	m := New(func() time.Time { return now }, 80, 24)
	m.fb.text = "leftover"

	m.StartCreate()

	msg := m.handleSubmit()().(TaskSubmittedMsg)
	assert.Empty(t, msg.ID)
	assert.Empty(t, msg.Text)
	assert.Equal(t, model.PriorityMedium, msg.Priority)
	assert.Nil(t, msg.Deadline)
}
