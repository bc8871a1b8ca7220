package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
	}{
		{"high", PriorityHigh},
		{" HIGH ", PriorityHigh},
		{"low", PriorityLow},
		{"medium", PriorityMedium},
		{"", PriorityMedium},
		{"urgent", PriorityMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePriority(tt.in), tt.in)
	}
}

func TestTask_JSONRoundTripTrackingStates(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	end := now.Add(5 * time.Minute)

	states := []TimeTracking{
		NotStarted{},
		InProgress{StartedAt: now.Add(-time.Hour), SessionStart: now, Total: 90 * time.Second, Pauses: []Pause{{Start: now.Add(-10 * time.Minute), End: &end}}},
		Paused{StartedAt: now, Total: time.Minute, Pauses: []Pause{{Start: now}}},
		Completed{StartedAt: &now, Total: 2 * time.Hour, CompletedAt: end, Pauses: []Pause{}},
		Completed{CompletedAt: end, Pauses: []Pause{}},
	}

	for _, st := range states {
		t.Run(string(st.Status()), func(t *testing.T) {
			in := Task{ID: "1", Text: "x", Priority: PriorityLow, CreatedAt: now, LastModified: now, Tracking: st}

			b, err := json.Marshal(in)
			require.NoError(t, err)

			var out Task
			require.NoError(t, json.Unmarshal(b, &out))
			assert.Equal(t, st.Status(), out.TrackingState().Status())
			assert.Equal(t, st.TotalTime(), out.TrackingState().TotalTime())

			if ip, ok := st.(InProgress); ok {
				got := out.Tracking.(InProgress)
				assert.True(t, ip.SessionStart.Equal(got.SessionStart))
				require.Len(t, got.Pauses, 1)
				assert.True(t, got.Pauses[0].End.Equal(end))
			}
		})
	}
}

func TestTask_UnmarshalLegacyRecord(t *testing.T) {
	raw := `{"id":"1700000000000","text":"old task","completed":false,"priority":"bogus","createdAt":"2026-01-01T00:00:00Z","lastModified":"2026-01-01T00:00:00Z"}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(raw), &task))

	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Equal(t, TrackingNotStarted, task.TrackingState().Status())
	assert.False(t, task.HasDeadline())
}

func TestTask_UnmarshalNumericID(t *testing.T) {
	raw := `{"id":1728990000000,"text":"timestamp id","priority":"low"}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(raw), &task))
	assert.Equal(t, "1728990000000", task.ID)
	assert.Equal(t, "timestamp id", task.Text)
	assert.Equal(t, PriorityLow, task.Priority)
}

func TestNotification_UnmarshalNumericIDs(t *testing.T) {
	raw := `{"id":1728990000001,"type":"status","title":"Task Completed","taskId":1728990000000,"read":false}`

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))
	assert.Equal(t, "1728990000001", n.ID)
	assert.Equal(t, "1728990000000", n.TaskID)
	assert.Equal(t, NotificationStatus, n.Type)
	assert.Equal(t, "Task Completed", n.Title)
}

func TestTask_UnmarshalInProgressWithoutSession(t *testing.T) {
	raw := `{"id":"1","text":"x","timeTracking":{"status":"in_progress","totalTime":0}}`

	var task Task
	assert.Error(t, json.Unmarshal([]byte(raw), &task))
}

func TestTask_UnmarshalUnknownStatus(t *testing.T) {
	raw := `{"id":"1","text":"x","timeTracking":{"status":"running"}}`

	var task Task
	assert.Error(t, json.Unmarshal([]byte(raw), &task))
}

func TestTask_TotalTimeStoredInMilliseconds(t *testing.T) {
	task := Task{ID: "1", Text: "x", Tracking: Paused{Total: 1500 * time.Millisecond}}

	b, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"totalTime":1500`)
	assert.Contains(t, string(b), `"status":"paused"`)
}

func TestTask_CloneIsDeep(t *testing.T) {
	now := time.Now()
	deadline := now.Add(time.Hour)
	orig := Task{ID: "1", Deadline: &deadline, Tracking: Paused{Pauses: []Pause{{Start: now}}}}

	c := orig.Clone()
	*c.Deadline = now
	c.Tracking.(Paused).Pauses[0].Start = now.Add(time.Minute)

	assert.True(t, orig.Deadline.Equal(deadline))
	assert.True(t, orig.Tracking.(Paused).Pauses[0].Start.Equal(now))
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	assert.True(t, Task{Deadline: &past}.IsOverdue(now))
	assert.False(t, Task{Deadline: &past, Completed: true}.IsOverdue(now))
	assert.False(t, Task{}.IsOverdue(now))
}
