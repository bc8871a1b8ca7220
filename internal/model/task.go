package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority is the user-assigned importance of a task.
type Priority string

// Priority constants. Medium is the default.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps free text to a Priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Rank orders priorities for sorting (lower = more important).
// Unknown values rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Task is a user-created to-do item.
type Task struct {
	// ID is the only stable key for a task; views must resolve by ID.
	ID string

	Text      string
	Completed bool

	// Deadline is nil when the task has no deadline.
	Deadline *time.Time

	Priority     Priority
	CreatedAt    time.Time
	LastModified time.Time

	// Tracking is nil for records that never had tracking; treat as NotStarted.
	Tracking TimeTracking

	// NotifiedToday and NotifiedOverdue dedupe deadline notifications.
	NotifiedToday   bool
	NotifiedOverdue bool

	// Automated marks tasks created by an automation rule.
	Automated bool
}

// TrackingState returns the task's tracking state, treating an absent
// value as NotStarted.
func (t Task) TrackingState() TimeTracking {
	if t.Tracking == nil {
		return NotStarted{}
	}
	return t.Tracking
}

// HasDeadline reports whether the task carries a deadline.
func (t Task) HasDeadline() bool {
	return t.Deadline != nil && !t.Deadline.IsZero()
}

// IsOverdue reports whether an incomplete task's deadline has passed.
func (t Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.HasDeadline() && t.Deadline.Before(now)
}

// Clone returns a deep copy so mutations never leak into other snapshots.
func (t Task) Clone() Task {
	c := t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	switch s := t.Tracking.(type) {
	case InProgress:
		s.Pauses = ClonePauses(s.Pauses)
		c.Tracking = s
	case Paused:
		s.Pauses = ClonePauses(s.Pauses)
		c.Tracking = s
	case Completed:
		if s.StartedAt != nil {
			started := *s.StartedAt
			s.StartedAt = &started
		}
		s.Pauses = ClonePauses(s.Pauses)
		c.Tracking = s
	}
	return c
}

// CloneTasks deep-copies a task slice.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// taskWire is the persisted JSON shape of a Task.
type taskWire struct {
	ID              string       `json:"id"`
	Text            string       `json:"text"`
	Completed       bool         `json:"completed"`
	Deadline        *time.Time   `json:"deadline,omitempty"`
	Priority        Priority     `json:"priority"`
	CreatedAt       time.Time    `json:"createdAt"`
	LastModified    time.Time    `json:"lastModified"`
	TimeTracking    trackingWire `json:"timeTracking"`
	NotifiedToday   bool         `json:"notifiedToday,omitempty"`
	NotifiedOverdue bool         `json:"notifiedOverdue,omitempty"`
	Automated       bool         `json:"automated,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskWire{
		ID:              t.ID,
		Text:            t.Text,
		Completed:       t.Completed,
		Deadline:        t.Deadline,
		Priority:        t.Priority,
		CreatedAt:       t.CreatedAt,
		LastModified:    t.LastModified,
		TimeTracking:    encodeTracking(t.Tracking),
		NotifiedToday:   t.NotifiedToday,
		NotifiedOverdue: t.NotifiedOverdue,
		Automated:       t.Automated,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w struct {
		taskWire
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id := rawScalar(w.ID)

	tracking, err := decodeTracking(w.TimeTracking)
	if err != nil {
		return fmt.Errorf("task %s: %w", id, err)
	}

	priority := w.Priority
	if !priority.Valid() {
		priority = PriorityMedium
	}

	*t = Task{
		ID:              id,
		Text:            w.Text,
		Completed:       w.Completed,
		Deadline:        w.Deadline,
		Priority:        priority,
		CreatedAt:       w.CreatedAt,
		LastModified:    w.LastModified,
		Tracking:        tracking,
		NotifiedToday:   w.NotifiedToday,
		NotifiedOverdue: w.NotifiedOverdue,
		Automated:       w.Automated,
	}
	return nil
}
