package model

import (
	"encoding/json"
	"time"
)

// NotificationType groups notifications by origin.
type NotificationType string

const (
	NotificationDeadline    NotificationType = "deadline"
	NotificationStatus      NotificationType = "status"
	NotificationAchievement NotificationType = "achievement"
)

// Notification kinds refine the type.
const (
	KindDueToday  = "due_today"
	KindOverdue   = "overdue"
	KindCompleted = "completed"
	KindDeleted   = "deleted"
	KindUpdated   = "updated"
	KindCleared   = "cleared"
	KindStreak    = "streak"
	KindLevelUp   = "level_up"
)

// Notification is an alert surfaced to the user about a task lifecycle,
// deadline or achievement event.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Type identifies the notification family.
	Type NotificationType `json:"type"`

	// Kind refines Type (e.g. "overdue", "streak").
	Kind string `json:"kind,omitempty"`

	Title   string `json:"title"`
	Message string `json:"message"`

	// TaskID links the notification to the originating task, if any.
	TaskID string `json:"taskId,omitempty"`

	// Value carries the numeric payload of achievements (streak length,
	// level) and the count of bulk operations.
	Value int `json:"value,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// Read is never flipped by the engine; dismissal removes the record.
	Read bool `json:"read"`
}

// UnmarshalJSON implements json.Unmarshaler. Ids may be stored as numbers.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	var w struct {
		plain
		ID     json.RawMessage `json:"id"`
		TaskID json.RawMessage `json:"taskId"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = Notification(w.plain)
	n.ID = rawScalar(w.ID)
	n.TaskID = rawScalar(w.TaskID)
	return nil
}
