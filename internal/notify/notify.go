// Package notify builds notification records from task lifecycle, deadline
// and achievement events, and maintains the newest-first notification feed.
package notify

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/tasktrack/internal/model"
)

// Builder creates notifications with ids from its id source.
type Builder struct {
	newID func() string
}

// NewBuilder returns a Builder using newID for notification ids, or random
// UUIDs when newID is nil.
func NewBuilder(newID func() string) *Builder {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Builder{newID: newID}
}

func (b *Builder) build(typ model.NotificationType, kind, title, message string, now time.Time) model.Notification {
	return model.Notification{
		ID:        b.newID(),
		Type:      typ,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Timestamp: now,
	}
}

// DueToday announces that t's deadline falls within the current day window.
func (b *Builder) DueToday(t model.Task, now time.Time) model.Notification {
	n := b.build(model.NotificationDeadline, model.KindDueToday, "Task Due Today", fmt.Sprintf(`"%s" is due today!`, t.Text), now)
	n.TaskID = t.ID
	return n
}

// Overdue announces that t's deadline has passed.
func (b *Builder) Overdue(t model.Task, now time.Time) model.Notification {
	n := b.build(model.NotificationDeadline, model.KindOverdue, "Task Overdue", fmt.Sprintf(`"%s" is overdue!`, t.Text), now)
	n.TaskID = t.ID
	return n
}

// Completed announces a task completion.
func (b *Builder) Completed(t model.Task, now time.Time) model.Notification {
	n := b.build(model.NotificationStatus, model.KindCompleted, "Task Completed", fmt.Sprintf(`You've completed "%s"!`, t.Text), now)
	n.TaskID = t.ID
	return n
}

// Deleted announces a task deletion.
func (b *Builder) Deleted(t model.Task, now time.Time) model.Notification {
	n := b.build(model.NotificationStatus, model.KindDeleted, "Task Deleted", fmt.Sprintf(`"%s" has been deleted.`, t.Text), now)
	n.TaskID = t.ID
	return n
}

// Updated announces any other task change.
func (b *Builder) Updated(t model.Task, now time.Time) model.Notification {
	n := b.build(model.NotificationStatus, model.KindUpdated, "Task Updated", fmt.Sprintf(`"%s" has been updated.`, t.Text), now)
	n.TaskID = t.ID
	return n
}

// Cleared announces a bulk removal of count completed tasks.
func (b *Builder) Cleared(count int, now time.Time) model.Notification {
	plural := "s"
	if count == 1 {
		plural = ""
	}
	n := b.build(model.NotificationStatus, model.KindCleared, "Tasks Cleared", fmt.Sprintf("Cleared %d completed task%s", count, plural), now)
	n.Value = count
	return n
}

// Streak announces a streak milestone.
func (b *Builder) Streak(days int, now time.Time) model.Notification {
	n := b.build(model.NotificationAchievement, model.KindStreak, "Streak Achievement", fmt.Sprintf("You've maintained a %d-day streak!", days), now)
	n.Value = days
	return n
}

// LevelUp announces reaching level.
func (b *Builder) LevelUp(level int, now time.Time) model.Notification {
	n := b.build(model.NotificationAchievement, model.KindLevelUp, "Level Up!", fmt.Sprintf("You've reached level %d!", level), now)
	n.Value = level
	return n
}

// DaysUntil is the deadline distance in days, rounded up. A deadline later
// today yields 0 and so does one that passed less than a day ago.
func DaysUntil(deadline, now time.Time) int {
	days := math.Ceil(deadline.Sub(now).Hours() / 24)
	if days == 0 {
		// ceil of a small negative is -0
		return 0
	}
	return int(days)
}

// ScanDeadlines checks every incomplete task with a deadline. A task whose
// deadline is DaysUntil 0 gets one due-today notification, a task with a
// negative distance one overdue notification. The dedupe flags are set on
// the returned copies and never cleared.
//
// It returns the tasks (copies, in input order) and the new notifications
// in scan order. changed is false when nothing was emitted.
func (b *Builder) ScanDeadlines(tasks []model.Task, now time.Time) (updated []model.Task, emitted []model.Notification, changed bool) {
	updated = model.CloneTasks(tasks)

	for i := range updated {
		t := &updated[i]
		if t.Completed || !t.HasDeadline() {
			continue
		}

		days := DaysUntil(*t.Deadline, now)
		switch {
		case days == 0 && !t.NotifiedToday:
			emitted = append(emitted, b.DueToday(*t, now))
			t.NotifiedToday = true
		case days < 0 && !t.NotifiedOverdue:
			emitted = append(emitted, b.Overdue(*t, now))
			t.NotifiedOverdue = true
		}
	}

	return updated, emitted, len(emitted) > 0
}

// ReachedWindow is how long after its deadline a task counts as just
// reached.
const ReachedWindow = time.Minute

// DeadlinesReached returns copies of the incomplete tasks whose deadline
// passed less than ReachedWindow ago, deadline itself included.
func DeadlinesReached(tasks []model.Task, now time.Time) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.Completed || !t.HasDeadline() {
			continue
		}
		if since := now.Sub(*t.Deadline); since >= 0 && since < ReachedWindow {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Prepend returns a new feed with ns added in front of feed, each one
// ahead of the one before it so the newest ends up first.
func Prepend(feed []model.Notification, ns ...model.Notification) []model.Notification {
	out := make([]model.Notification, 0, len(feed)+len(ns))
	for i := len(ns) - 1; i >= 0; i-- {
		out = append(out, ns[i])
	}
	return append(out, feed...)
}

// Dismiss returns feed without the notification id, and whether it was
// present.
func Dismiss(feed []model.Notification, id string) ([]model.Notification, bool) {
	out := make([]model.Notification, 0, len(feed))
	found := false
	for _, n := range feed {
		if n.ID == id {
			found = true
			continue
		}
		out = append(out, n)
	}
	return out, found
}
