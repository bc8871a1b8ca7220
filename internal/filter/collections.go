package filter

import (
	"time"

	"github.com/nhle/tasktrack/internal/model"
)

// Collections groups incomplete tasks for the overview panel. A high
// priority task also appears in exactly one of the date groups.
type Collections struct {
	Urgent       []model.Task
	DueToday     []model.Task
	DueTomorrow  []model.Task
	Upcoming     []model.Task
	HighPriority []model.Task
	NoDueDate    []model.Task
}

// Collect buckets tasks by the calendar day of their deadline relative to now.
func Collect(tasks []model.Task, now time.Time) Collections {
	today := model.StartOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	var c Collections
	for _, t := range tasks {
		if t.Completed {
			continue
		}

		if t.Priority == model.PriorityHigh {
			c.HighPriority = append(c.HighPriority, t.Clone())
		}

		if !t.HasDeadline() {
			c.NoDueDate = append(c.NoDueDate, t.Clone())
			continue
		}

		day := model.StartOfDay(t.Deadline.In(now.Location()))
		switch {
		case day.Before(today):
			c.Urgent = append(c.Urgent, t.Clone())
		case day.Equal(today):
			c.DueToday = append(c.DueToday, t.Clone())
		case day.Equal(tomorrow):
			c.DueTomorrow = append(c.DueTomorrow, t.Clone())
		default:
			c.Upcoming = append(c.Upcoming, t.Clone())
		}
	}

	return c
}
