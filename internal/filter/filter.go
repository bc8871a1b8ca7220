// Package filter derives the ordered, filtered task view shown to the user.
package filter

import (
	"sort"
	"time"

	"github.com/nhle/tasktrack/internal/model"
)

// Status selects tasks by completion.
type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// DateRange selects tasks by deadline.
type DateRange string

const (
	DateAll      DateRange = "all"
	DateToday    DateRange = "today"
	DateThisWeek DateRange = "thisWeek"
	DateOverdue  DateRange = "overdue"
)

// PriorityAll disables the priority predicate.
const PriorityAll model.Priority = "all"

// TrackingAll disables the time-tracking predicate.
const TrackingAll model.TrackingStatus = "all"

// SortOption names an ordering of the view.
type SortOption string

const (
	SortDefault   SortOption = "default"
	SortPriority  SortOption = "priority"
	SortDeadline  SortOption = "deadline"
	SortNewest    SortOption = "newest"
	SortOldest    SortOption = "oldest"
	SortTimeSpent SortOption = "timeSpent"
)

// SortOptions lists every ordering in display order.
var SortOptions = []SortOption{SortDefault, SortPriority, SortDeadline, SortNewest, SortOldest, SortTimeSpent}

// Statuses lists every status filter in display order.
var Statuses = []Status{StatusAll, StatusActive, StatusCompleted}

// DateRanges lists every date filter in display order.
var DateRanges = []DateRange{DateAll, DateToday, DateThisWeek, DateOverdue}

// Priorities lists every priority filter in display order.
var Priorities = []model.Priority{PriorityAll, model.PriorityHigh, model.PriorityMedium, model.PriorityLow}

// TrackingStatuses lists every time-tracking filter in display order.
// Completed tasks are reached through the status filter instead.
var TrackingStatuses = []model.TrackingStatus{
	TrackingAll,
	model.TrackingNotStarted,
	model.TrackingInProgress,
	model.TrackingPaused,
}

// Criteria is the set of independently toggled predicates plus the sort.
// All predicates must hold for a task to be shown.
type Criteria struct {
	Status   Status
	Priority model.Priority
	Date     DateRange
	Tracking model.TrackingStatus
	Sort     SortOption
}

// DefaultCriteria shows every task in default order.
func DefaultCriteria() Criteria {
	return Criteria{
		Status:   StatusAll,
		Priority: PriorityAll,
		Date:     DateAll,
		Tracking: TrackingAll,
		Sort:     SortDefault,
	}
}

// Unfiltered reports whether no predicate is active. Sort is ignored.
func (c Criteria) Unfiltered() bool {
	n := c.normalized()
	return n.Status == StatusAll && n.Priority == PriorityAll && n.Date == DateAll && n.Tracking == TrackingAll
}

// normalized maps zero values to their "all"/default equivalents.
func (c Criteria) normalized() Criteria {
	if c.Status == "" {
		c.Status = StatusAll
	}
	if c.Priority == "" {
		c.Priority = PriorityAll
	}
	if c.Date == "" {
		c.Date = DateAll
	}
	if c.Tracking == "" {
		c.Tracking = TrackingAll
	}
	if c.Sort == "" {
		c.Sort = SortDefault
	}
	return c
}

// Apply returns the tasks matching c in c's order. The input is never
// modified; the result holds copies.
func Apply(tasks []model.Task, c Criteria, now time.Time) []model.Task {
	c = c.normalized()

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if Match(t, c, now) {
			out = append(out, t.Clone())
		}
	}

	cmp := compareFor(c.Sort)
	sort.SliceStable(out, func(i, j int) bool {
		return cmp(out[i], out[j]) < 0
	})

	return out
}

// Match reports whether t satisfies every predicate of c.
func Match(t model.Task, c Criteria, now time.Time) bool {
	c = c.normalized()

	switch c.Status {
	case StatusActive:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}

	if c.Priority != PriorityAll && t.Priority != c.Priority {
		return false
	}

	if c.Date != DateAll {
		if !t.HasDeadline() {
			return false
		}
		d := *t.Deadline
		today := model.StartOfDay(now)

		switch c.Date {
		case DateToday:
			if d.Before(today) || !d.Before(today.AddDate(0, 0, 1)) {
				return false
			}
		case DateThisWeek:
			if d.Before(today) || !d.Before(today.AddDate(0, 0, 7)) {
				return false
			}
		case DateOverdue:
			if !d.Before(now) {
				return false
			}
		}
	}

	if c.Tracking != TrackingAll && t.TrackingState().Status() != c.Tracking {
		return false
	}

	return true
}

// compareFunc returns <0 when a sorts before b.
type compareFunc func(a, b model.Task) int

func compareFor(opt SortOption) compareFunc {
	switch opt {
	case SortPriority:
		return comparePriority
	case SortDeadline:
		return compareDeadline
	case SortNewest:
		return func(a, b model.Task) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortOldest:
		return func(a, b model.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortTimeSpent:
		return compareTimeSpent
	default:
		return compareDefault
	}
}

func comparePriority(a, b model.Task) int {
	return a.Priority.Rank() - b.Priority.Rank()
}

// compareDeadline orders by deadline ascending with missing deadlines last.
// Two missing deadlines compare equal.
func compareDeadline(a, b model.Task) int {
	switch {
	case !a.HasDeadline() && !b.HasDeadline():
		return 0
	case !a.HasDeadline():
		return 1
	case !b.HasDeadline():
		return -1
	}
	return a.Deadline.Compare(*b.Deadline)
}

func compareTimeSpent(a, b model.Task) int {
	at, bt := a.TrackingState().TotalTime(), b.TrackingState().TotalTime()
	switch {
	case at > bt:
		return -1
	case at < bt:
		return 1
	}
	return 0
}

func compareDefault(a, b model.Task) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}
	if c := comparePriority(a, b); c != 0 {
		return c
	}
	return compareDeadline(a, b)
}

// Next returns the element after cur in opts, wrapping around.
func Next[T comparable](opts []T, cur T) T {
	for i, o := range opts {
		if o == cur {
			return opts[(i+1)%len(opts)]
		}
	}
	return opts[0]
}
