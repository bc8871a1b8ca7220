package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktrack/internal/model"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func fixture() []model.Task {
	return []model.Task{
		{ID: "a", Text: "a", Priority: model.PriorityLow, CreatedAt: now.Add(-4 * time.Hour), Deadline: at(2 * time.Hour)},
		{ID: "b", Text: "b", Priority: model.PriorityHigh, CreatedAt: now.Add(-3 * time.Hour), Completed: true,
			Tracking: model.Completed{Total: 10 * time.Minute}},
		{ID: "c", Text: "c", Priority: model.PriorityMedium, CreatedAt: now.Add(-2 * time.Hour), Deadline: at(-36 * time.Hour),
			Tracking: model.Paused{Total: 30 * time.Minute}},
		{ID: "d", Text: "d", Priority: model.PriorityHigh, CreatedAt: now.Add(-1 * time.Hour), Deadline: at(5 * 24 * time.Hour),
			Tracking: model.InProgress{SessionStart: now, Total: 5 * time.Minute}},
		{ID: "e", Text: "e", Priority: model.PriorityMedium, CreatedAt: now},
	}
}

func TestApply_StatusFilter(t *testing.T) {
	c := DefaultCriteria()

	c.Status = StatusActive
	assert.ElementsMatch(t, []string{"a", "c", "d", "e"}, ids(Apply(fixture(), c, now)))

	c.Status = StatusCompleted
	assert.Equal(t, []string{"b"}, ids(Apply(fixture(), c, now)))
}

func TestApply_PriorityFilter(t *testing.T) {
	c := DefaultCriteria()
	c.Priority = model.PriorityHigh

	assert.ElementsMatch(t, []string{"b", "d"}, ids(Apply(fixture(), c, now)))
}

func TestApply_DateFilters(t *testing.T) {
	c := DefaultCriteria()

	c.Date = DateToday
	assert.Equal(t, []string{"a"}, ids(Apply(fixture(), c, now)))

	c.Date = DateThisWeek
	assert.ElementsMatch(t, []string{"a", "d"}, ids(Apply(fixture(), c, now)))

	c.Date = DateOverdue
	assert.Equal(t, []string{"c"}, ids(Apply(fixture(), c, now)))
}

func TestApply_TrackingFilter(t *testing.T) {
	c := DefaultCriteria()

	c.Tracking = model.TrackingInProgress
	assert.Equal(t, []string{"d"}, ids(Apply(fixture(), c, now)))

	c.Tracking = model.TrackingPaused
	assert.Equal(t, []string{"c"}, ids(Apply(fixture(), c, now)))

	c.Tracking = model.TrackingNotStarted
	assert.ElementsMatch(t, []string{"a", "e"}, ids(Apply(fixture(), c, now)))
}

func TestApply_Conjunctive(t *testing.T) {
	c := DefaultCriteria()
	c.Status = StatusActive
	c.Priority = model.PriorityHigh
	c.Date = DateThisWeek

	assert.Equal(t, []string{"d"}, ids(Apply(fixture(), c, now)))
}

func TestApply_Sorts(t *testing.T) {
	tests := []struct {
		sort SortOption
		want []string
	}{
		{SortDefault, []string{"d", "c", "e", "a", "b"}},
		{SortPriority, []string{"b", "d", "c", "e", "a"}},
		{SortDeadline, []string{"c", "a", "d", "b", "e"}},
		{SortNewest, []string{"e", "d", "c", "b", "a"}},
		{SortOldest, []string{"a", "b", "c", "d", "e"}},
		{SortTimeSpent, []string{"c", "b", "d", "a", "e"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			c := DefaultCriteria()
			c.Sort = tt.sort
			assert.Equal(t, tt.want, ids(Apply(fixture(), c, now)))
		})
	}
}

func TestApply_DefaultSortMissingDeadlineLast(t *testing.T) {
	tasks := []model.Task{
		{ID: "none", Priority: model.PriorityMedium},
		{ID: "soon", Priority: model.PriorityMedium, Deadline: at(24 * time.Hour)},
	}

	assert.Equal(t, []string{"soon", "none"}, ids(Apply(tasks, DefaultCriteria(), now)))
}

func TestApply_SubsetAndNoMutation(t *testing.T) {
	in := fixture()

	for _, s := range Statuses {
		for _, d := range DateRanges {
			for _, o := range SortOptions {
				c := Criteria{Status: s, Priority: PriorityAll, Date: d, Tracking: TrackingAll, Sort: o}
				out := Apply(in, c, now)

				seen := map[string]bool{}
				for _, task := range out {
					require.False(t, seen[task.ID], "duplicate %s", task.ID)
					seen[task.ID] = true
					assert.True(t, Match(task, c, now))
				}
				for _, task := range in {
					if Match(task, c, now) {
						assert.True(t, seen[task.ID], "lost %s", task.ID)
					}
				}
			}
		}
	}

	assert.Equal(t, fixture(), in)
}

func TestApply_ZeroCriteriaMeansAll(t *testing.T) {
	assert.Len(t, Apply(fixture(), Criteria{}, now), 5)
	assert.True(t, Criteria{}.Unfiltered())
	assert.False(t, Criteria{Status: StatusActive}.Unfiltered())
}

func TestNext(t *testing.T) {
	assert.Equal(t, SortPriority, Next(SortOptions, SortDefault))
	assert.Equal(t, SortDefault, Next(SortOptions, SortTimeSpent))
	assert.Equal(t, StatusAll, Next(Statuses, Status("bogus")))
	assert.Equal(t, model.PriorityHigh, Next(Priorities, PriorityAll))
	assert.Equal(t, TrackingAll, Next(TrackingStatuses, model.TrackingPaused))
	assert.NotContains(t, TrackingStatuses, model.TrackingCompleted)
}

func TestCollect(t *testing.T) {
	tomorrowNoon := now.Add(24 * time.Hour)
	tasks := append(fixture(), model.Task{ID: "f", Deadline: &tomorrowNoon})

	c := Collect(tasks, now)

	assert.Equal(t, []string{"c"}, ids(c.Urgent))
	assert.Equal(t, []string{"a"}, ids(c.DueToday))
	assert.Equal(t, []string{"f"}, ids(c.DueTomorrow))
	assert.Equal(t, []string{"d"}, ids(c.Upcoming))
	assert.Equal(t, []string{"d"}, ids(c.HighPriority))
	assert.Equal(t, []string{"e"}, ids(c.NoDueDate))
}
