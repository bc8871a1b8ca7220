package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/nhle/tasktrack/internal/filter"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/notify"
	"github.com/nhle/tasktrack/internal/scoring"
)

// Criteria returns the active filter and sort.
func (e *Engine) Criteria() filter.Criteria {
	var c filter.Criteria
	e.read(func(s *state) { c = s.criteria })
	return c
}

// SetCriteria replaces the filter and sort. Criteria are session state and
// are not persisted.
func (e *Engine) SetCriteria(c filter.Criteria) {
	e.mu.Lock()
	e.state.criteria = c
	e.mu.Unlock()
}

// UpdateCriteria applies fn to the current criteria.
func (e *Engine) UpdateCriteria(fn func(c *filter.Criteria)) filter.Criteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.state.criteria)
	return e.state.criteria
}

// ClearFilters resets every predicate and the sort to their defaults.
func (e *Engine) ClearFilters() {
	e.SetCriteria(filter.DefaultCriteria())
}

// View returns the filtered, sorted task view.
func (e *Engine) View() []model.Task {
	now := e.now()
	var out []model.Task
	e.read(func(s *state) {
		out = filter.Apply(s.tasks, s.criteria, now)
	})
	return out
}

// Collections groups incomplete tasks by deadline day and priority.
func (e *Engine) Collections() filter.Collections {
	now := e.now()
	var out filter.Collections
	e.read(func(s *state) {
		out = filter.Collect(s.tasks, now)
	})
	return out
}

// ScoreView is the score state plus the derived level and the most recent
// change for display.
type ScoreView struct {
	model.Score
	Level scoring.Level

	// LastChange is the points delta of the most recent completion or
	// un-completion.
	LastChange int

	// Flash is set after a score change until AcknowledgeScoreChange.
	Flash bool
}

// Score returns the current score view.
func (e *Engine) Score() ScoreView {
	var v ScoreView
	e.read(func(s *state) {
		v = ScoreView{
			Score:      s.score,
			Level:      scoring.LevelFor(s.score.Points),
			LastChange: s.lastScoreChange,
			Flash:      s.scoreFlash,
		}
	})
	return v
}

// AcknowledgeScoreChange clears the score flash once it was shown.
func (e *Engine) AcknowledgeScoreChange() {
	e.mu.Lock()
	e.state.scoreFlash = false
	e.mu.Unlock()
}

// Notifications returns the feed, newest first.
func (e *Engine) Notifications() []model.Notification {
	var out []model.Notification
	e.read(func(s *state) {
		out = slices.Clone(s.feed)
	})
	if out == nil {
		out = []model.Notification{}
	}
	return out
}

// Dismiss removes notification id from the feed.
func (e *Engine) Dismiss(ctx context.Context, id string) error {
	return e.update(ctx, func(t *tx) error {
		feed, found := notify.Dismiss(t.feed, id)
		if !found {
			return fmt.Errorf("%w: notification %s", ErrNotFound, id)
		}
		t.feed = feed
		t.changed |= ChangedNotifications
		return nil
	})
}

// DismissAll empties the feed.
func (e *Engine) DismissAll(ctx context.Context) error {
	return e.update(ctx, func(t *tx) error {
		if len(t.feed) == 0 {
			return nil
		}
		t.feed = []model.Notification{}
		t.changed |= ChangedNotifications
		return nil
	})
}
