// Package engine holds the task tracker state and every operation on it.
//
// An Engine owns the task list, score, notification feed, theme and
// automation rules. Every mutation builds the next state on copies,
// persists the touched keys in one atomic batch, and only then swaps the
// new state in. A failed write leaves the engine unchanged.
package engine

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/tasktrack/internal/filter"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/notify"
	"github.com/nhle/tasktrack/internal/scoring"
	"github.com/nhle/tasktrack/internal/store"
)

// Engine is the task tracker core. It is safe for concurrent use.
type Engine struct {
	store        store.Store
	now          func() time.Time
	newTaskID    func() string
	newID        func() string
	notes        *notify.Builder
	sink         notify.Sink
	logger       *log.Logger
	onChange     func(Change)
	defaultTheme model.Theme

	mu    sync.RWMutex
	state state
}

// state is everything an Engine mutates.
type state struct {
	tasks    []model.Task
	score    model.Score
	feed     []model.Notification
	theme    model.Theme
	rules    []model.AutomationRule
	criteria filter.Criteria

	// level is the last observed level, seeded from the loaded score.
	level int

	lastScoreChange int
	scoreFlash      bool
}

// New loads persisted state from s and returns a ready Engine. Unreadable
// or malformed keys fall back to their defaults.
func New(ctx context.Context, s store.Store, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("engine: nil store")
	}

	e := &Engine{
		store:        s,
		now:          time.Now,
		newTaskID:    newTaskID,
		newID:        uuid.NewString,
		sink:         notify.Discard,
		logger:       log.Default(),
		defaultTheme: model.ThemeLight,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.notes = notify.NewBuilder(e.newID)

	loaded := store.Load(ctx, s, e.logger)
	e.state = state{
		tasks:    loaded.Tasks,
		score:    loaded.Score,
		feed:     loaded.Notifications,
		theme:    loaded.Theme,
		rules:    loaded.Rules,
		criteria: filter.DefaultCriteria(),
		level:    scoring.LevelFor(loaded.Score.Points).Level,
	}

	return e, nil
}

// tx is a pending mutation: a private copy of the state plus bookkeeping
// of what changed.
type tx struct {
	state
	now     time.Time
	changed Change
	emitted []model.Notification
}

func (e *Engine) begin() *tx {
	s := e.state
	s.tasks = model.CloneTasks(e.state.tasks)
	s.feed = slices.Clone(e.state.feed)
	s.rules = slices.Clone(e.state.rules)
	return &tx{state: s, now: e.now()}
}

// emit prepends n to the feed.
func (t *tx) emit(n model.Notification) {
	t.feed = notify.Prepend(t.feed, n)
	t.emitted = append(t.emitted, n)
	t.changed |= ChangedNotifications
}

// index returns the position of task id, or -1.
func (t *tx) index(id string) int {
	return slices.IndexFunc(t.tasks, func(task model.Task) bool { return task.ID == id })
}

// keys maps a change set to the persisted keys it touches.
func (c Change) keys() []string {
	var keys []string
	if c.Has(ChangedTasks) {
		keys = append(keys, store.KeyTasks)
	}
	if c.Has(ChangedScore) {
		keys = append(keys, store.KeyScore, store.KeyStreak, store.KeyLastCompletionDate)
	}
	if c.Has(ChangedNotifications) {
		keys = append(keys, store.KeyNotifications)
	}
	if c.Has(ChangedTheme) {
		keys = append(keys, store.KeyTheme)
	}
	if c.Has(ChangedRules) {
		keys = append(keys, store.KeyAutomationRules)
	}
	return keys
}

// update runs fn on a copy of the state. If fn succeeds and changed
// anything, the touched keys are written in one batch and the copy
// replaces the live state. Sinks and the change hook run after the lock is
// released.
func (e *Engine) update(ctx context.Context, fn func(t *tx) error) error {
	e.mu.Lock()

	t := e.begin()
	if err := fn(t); err != nil {
		e.mu.Unlock()
		return err
	}

	if t.changed.Has(ChangedScore) {
		e.observeLevel(t)
	}

	if keys := t.changed.keys(); len(keys) > 0 {
		err := store.Save(ctx, e.store, store.State{
			Tasks:         t.tasks,
			Score:         t.score,
			Notifications: t.feed,
			Theme:         t.theme,
			Rules:         t.rules,
		}, keys...)
		if err != nil {
			e.mu.Unlock()
			return err
		}
	}

	e.state = t.state
	e.mu.Unlock()

	for _, n := range t.emitted {
		e.sink.Notify(n)
	}
	if t.changed != 0 && e.onChange != nil {
		e.onChange(t.changed)
	}
	return nil
}

// observeLevel emits a level-up achievement when the score crossed into a
// higher level than the one last observed.
func (e *Engine) observeLevel(t *tx) {
	next := scoring.LevelFor(t.score.Points).Level
	if scoring.LevelUp(t.level, next) {
		t.emit(e.notes.LevelUp(next, t.now))
	}
	t.level = next
}

// read runs fn under the read lock.
func (e *Engine) read(fn func(s *state)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(&e.state)
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}
