package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/notify"
	"github.com/nhle/tasktrack/internal/scoring"
	"github.com/nhle/tasktrack/internal/tracking"
)

// NewTask is the user-supplied part of a task.
type NewTask struct {
	Text     string
	Deadline *time.Time

	// Priority defaults to medium when empty or unknown.
	Priority model.Priority
}

// TaskEdit lists the fields to change. Nil fields are left alone.
type TaskEdit struct {
	Text     *string
	Priority *model.Priority
	Deadline *time.Time

	// ClearDeadline removes the deadline; it wins over Deadline.
	ClearDeadline bool
}

func (e *Engine) newTask(in NewTask, now time.Time) (model.Task, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return model.Task{}, fmt.Errorf("%w: task text is empty", ErrValidation)
	}

	var deadline *time.Time
	if in.Deadline != nil && !in.Deadline.IsZero() {
		d := *in.Deadline
		deadline = &d
	}

	return model.Task{
		ID:           e.newTaskID(),
		Text:         text,
		Deadline:     deadline,
		Priority:     model.ParsePriority(string(in.Priority)),
		CreatedAt:    now,
		LastModified: now,
		Tracking:     model.NotStarted{},
	}, nil
}

// AddTask creates a task and appends it to the list.
func (e *Engine) AddTask(ctx context.Context, in NewTask) (model.Task, error) {
	var created model.Task
	err := e.update(ctx, func(t *tx) error {
		task, err := e.newTask(in, t.now)
		if err != nil {
			return err
		}
		t.tasks = append(t.tasks, task)
		t.changed |= ChangedTasks
		created = task
		return nil
	})
	return created.Clone(), err
}

// EditTask changes text, priority or deadline. Completion, tracking and
// score are never touched. An edit that changes nothing is a no-op.
func (e *Engine) EditTask(ctx context.Context, id string, edit TaskEdit) (model.Task, error) {
	var edited model.Task
	err := e.update(ctx, func(t *tx) error {
		i := t.index(id)
		if i < 0 {
			return fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		task := &t.tasks[i]
		dirty := false

		if edit.Text != nil {
			text := strings.TrimSpace(*edit.Text)
			if text == "" {
				return fmt.Errorf("%w: task text is empty", ErrValidation)
			}
			if text != task.Text {
				task.Text, dirty = text, true
			}
		}
		if edit.Priority != nil {
			if p := model.ParsePriority(string(*edit.Priority)); p != task.Priority {
				task.Priority, dirty = p, true
			}
		}
		switch {
		case edit.ClearDeadline:
			if task.Deadline != nil {
				task.Deadline, dirty = nil, true
			}
		case edit.Deadline != nil && !edit.Deadline.IsZero():
			if task.Deadline == nil || !task.Deadline.Equal(*edit.Deadline) {
				d := *edit.Deadline
				task.Deadline, dirty = &d, true
			}
		}

		if !dirty {
			edited = task.Clone()
			return nil
		}
		task.LastModified = t.now

		t.changed |= ChangedTasks
		t.emit(e.notes.Updated(*task, t.now))
		edited = task.Clone()
		return nil
	})
	return edited, err
}

// SetCompleted moves task id to the given completion state. Setting the
// state it is already in is a no-op.
//
// Completing closes any open tracking session, awards points, updates the
// streak and emits the completion notification plus any streak or level
// achievement. Un-completing resets tracking to not started and takes the
// un-completion penalty from the score.
func (e *Engine) SetCompleted(ctx context.Context, id string, done bool) (model.Task, error) {
	return e.setCompleted(ctx, id, func(bool) bool { return done })
}

// ToggleComplete flips the completion state of task id.
func (e *Engine) ToggleComplete(ctx context.Context, id string) (model.Task, error) {
	return e.setCompleted(ctx, id, func(cur bool) bool { return !cur })
}

func (e *Engine) setCompleted(ctx context.Context, id string, want func(cur bool) bool) (model.Task, error) {
	var out model.Task
	err := e.update(ctx, func(t *tx) error {
		i := t.index(id)
		if i < 0 {
			return fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		task := &t.tasks[i]
		out = task.Clone()

		done := want(task.Completed)
		if task.Completed == done {
			return nil
		}

		task.Completed = done
		task.LastModified = t.now

		if done {
			task.Tracking = tracking.Complete(task.Tracking, t.now)

			score, award := scoring.Complete(t.score, *task, t.now)
			t.score = score
			t.lastScoreChange = award.Total

			t.emit(e.notes.Completed(*task, t.now))
			if award.Milestone {
				t.emit(e.notes.Streak(score.Streak, t.now))
			}
		} else {
			task.Tracking = tracking.Uncomplete(task.Tracking)

			score, delta := scoring.Uncomplete(t.score)
			t.score = score
			t.lastScoreChange = delta
		}

		t.scoreFlash = true
		t.changed |= ChangedTasks | ChangedScore
		out = task.Clone()
		return nil
	})
	return out, err
}

// DeleteTask removes task id and emits a deletion notification.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	return e.update(ctx, func(t *tx) error {
		i := t.index(id)
		if i < 0 {
			return fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		removed := t.tasks[i]
		t.tasks = append(t.tasks[:i], t.tasks[i+1:]...)
		t.changed |= ChangedTasks
		t.emit(e.notes.Deleted(removed, t.now))
		return nil
	})
}

// ClearCompleted removes every completed task and returns how many were
// removed. Nothing happens when no task is completed.
func (e *Engine) ClearCompleted(ctx context.Context) (int, error) {
	var removed int
	err := e.update(ctx, func(t *tx) error {
		kept := t.tasks[:0]
		for _, task := range t.tasks {
			if task.Completed {
				removed++
				continue
			}
			kept = append(kept, task)
		}
		if removed == 0 {
			return nil
		}
		t.tasks = kept
		t.changed |= ChangedTasks
		t.emit(e.notes.Cleared(removed, t.now))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// StartTracking opens the first tracking session of task id.
func (e *Engine) StartTracking(ctx context.Context, id string) (model.Task, error) {
	return e.transition(ctx, id, tracking.Start)
}

// PauseTracking closes the open session of task id.
func (e *Engine) PauseTracking(ctx context.Context, id string) (model.Task, error) {
	return e.transition(ctx, id, tracking.Pause)
}

// ResumeTracking opens a new session on paused task id.
func (e *Engine) ResumeTracking(ctx context.Context, id string) (model.Task, error) {
	return e.transition(ctx, id, tracking.Resume)
}

type transitionFunc func(model.TimeTracking, time.Time) (model.TimeTracking, error)

func (e *Engine) transition(ctx context.Context, id string, fn transitionFunc) (model.Task, error) {
	var out model.Task
	err := e.update(ctx, func(t *tx) error {
		i := t.index(id)
		if i < 0 {
			return fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		task := &t.tasks[i]

		next, err := fn(task.Tracking, t.now)
		if err != nil {
			return fmt.Errorf("%w: task %s: %w", ErrIllegalState, id, err)
		}
		task.Tracking = next
		task.LastModified = t.now
		t.changed |= ChangedTasks
		out = task.Clone()
		return nil
	})
	return out, err
}

// ElapsedTimes returns the live tracked time of every task and whether any
// task is in progress.
func (e *Engine) ElapsedTimes() (map[string]time.Duration, bool) {
	now := e.now()
	var (
		elapsed map[string]time.Duration
		active  bool
	)
	e.read(func(s *state) {
		elapsed, active = tracking.ElapsedAll(s.tasks, now)
	})
	return elapsed, active
}

// Task returns a copy of task id.
func (e *Engine) Task(id string) (model.Task, bool) {
	var (
		out   model.Task
		found bool
	)
	e.read(func(s *state) {
		for _, t := range s.tasks {
			if t.ID == id {
				out, found = t.Clone(), true
				return
			}
		}
	})
	return out, found
}

// Tasks returns a copy of every task in insertion order.
func (e *Engine) Tasks() []model.Task {
	var out []model.Task
	e.read(func(s *state) {
		out = model.CloneTasks(s.tasks)
	})
	return out
}

// FindTask returns the first task, in insertion order, whose text contains
// query case-insensitively.
func (e *Engine) FindTask(query string) (model.Task, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return model.Task{}, false
	}

	var (
		out   model.Task
		found bool
	)
	e.read(func(s *state) {
		for _, t := range s.tasks {
			if strings.Contains(strings.ToLower(t.Text), q) {
				out, found = t.Clone(), true
				return
			}
		}
	})
	return out, found
}

// DeadlinesReached returns the incomplete tasks whose deadline was reached
// within the last minute.
func (e *Engine) DeadlinesReached() []model.Task {
	now := e.now()
	var out []model.Task
	e.read(func(s *state) {
		out = notify.DeadlinesReached(s.tasks, now)
	})
	return out
}

// ScanDeadlines emits due-today and overdue notifications for tasks not yet
// flagged, and returns them.
func (e *Engine) ScanDeadlines(ctx context.Context) ([]model.Notification, error) {
	var emitted []model.Notification
	err := e.update(ctx, func(t *tx) error {
		tasks, ns, changed := e.notes.ScanDeadlines(t.tasks, t.now)
		if !changed {
			return nil
		}
		t.tasks = tasks
		t.changed |= ChangedTasks
		for _, n := range ns {
			t.emit(n)
		}
		emitted = ns
		return nil
	})
	if err != nil {
		return nil, err
	}
	return emitted, nil
}
