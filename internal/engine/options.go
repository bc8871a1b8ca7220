package engine

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/notify"
)

// Change is a bitmask of the state areas a mutation touched.
type Change uint8

const (
	ChangedTasks Change = 1 << iota
	ChangedScore
	ChangedNotifications
	ChangedTheme
	ChangedRules
)

// Has reports whether c includes all of other.
func (c Change) Has(other Change) bool {
	return c&other == other
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSink forwards every emitted notification to sink.
func WithSink(sink notify.Sink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithLogger sets the logger used for load fallbacks.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDs replaces the id source for tasks, notifications and rules.
func WithIDs(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newTaskID = newID
			e.newID = newID
		}
	}
}

// WithChangeHook registers fn to run after every persisted mutation. It is
// called without the engine lock held, so it may call back into the engine.
func WithChangeHook(fn func(Change)) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// WithDefaultTheme sets the theme used until one is saved.
func WithDefaultTheme(t model.Theme) Option {
	return func(e *Engine) {
		e.defaultTheme = model.ParseTheme(string(t), e.defaultTheme)
	}
}

// newTaskID returns a time-ordered UUID so ids sort by creation.
func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
