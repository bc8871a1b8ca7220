package engine

import "errors"

// Sentinel errors. Callers recover from all three as no-ops; they are
// returned so the caller can log them.
var (
	// ErrValidation reports rejected input, such as empty task text.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound reports an id that does not resolve to a task, rule or
	// notification.
	ErrNotFound = errors.New("not found")

	// ErrIllegalState reports a time-tracking transition the task's
	// current state does not permit.
	ErrIllegalState = errors.New("illegal state")
)
