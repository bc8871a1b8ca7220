package store

import (
	"context"
	"errors"
)

// Persisted keys. Each key holds an independent JSON or primitive value.
const (
	KeyTasks              = "tasks"
	KeyScore              = "userScore"
	KeyStreak             = "userStreak"
	KeyLastCompletionDate = "lastCompletionDate"
	KeyNotifications      = "notifications"
	KeyTheme              = "theme"
	KeyAutomationRules    = "automationRules"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store is a string key-value store. Writes are last-writer-wins.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// SetMany stores all entries atomically: either every key is written
	// or none is.
	SetMany(ctx context.Context, entries map[string]string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	Close() error
}
