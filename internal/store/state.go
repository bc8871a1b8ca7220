package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/nhle/tasktrack/internal/model"
)

// State is the full persisted application state.
type State struct {
	Tasks         []model.Task
	Score         model.Score
	Notifications []model.Notification

	// Theme is empty when no theme was ever saved.
	Theme model.Theme

	Rules []model.AutomationRule
}

// AllKeys lists every key State maps to.
var AllKeys = []string{
	KeyTasks,
	KeyScore,
	KeyStreak,
	KeyLastCompletionDate,
	KeyNotifications,
	KeyTheme,
	KeyAutomationRules,
}

// Load reads every key independently. A missing, unreadable or malformed
// key falls back to its default and is logged; Load itself never fails.
// List keys are decoded record by record, so one bad record is dropped
// without losing the rest.
func Load(ctx context.Context, s Store, logger *log.Logger) State {
	if logger == nil {
		logger = log.Default()
	}

	st := State{
		Tasks:         []model.Task{},
		Notifications: []model.Notification{},
		Rules:         []model.AutomationRule{},
	}

	read := func(key string) (string, bool) {
		v, ok, err := s.Get(ctx, key)
		if err != nil {
			logger.Printf("loading %s, using default: %v", key, err)
			return "", false
		}
		return v, ok
	}

	if v, ok := read(KeyTasks); ok {
		if tasks, ok := decodeList[model.Task](logger, KeyTasks, v); ok {
			st.Tasks = tasks
		}
	}

	if v, ok := read(KeyScore); ok {
		st.Score.Points = parseCounter(logger, KeyScore, v)
	}
	if v, ok := read(KeyStreak); ok {
		st.Score.Streak = parseCounter(logger, KeyStreak, v)
	}
	if v, ok := read(KeyLastCompletionDate); ok {
		st.Score.LastCompletionDate = v
	}

	if v, ok := read(KeyNotifications); ok {
		if ns, ok := decodeList[model.Notification](logger, KeyNotifications, v); ok {
			st.Notifications = ns
		}
	}

	if v, ok := read(KeyTheme); ok {
		st.Theme = model.ParseTheme(v, "")
	}

	if v, ok := read(KeyAutomationRules); ok {
		if rules, ok := decodeList[model.AutomationRule](logger, KeyAutomationRules, v); ok {
			st.Rules = rules
		}
	}

	return st
}

// decodeList decodes a JSON array one element at a time, logging and
// skipping elements that fail. It reports false when v is not an array.
func decodeList[T any](logger *log.Logger, key, v string) ([]T, bool) {
	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(v), &raws); err != nil {
		logger.Printf("parsing %s, using default: %v", key, err)
		return nil, false
	}
	if raws == nil {
		return nil, false
	}

	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			logger.Printf("parsing %s[%d], dropping record: %v", key, i, err)
			continue
		}
		out = append(out, item)
	}
	return out, true
}

// parseCounter parses a non-negative integer, falling back to 0.
func parseCounter(logger *log.Logger, key, v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Printf("parsing %s=%q, using 0", key, v)
		return 0
	}
	return n
}

// Encode encodes the given keys of st for SetMany.
func Encode(st State, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))

	for _, key := range keys {
		switch key {
		case KeyTasks:
			b, err := json.Marshal(nonNil(st.Tasks))
			if err != nil {
				return nil, fmt.Errorf("encoding %s: %w", key, err)
			}
			out[key] = string(b)
		case KeyScore:
			out[key] = strconv.Itoa(st.Score.Points)
		case KeyStreak:
			out[key] = strconv.Itoa(st.Score.Streak)
		case KeyLastCompletionDate:
			out[key] = st.Score.LastCompletionDate
		case KeyNotifications:
			b, err := json.Marshal(nonNil(st.Notifications))
			if err != nil {
				return nil, fmt.Errorf("encoding %s: %w", key, err)
			}
			out[key] = string(b)
		case KeyTheme:
			if st.Theme != "" {
				out[key] = string(st.Theme)
			}
		case KeyAutomationRules:
			b, err := json.Marshal(nonNil(st.Rules))
			if err != nil {
				return nil, fmt.Errorf("encoding %s: %w", key, err)
			}
			out[key] = string(b)
		default:
			return nil, fmt.Errorf("unknown key %q", key)
		}
	}

	return out, nil
}

// Save writes the given keys of st in one atomic batch.
func Save(ctx context.Context, s Store, st State, keys ...string) error {
	entries, err := Encode(st, keys...)
	if err != nil {
		return err
	}
	if err := s.SetMany(ctx, entries); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// nonNil makes empty slices encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
