// Package automation decides when recurring task rules fire.
package automation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nhle/tasktrack/internal/model"
)

// ErrInvalidRule is returned for rules missing a name, task text or a valid
// time of day.
var ErrInvalidRule = errors.New("invalid automation rule")

// TimeLayout is the rule time-of-day format.
const TimeLayout = "15:04"

var frequencyDays = map[string]int{
	model.FrequencyDaily:   1,
	model.FrequencyWeekly:  7,
	model.FrequencyMonthly: 30,
}

// FrequencyDays returns how many days must pass between firings. Unknown
// frequencies behave as daily.
func FrequencyDays(freq string) int {
	if d, ok := frequencyDays[freq]; ok {
		return d
	}
	return 1
}

// Normalize trims and validates r, filling defaults for frequency and the
// deadline offset.
func Normalize(r model.AutomationRule) (model.AutomationRule, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.TaskText = strings.TrimSpace(r.TaskText)
	r.Time = strings.TrimSpace(r.Time)

	switch {
	case r.Name == "":
		return r, fmt.Errorf("%w: name is required", ErrInvalidRule)
	case r.TaskText == "":
		return r, fmt.Errorf("%w: task text is required", ErrInvalidRule)
	case r.Time == "":
		return r, fmt.Errorf("%w: time is required", ErrInvalidRule)
	}

	tod, err := time.Parse(TimeLayout, r.Time)
	if err != nil {
		return r, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidRule, r.Time)
	}
	r.Time = tod.Format(TimeLayout)

	if _, ok := frequencyDays[r.Frequency]; !ok {
		r.Frequency = model.FrequencyDaily
	}
	if r.DeadlineDays < 1 {
		r.DeadlineDays = 1
	}
	return r, nil
}

// Due reports whether r fires at now: it is active, the wall clock minute
// matches its time, and it has not fired within its frequency window.
func Due(r model.AutomationRule, now time.Time) bool {
	if !r.IsActive || now.Format(TimeLayout) != r.Time {
		return false
	}
	if r.LastRun == "" {
		return true
	}

	last, err := time.ParseInLocation("2006-01-02", r.LastRun, now.Location())
	if err != nil {
		return true
	}
	days := int(math.Round(model.StartOfDay(now).Sub(last).Hours() / 24))
	return days >= FrequencyDays(r.Frequency)
}

// DeadlineFor is the deadline of a task created by r at now.
func DeadlineFor(r model.AutomationRule, now time.Time) time.Time {
	return now.AddDate(0, 0, max(r.DeadlineDays, 1))
}

// Evaluate returns the rule set with LastRun stamped on every rule that is
// due at now, plus copies of the rules that fired.
func Evaluate(rules []model.AutomationRule, now time.Time) (updated, fired []model.AutomationRule) {
	updated = make([]model.AutomationRule, len(rules))
	copy(updated, rules)

	for i := range updated {
		if !Due(updated[i], now) {
			continue
		}
		updated[i].LastRun = model.DayString(now)
		fired = append(fired, updated[i])
	}
	return updated, fired
}
