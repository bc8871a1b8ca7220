package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Frequency constants for automation rules.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// AutomationRule creates a task at a fixed time of day on a recurring basis.
type AutomationRule struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Frequency string `json:"frequency"`

	// Time is the local "15:04" time at which the rule fires.
	Time string `json:"time"`

	TaskText string `json:"taskText"`

	// DeadlineDays is how many days after firing the created task is due.
	DeadlineDays int `json:"deadline"`

	IsActive bool `json:"isActive"`

	// LastRun is the "2006-01-02" day the rule last fired.
	LastRun string `json:"lastRun,omitempty"`
}

// UnmarshalJSON accepts records whose id or deadline were saved as a JSON
// number or a numeric string.
func (r *AutomationRule) UnmarshalJSON(data []byte) error {
	type plain AutomationRule
	var w struct {
		plain
		ID       json.RawMessage `json:"id"`
		Deadline json.RawMessage `json:"deadline"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = AutomationRule(w.plain)
	r.ID = rawScalar(w.ID)

	if d := rawScalar(w.Deadline); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			return fmt.Errorf("rule %s: deadline %q: %w", r.ID, d, err)
		}
		r.DeadlineDays = n
	}
	return nil
}

// rawScalar returns a JSON string or number as plain text.
func rawScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
