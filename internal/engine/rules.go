package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/nhle/tasktrack/internal/automation"
	"github.com/nhle/tasktrack/internal/model"
)

// AddRule validates r, assigns it an id and saves it.
func (e *Engine) AddRule(ctx context.Context, r model.AutomationRule) (model.AutomationRule, error) {
	rule, err := automation.Normalize(r)
	if err != nil {
		return model.AutomationRule{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	rule.ID = e.newID()
	rule.LastRun = ""

	err = e.update(ctx, func(t *tx) error {
		t.rules = append(t.rules, rule)
		t.changed |= ChangedRules
		return nil
	})
	if err != nil {
		return model.AutomationRule{}, err
	}
	return rule, nil
}

// ToggleRule flips whether rule id is active.
func (e *Engine) ToggleRule(ctx context.Context, id string) (model.AutomationRule, error) {
	var out model.AutomationRule
	err := e.update(ctx, func(t *tx) error {
		i := slices.IndexFunc(t.rules, func(r model.AutomationRule) bool { return r.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: rule %s", ErrNotFound, id)
		}
		t.rules[i].IsActive = !t.rules[i].IsActive
		t.changed |= ChangedRules
		out = t.rules[i]
		return nil
	})
	return out, err
}

// DeleteRule removes rule id.
func (e *Engine) DeleteRule(ctx context.Context, id string) error {
	return e.update(ctx, func(t *tx) error {
		i := slices.IndexFunc(t.rules, func(r model.AutomationRule) bool { return r.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: rule %s", ErrNotFound, id)
		}
		t.rules = slices.Delete(t.rules, i, i+1)
		t.changed |= ChangedRules
		return nil
	})
}

// Rules returns a copy of every automation rule.
func (e *Engine) Rules() []model.AutomationRule {
	var out []model.AutomationRule
	e.read(func(s *state) {
		out = slices.Clone(s.rules)
	})
	if out == nil {
		out = []model.AutomationRule{}
	}
	return out
}

// RunAutomation creates a task for every rule due now and returns the
// created tasks. Automated tasks are medium priority and flagged.
func (e *Engine) RunAutomation(ctx context.Context) ([]model.Task, error) {
	var created []model.Task
	err := e.update(ctx, func(t *tx) error {
		rules, fired := automation.Evaluate(t.rules, t.now)
		if len(fired) == 0 {
			return nil
		}

		for _, r := range fired {
			deadline := automation.DeadlineFor(r, t.now)
			task, err := e.newTask(NewTask{Text: r.TaskText, Deadline: &deadline, Priority: model.PriorityMedium}, t.now)
			if err != nil {
				return fmt.Errorf("rule %s: %w", r.ID, err)
			}
			task.Automated = true
			t.tasks = append(t.tasks, task)
			created = append(created, task.Clone())
		}

		t.rules = rules
		t.changed |= ChangedTasks | ChangedRules
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Theme returns the saved theme, or the default when none was saved.
func (e *Engine) Theme() model.Theme {
	var th model.Theme
	e.read(func(s *state) { th = s.theme })
	if th == "" {
		return e.defaultTheme
	}
	return th
}

// SetTheme saves th.
func (e *Engine) SetTheme(ctx context.Context, th model.Theme) error {
	if th != model.ThemeLight && th != model.ThemeDark {
		return fmt.Errorf("%w: unknown theme %q", ErrValidation, th)
	}
	return e.update(ctx, func(t *tx) error {
		if t.theme == th {
			return nil
		}
		t.theme = th
		t.changed |= ChangedTheme
		return nil
	})
}

// ToggleTheme switches between light and dark and returns the new theme.
func (e *Engine) ToggleTheme(ctx context.Context) (model.Theme, error) {
	var next model.Theme
	err := e.update(ctx, func(t *tx) error {
		cur := t.theme
		if cur == "" {
			cur = e.defaultTheme
		}
		next = cur.Toggle()
		t.theme = next
		t.changed |= ChangedTheme
		return nil
	})
	if err != nil {
		return e.Theme(), err
	}
	return next, nil
}
