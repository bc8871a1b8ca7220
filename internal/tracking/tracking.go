// Package tracking implements the per-task time-tracking state machine.
//
//	not_started -> in_progress <-> paused
//	in_progress | paused | not_started -> completed   (task completion)
//	completed -> not_started                          (task un-completion)
//
// Every transition returns a new value; inputs are never modified.
package tracking

import (
	"errors"
	"fmt"
	"time"

	"github.com/nhle/tasktrack/internal/model"
)

// ErrIllegalTransition is returned when a transition is attempted from a
// state that does not permit it.
var ErrIllegalTransition = errors.New("illegal tracking transition")

func state(tt model.TimeTracking) model.TimeTracking {
	if tt == nil {
		return model.NotStarted{}
	}
	return tt
}

func illegal(op string, tt model.TimeTracking) error {
	return fmt.Errorf("%s from %s: %w", op, tt.Status(), ErrIllegalTransition)
}

// session returns the length of the open session, never negative.
func session(start, now time.Time) time.Duration {
	if d := now.Sub(start); d > 0 {
		return d
	}
	return 0
}

// Start opens the first session. Only legal from NotStarted; any previously
// recorded total is discarded.
func Start(tt model.TimeTracking, now time.Time) (model.TimeTracking, error) {
	tt = state(tt)
	if _, ok := tt.(model.NotStarted); !ok {
		return tt, illegal("start", tt)
	}
	return model.InProgress{
		StartedAt:    now,
		SessionStart: now,
		Pauses:       []model.Pause{},
	}, nil
}

// Pause closes the open session into the total and records an open pause.
func Pause(tt model.TimeTracking, now time.Time) (model.TimeTracking, error) {
	tt = state(tt)
	s, ok := tt.(model.InProgress)
	if !ok {
		return tt, illegal("pause", tt)
	}
	return model.Paused{
		StartedAt: s.StartedAt,
		Total:     s.Total + session(s.SessionStart, now),
		Pauses:    append(model.ClonePauses(s.Pauses), model.Pause{Start: now}),
	}, nil
}

// Resume closes the most recent open pause and opens a new session. The
// total is unchanged.
func Resume(tt model.TimeTracking, now time.Time) (model.TimeTracking, error) {
	tt = state(tt)
	s, ok := tt.(model.Paused)
	if !ok {
		return tt, illegal("resume", tt)
	}

	pauses := model.ClonePauses(s.Pauses)
	for i := len(pauses) - 1; i >= 0; i-- {
		if pauses[i].End == nil {
			end := now
			pauses[i].End = &end
			break
		}
	}

	return model.InProgress{
		StartedAt:    s.StartedAt,
		SessionStart: now,
		Total:        s.Total,
		Pauses:       pauses,
	}, nil
}

// Complete moves any state to Completed. An open session is closed into the
// total without recording a pause. Completing an already completed value
// returns it unchanged.
func Complete(tt model.TimeTracking, now time.Time) model.TimeTracking {
	switch s := state(tt).(type) {
	case model.InProgress:
		started := s.StartedAt
		return model.Completed{
			StartedAt:   &started,
			Total:       s.Total + session(s.SessionStart, now),
			CompletedAt: now,
			Pauses:      model.ClonePauses(s.Pauses),
		}
	case model.Paused:
		started := s.StartedAt
		return model.Completed{
			StartedAt:   &started,
			Total:       s.Total,
			CompletedAt: now,
			Pauses:      model.ClonePauses(s.Pauses),
		}
	case model.NotStarted:
		return model.Completed{Total: s.Total, CompletedAt: now, Pauses: []model.Pause{}}
	default:
		return s
	}
}

// Uncomplete reverts Completed to NotStarted. The recorded total is kept
// for display until tracking starts again. Other states are returned as is.
func Uncomplete(tt model.TimeTracking) model.TimeTracking {
	s, ok := state(tt).(model.Completed)
	if !ok {
		return state(tt)
	}
	return model.NotStarted{Total: s.Total}
}

// Elapsed is the live tracked time: the closed total plus the open session
// for InProgress, the closed total otherwise.
func Elapsed(tt model.TimeTracking, now time.Time) time.Duration {
	tt = state(tt)
	if s, ok := tt.(model.InProgress); ok {
		return s.Total + session(s.SessionStart, now)
	}
	return tt.TotalTime()
}

// ElapsedAll computes Elapsed for every task keyed by id. active reports
// whether at least one task is in progress.
func ElapsedAll(tasks []model.Task, now time.Time) (elapsed map[string]time.Duration, active bool) {
	elapsed = make(map[string]time.Duration, len(tasks))
	for _, t := range tasks {
		tt := t.TrackingState()
		if tt.Status() == model.TrackingInProgress {
			active = true
		}
		elapsed[t.ID] = Elapsed(tt, now)
	}
	return elapsed, active
}
