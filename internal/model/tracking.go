package model

import (
	"fmt"
	"time"
)

// TrackingStatus is the persisted name of a time-tracking state.
type TrackingStatus string

// Time-tracking status constants.
const (
	TrackingNotStarted TrackingStatus = "not_started"
	TrackingInProgress TrackingStatus = "in_progress"
	TrackingPaused     TrackingStatus = "paused"
	TrackingCompleted  TrackingStatus = "completed"
)

// Pause is a single pause interval. End is nil while the pause is open.
type Pause struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end"`
}

// TimeTracking is one of NotStarted, InProgress, Paused or Completed.
type TimeTracking interface {
	Status() TrackingStatus

	// TotalTime is the accumulated time of all closed sessions.
	TotalTime() time.Duration

	timeTracking()
}

// NotStarted is the initial state. Total survives an un-completion so the
// last recorded effort stays visible until tracking starts over.
type NotStarted struct {
	Total time.Duration
}

// InProgress is an open tracking session.
type InProgress struct {
	StartedAt    time.Time
	SessionStart time.Time
	Total        time.Duration
	Pauses       []Pause
}

// Paused holds accumulated time while no session is open.
type Paused struct {
	StartedAt time.Time
	Total     time.Duration
	Pauses    []Pause
}

// Completed is reached through task completion. StartedAt is nil when the
// task was completed without ever being tracked.
type Completed struct {
	StartedAt   *time.Time
	Total       time.Duration
	CompletedAt time.Time
	Pauses      []Pause
}

func (NotStarted) Status() TrackingStatus { return TrackingNotStarted }
func (InProgress) Status() TrackingStatus { return TrackingInProgress }
func (Paused) Status() TrackingStatus     { return TrackingPaused }
func (Completed) Status() TrackingStatus  { return TrackingCompleted }

func (s NotStarted) TotalTime() time.Duration { return s.Total }
func (s InProgress) TotalTime() time.Duration { return s.Total }
func (s Paused) TotalTime() time.Duration     { return s.Total }
func (s Completed) TotalTime() time.Duration  { return s.Total }

func (NotStarted) timeTracking() {}
func (InProgress) timeTracking() {}
func (Paused) timeTracking()     {}
func (Completed) timeTracking()  {}

// ClonePauses returns a copy of pauses so transitions never share backing
// arrays with the previous state.
func ClonePauses(pauses []Pause) []Pause {
	if len(pauses) == 0 {
		return []Pause{}
	}
	out := make([]Pause, len(pauses))
	for i, p := range pauses {
		out[i] = Pause{Start: p.Start}
		if p.End != nil {
			end := *p.End
			out[i].End = &end
		}
	}
	return out
}

// trackingWire is the persisted shape of a TimeTracking value.
// totalTime is stored in milliseconds.
type trackingWire struct {
	Status              TrackingStatus `json:"status"`
	StartTime           *time.Time     `json:"startTime"`
	CurrentSessionStart *time.Time     `json:"currentSessionStart,omitempty"`
	TotalTime           int64          `json:"totalTime"`
	CompletionTime      *time.Time     `json:"completionTime"`
	Pauses              []Pause        `json:"pauses"`
}

func encodeTracking(tt TimeTracking) trackingWire {
	w := trackingWire{Status: TrackingNotStarted, Pauses: []Pause{}}
	if tt == nil {
		return w
	}
	w.Status = tt.Status()
	w.TotalTime = tt.TotalTime().Milliseconds()

	switch s := tt.(type) {
	case InProgress:
		started, session := s.StartedAt, s.SessionStart
		w.StartTime = &started
		w.CurrentSessionStart = &session
		w.Pauses = ClonePauses(s.Pauses)
	case Paused:
		started := s.StartedAt
		w.StartTime = &started
		w.Pauses = ClonePauses(s.Pauses)
	case Completed:
		if s.StartedAt != nil {
			started := *s.StartedAt
			w.StartTime = &started
		}
		done := s.CompletedAt
		w.CompletionTime = &done
		w.Pauses = ClonePauses(s.Pauses)
	}
	return w
}

func decodeTracking(w trackingWire) (TimeTracking, error) {
	total := time.Duration(w.TotalTime) * time.Millisecond

	switch w.Status {
	case "", TrackingNotStarted:
		return NotStarted{Total: total}, nil

	case TrackingInProgress:
		if w.CurrentSessionStart == nil {
			return nil, fmt.Errorf("in_progress tracking without currentSessionStart")
		}
		started := *w.CurrentSessionStart
		if w.StartTime != nil {
			started = *w.StartTime
		}
		return InProgress{
			StartedAt:    started,
			SessionStart: *w.CurrentSessionStart,
			Total:        total,
			Pauses:       ClonePauses(w.Pauses),
		}, nil

	case TrackingPaused:
		var started time.Time
		if w.StartTime != nil {
			started = *w.StartTime
		}
		return Paused{StartedAt: started, Total: total, Pauses: ClonePauses(w.Pauses)}, nil

	case TrackingCompleted:
		var done time.Time
		if w.CompletionTime != nil {
			done = *w.CompletionTime
		}
		var started *time.Time
		if w.StartTime != nil {
			s := *w.StartTime
			started = &s
		}
		return Completed{
			StartedAt:   started,
			Total:       total,
			CompletedAt: done,
			Pauses:      ClonePauses(w.Pauses),
		}, nil

	default:
		return nil, fmt.Errorf("unknown tracking status %q", w.Status)
	}
}
