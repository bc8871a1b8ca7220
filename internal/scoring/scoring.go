// Package scoring computes points, streaks and levels from task completions.
package scoring

import (
	"math"
	"time"

	"github.com/nhle/tasktrack/internal/model"
)

const (
	BasePoints        = 10
	UncompletePenalty = 10
	MaxEarlyBonus     = 20
	MaxStreakBonus    = 50

	// LevelBasePoints is the cost of leaving level 1. Each later level
	// costs 20% more than the one before.
	LevelBasePoints = 100
	levelGrowth     = 1.2
)

// PriorityBonus returns the completion bonus for p. Unknown priorities
// score as medium.
func PriorityBonus(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 15
	case model.PriorityLow:
		return 5
	default:
		return 10
	}
}

// EarlyBonus awards 2 points per whole day left before the deadline,
// capped at MaxEarlyBonus. No deadline or a passed deadline earns nothing.
func EarlyBonus(deadline *time.Time, now time.Time) int {
	if deadline == nil || deadline.IsZero() || !now.Before(*deadline) {
		return 0
	}
	days := int(deadline.Sub(now) / (24 * time.Hour))
	return min(days*2, MaxEarlyBonus)
}

// StreakBonus returns the bonus for continuing a streak to length streak.
func StreakBonus(streak int) int {
	return min(streak*2, MaxStreakBonus)
}

// IsMilestone reports whether reaching streak deserves an achievement.
func IsMilestone(streak int) bool {
	switch streak {
	case 3, 7, 14, 30, 60:
		return true
	}
	return streak > 0 && streak%100 == 0
}

// Award breaks down the points earned by one completion.
type Award struct {
	Base     int
	Priority int
	Early    int
	Streak   int

	// Total is the sum added to the score.
	Total int

	// Milestone is set when the streak reached a milestone length.
	Milestone bool
}

// Complete applies a false->true completion of t at now to s.
//
// Streaks are counted in calendar days of now's location: a second
// completion on the same day leaves the streak alone, a completion the day
// after the last one extends it, anything else restarts it at 1.
func Complete(s model.Score, t model.Task, now time.Time) (model.Score, Award) {
	a := Award{
		Base:     BasePoints,
		Priority: PriorityBonus(t.Priority),
		Early:    EarlyBonus(t.Deadline, now),
	}

	today := model.DayString(now)
	yesterday := model.DayString(now.AddDate(0, 0, -1))

	switch s.LastCompletionDate {
	case today:
	case yesterday:
		s.Streak++
		a.Streak = StreakBonus(s.Streak)
		a.Milestone = IsMilestone(s.Streak)
	default:
		s.Streak = 1
	}
	s.LastCompletionDate = today

	a.Total = a.Base + a.Priority + a.Early + a.Streak
	s.Points += a.Total

	return s, a
}

// Uncomplete applies a true->false transition: the penalty is taken from
// the points, floored at zero. The streak is untouched. It returns the
// applied (non-positive) change.
func Uncomplete(s model.Score) (model.Score, int) {
	before := s.Points
	s.Points = max(0, s.Points-UncompletePenalty)
	return s, s.Points - before
}

// Level is the progress derived from a point total.
type Level struct {
	Level int

	// Into is the points earned inside the current level, Needed the
	// points the current level costs in total.
	Into   int
	Needed int

	// Progress is Into/Needed as a percentage in [0, 100).
	Progress float64
}

// LevelFor derives the level from points.
func LevelFor(points int) Level {
	level := 1
	needed := LevelBasePoints
	remaining := max(points, 0)

	for remaining >= needed {
		remaining -= needed
		level++
		needed = int(math.Floor(LevelBasePoints * math.Pow(levelGrowth, float64(level-1))))
	}

	return Level{
		Level:    level,
		Into:     remaining,
		Needed:   needed,
		Progress: float64(remaining) / float64(needed) * 100,
	}
}

// LevelUp reports whether moving from the previously observed level prev
// to next deserves a level-up achievement. Leaving level 1 does not.
func LevelUp(prev, next int) bool {
	return next > prev && prev > 1
}
