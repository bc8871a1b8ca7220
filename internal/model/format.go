package model

import (
	"fmt"
	"time"
)

// FormatDuration renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "00:00:00"
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// TimeRemaining describes how long until deadline, or "Overdue".
func TimeRemaining(deadline, now time.Time) string {
	diff := deadline.Sub(now)
	if diff < 0 {
		return "Overdue"
	}

	days := int(diff / (24 * time.Hour))
	hours := int((diff % (24 * time.Hour)) / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh remaining", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm remaining", hours, minutes)
	default:
		return fmt.Sprintf("%dm remaining", minutes)
	}
}

// IsUrgent reports whether deadline falls within the next 24 hours.
func IsUrgent(deadline, now time.Time) bool {
	diff := deadline.Sub(now)
	return diff > 0 && diff <= 24*time.Hour
}

// DayString formats t as the calendar day used for streak bookkeeping.
func DayString(t time.Time) string {
	return t.Format("2006-01-02")
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
