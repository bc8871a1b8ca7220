package command

import (
	"regexp"
	"strconv"
	"time"
)

// datePhrase matches the relative date phrases commands understand.
var datePhrase = regexp.MustCompile(`today|tomorrow|next week|in \d+ days?`)

var inDays = regexp.MustCompile(`^in (\d+) days?$`)

// ResolveRelativeDate maps a relative date phrase to 23:59 local time on the
// target day. ok is false for phrases it does not know.
func ResolveRelativeDate(phrase string, now time.Time) (time.Time, bool) {
	var days int
	switch phrase {
	case "today":
		days = 0
	case "tomorrow":
		days = 1
	case "next week":
		days = 7
	default:
		m := inDays.FindStringSubmatch(phrase)
		if m == nil {
			return time.Time{}, false
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		days = n
	}

	y, mo, d := now.Local().Date()
	return time.Date(y, mo, d+days, 23, 59, 0, 0, time.Local), true
}
