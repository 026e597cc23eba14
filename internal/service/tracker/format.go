package tracker

import (
	"fmt"
	"strings"
)

const (
	secondsPerMinute = 60
	minutesPerHour   = 60
	hoursPerDay      = 24
)

// FormatDuration renders elapsed seconds as "Offline Duration: [D days, ][H hrs, ]M min and S sec".
// Days and hours appear only when non-zero.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	secs := seconds % secondsPerMinute
	mins := seconds / secondsPerMinute
	hours := mins / minutesPerHour
	mins %= minutesPerHour
	days := hours / hoursPerDay
	hours %= hoursPerDay

	var b strings.Builder

	b.WriteString("Offline Duration: ")

	if days > 0 {
		fmt.Fprintf(&b, "%d days, ", days)
	}

	if hours > 0 {
		fmt.Fprintf(&b, "%d hrs, ", hours)
	}

	fmt.Fprintf(&b, "%d min and %d sec", mins, secs)

	return b.String()
}

// FormatUnknownDuration is rendered when no open episode existed for a recovered room.
func FormatUnknownDuration() string {
	return "Offline Duration: unknown"
}

// FormatElapsed renders a possibly missing duration.
func FormatElapsed(seconds *int64) string {
	if seconds == nil {
		return FormatUnknownDuration()
	}

	return FormatDuration(*seconds)
}
