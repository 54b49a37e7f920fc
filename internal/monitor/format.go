package monitor

import (
	"fmt"
	"time"
)

// FormatRate formats a query rate as "X.X q/min"
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f q/min", rate)
}

// FormatPercentage formats a ratio (0-1) as percentage
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatUptime formats uptime in seconds to "Xh Ym" or "Xm"
func FormatUptime(seconds int64) string {
	return FormatDuration(seconds)
}

// FormatDuration formats duration in seconds to "Xh Ym" or "Xm"
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatAgo renders how long ago t was relative to now, "never" for nil.
func FormatAgo(t *time.Time, now time.Time) string {
	if t == nil {
		return "never"
	}
	seconds := int64(now.Sub(*t).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return "just now"
	}
	return FormatDuration(seconds) + " ago"
}
