// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatHours formats a duration in hours as "1h 30m"; values under a minute
// render as "0m".
func FormatHours(h float64) string {
	if h <= 0 {
		return "0m"
	}
	mins := int64(h*60 + 0.5)
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

// FormatDecimalHours formats hours with two decimals, as in the text report.
func FormatDecimalHours(h float64) string {
	return fmt.Sprintf("%.2f", h)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatAgo renders t relative to now, e.g. "3 minutes ago".
func FormatAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
