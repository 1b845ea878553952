// Package datefmt renders and parses timestamps with strftime-style format
// strings such as "%d.%m.%Y %H:%M".
package datefmt

import (
	"fmt"
	"time"

	"github.com/ncruces/go-strftime"
)

// Default is the report timestamp format.
const Default = "%d.%m.%Y %H:%M"

// LogLayout is the Go layout of timestamps inside process logs.
const LogLayout = "2006-01-02 15:04"

// Format renders t with an strftime format. An empty format means Default.
func Format(format string, t time.Time) string {
	if format == "" {
		format = Default
	}
	return strftime.Format(format, t)
}

// Parse reads s with an strftime format. The result is in UTC.
func Parse(format, s string) (time.Time, error) {
	if format == "" {
		format = Default
	}
	t, err := strftime.Parse(format, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %q with %q: %w", s, format, err)
	}
	return t, nil
}

// Validate checks that format can be used both to render and to parse.
func Validate(format string) error {
	if format == "" {
		return fmt.Errorf("empty date format")
	}
	if _, err := strftime.Parse(format, strftime.Format(format, time.Date(2020, 6, 14, 13, 45, 0, 0, time.UTC))); err != nil {
		return fmt.Errorf("invalid date format %q: %w", format, err)
	}
	return nil
}

// ParseLogTime reads a timestamp as written in process logs.
func ParseLogTime(s string) (time.Time, error) {
	return time.Parse(LogLayout, s)
}
