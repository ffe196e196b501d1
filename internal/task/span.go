package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseSpan parses a reminder offset like "30s", "10m", "2h", or "5d".
// A bare integer is treated as seconds; an empty string or "0" means no
// offset.
func ParseSpan(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	unit := time.Second
	switch s[len(s)-1] {
	case 's', 'S':
		s = s[:len(s)-1]
	case 'm', 'M':
		unit = time.Minute
		s = s[:len(s)-1]
	case 'h', 'H':
		unit = time.Hour
		s = s[:len(s)-1]
	case 'd', 'D':
		unit = 24 * time.Hour
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid span %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("span must not be negative")
	}
	return time.Duration(n) * unit, nil
}

// FormatSpan renders a duration in the same shape ParseSpan accepts,
// picking the largest unit that divides it evenly.
func FormatSpan(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	day := 24 * time.Hour
	switch {
	case d%day == 0:
		return fmt.Sprintf("%dd", d/day)
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}
