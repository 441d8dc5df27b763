// Package utils holds small formatting and parsing helpers shared by the CLI.
package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the absolute form accepted by ParseSince.
const DateLayout = "2006-01-02"

// ageRegex matches relative ages like "7d", "24h", "60m", "30s".
var ageRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

// ParseAge parses a relative age such as "7d" into a duration.
func ParseAge(s string) (time.Duration, error) {
	m := ageRegex.FindStringSubmatch(s)
	if len(m) != 3 {
		return 0, fmt.Errorf("invalid age %q, expected a form like '7d', '24h' or '30m'", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid age %q: %w", s, err)
	}
	unit := map[string]time.Duration{
		"d": 24 * time.Hour,
		"h": time.Hour,
		"m": time.Minute,
		"s": time.Second,
	}[m[2]]
	return time.Duration(n) * unit, nil
}

// ParseSince resolves either a relative age ("7d") or a date ("2024-01-31")
// to the instant it designates, relative to now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}
	if d, err := ParseAge(s); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, now.Location()); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use '7d'/'24h' or 'YYYY-MM-DD'", s)
}

// FormatAge renders how long before now t was, e.g. "3h ago".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	const (
		day   = 24 * time.Hour
		week  = 7 * day
		month = 30 * day
		year  = 365 * day
	)
	since := now.Sub(t)
	switch {
	case since < 0:
		return "0s ago"
	case since < time.Minute:
		return fmt.Sprintf("%ds ago", int(since.Seconds()))
	case since < time.Hour:
		return fmt.Sprintf("%dm ago", int(since.Minutes()))
	case since < day:
		return fmt.Sprintf("%dh ago", int(since.Hours()))
	case since < week:
		return fmt.Sprintf("%dd ago", int(since/day))
	case since < month:
		return fmt.Sprintf("%dw ago", int(since/week))
	case since < year:
		return fmt.Sprintf("%dmo ago", int(since/month))
	}
	return fmt.Sprintf("%dy ago", int(since/year))
}
