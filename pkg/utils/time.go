package utils

import "time"

// Now returns the current time in UTC timezone
func Now() time.Time {
	return time.Now().UTC()
}

// DefaultEstimatedClose returns the placeholder expected-close date applied
// when an opportunity is created without one: 30 days from now.
func DefaultEstimatedClose() time.Time {
	return Now().AddDate(0, 0, 30)
}

// FormatISO8601 formats a time.Time to ISO8601 format in UTC
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
