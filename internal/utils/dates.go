package utils

import "time"

// DayUTC normalizes a timestamp to midnight UTC. Rate observations and query
// windows carry day precision only.
func DayUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
