package db

import "time"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dayWindow converts an (after, through] day range into a half-open
// [from, until) instant range.
func dayWindow(after, through time.Time) (from, until time.Time) {
	return Day(after).AddDate(0, 0, 1), Day(through).AddDate(0, 0, 1)
}

const dateLayout = "2006-01-02"
