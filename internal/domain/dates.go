package domain

import (
	"math"
	"time"
)

// Clock supplies the current instant. Business logic never calls time.Now
// directly so tests can pin the date.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// DayOf truncates t to midnight of its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween counts calendar days from a to b in loc. Positive when b is
// later than a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	da, db := DayOf(a, loc), DayOf(b, loc)
	// Round to absorb DST shifts.
	return int(math.Round(db.Sub(da).Hours() / 24))
}

// WeekRangeAt returns Monday 00:00 and the following Monday 00:00 for the
// calendar week containing now.
func WeekRangeAt(now time.Time) (time.Time, time.Time) {
	weekday := now.Weekday()
	if weekday == time.Sunday {
		weekday = 7
	}
	daysFromMonday := int(weekday) - int(time.Monday)
	monday := time.Date(now.Year(), now.Month(), now.Day()-daysFromMonday, 0, 0, 0, 0, now.Location())
	return monday, monday.AddDate(0, 0, 7)
}

// MonthRangeAt returns the first instant of now's month and of the next one.
func MonthRangeAt(now time.Time) (time.Time, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first, first.AddDate(0, 1, 0)
}
