package annotations

import (
	"fmt"
	"time"
)

// Granularity is the calendar unit annotations are bucketed by
type Granularity string

const (
	Year   Granularity = "year"
	Month  Granularity = "month"
	Week   Granularity = "week"
	Day    Granularity = "day"
	Hour   Granularity = "hour"
	Minute Granularity = "minute"
)

// InferGranularity returns the coarsest unit in which first and second differ,
// or Minute when they agree down to the hour. The result does not depend on
// argument order.
func InferGranularity(first, second time.Time) Granularity {
	months := monthsBetween(first, second)
	d := first.Sub(second)
	switch {
	case months/12 != 0:
		return Year
	case months != 0:
		return Month
	case d/(7*24*time.Hour) != 0:
		return Week
	case d/(24*time.Hour) != 0:
		return Day
	case d/time.Hour != 0:
		return Hour
	default:
		return Minute
	}
}

// monthsBetween counts whole calendar months from b to a, truncated toward zero
func monthsBetween(a, b time.Time) int {
	if a.Before(b) {
		return -monthsBetween(b, a)
	}
	months := (a.Year()-b.Year())*12 + int(a.Month()) - int(b.Month())
	if months > 0 && monthClock(a) < monthClock(b) {
		months--
	}
	return months
}

// monthClock orders instants within a month: day, then time of day
func monthClock(t time.Time) int64 {
	h, m, s := t.Clock()
	return int64(t.Day())*86400e9 + int64(h)*3600e9 + int64(m)*60e9 + int64(s)*1e9 + int64(t.Nanosecond())
}

// Floor truncates t to the start of its unit. Weeks start on Sunday.
func Floor(t time.Time, g Granularity) time.Time {
	y, mo, d := t.Date()
	loc := t.Location()
	switch g {
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, mo, 1, 0, 0, 0, 0, loc)
	case Week:
		return time.Date(y, mo, d-int(t.Weekday()), 0, 0, 0, 0, loc)
	case Day:
		return time.Date(y, mo, d, 0, 0, 0, 0, loc)
	case Hour:
		return time.Date(y, mo, d, t.Hour(), 0, 0, 0, loc)
	default:
		return time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, loc)
	}
}

// ParseGranularity validates a granularity name
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case Year, Month, Week, Day, Hour, Minute:
		return g, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}
