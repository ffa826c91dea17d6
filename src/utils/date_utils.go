package utils

import "time"

const DefaultDateFormat = "2006-01-02"

// RollWeekend moves a Saturday to the following Monday (+2 days) and a Sunday
// to the following Monday (+1 day). Weekdays are returned unchanged.
func RollWeekend(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	default:
		return t
	}
}

// Today returns the current calendar date at midnight in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

// SameWeekdayBack returns the dates 7, 14, ... weeks*7 days before t.
func SameWeekdayBack(t time.Time, weeks int) []time.Time {
	out := make([]time.Time, 0, weeks)
	for i := 1; i <= weeks; i++ {
		out = append(out, t.AddDate(0, 0, -7*i))
	}
	return out
}

// PreviousBusinessDay steps back one day, skipping Saturday and Sunday.
func PreviousBusinessDay(t time.Time) time.Time {
	p := t.AddDate(0, 0, -1)
	for p.Weekday() == time.Saturday || p.Weekday() == time.Sunday {
		p = p.AddDate(0, 0, -1)
	}
	return p
}
