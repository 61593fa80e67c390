package reminder

import "time"

// NextOccurrence returns the occurrence after t. Monthly recurrence keeps
// the day of month, clamped to the last day of shorter months. It reports
// false for RecurNone or an unknown value.
func NextOccurrence(t time.Time, rec Recurrence) (time.Time, bool) {
	switch rec {
	case RecurDaily:
		return t.AddDate(0, 0, 1), true
	case RecurWeekly:
		return t.AddDate(0, 0, 7), true
	case RecurMonthly:
		y, m, d := t.Date()
		if last := daysIn(y, m+1, t.Location()); d > last {
			d = last
		}
		return time.Date(y, m+1, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()), true
	}
	return time.Time{}, false
}

// nextAfter advances t by rec until it is strictly after now.
func nextAfter(t time.Time, rec Recurrence, now time.Time) (time.Time, bool) {
	next, ok := NextOccurrence(t, rec)
	if !ok {
		return time.Time{}, false
	}
	for !next.After(now) {
		next, _ = NextOccurrence(next, rec)
	}
	return next, true
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	// Day 0 of the following month is the last day of m.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
