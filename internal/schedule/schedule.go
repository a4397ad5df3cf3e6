// Package schedule holds the lease calendar rules: the length of a lease
// term and when the next monthly payment falls due.
package schedule

import "time"

// LeaseTermYears is the length of every lease the workflow creates.
const LeaseTermYears = 1

// LeaseEnd returns the end date of a lease starting at start.
func LeaseEnd(start time.Time) time.Time {
	return start.AddDate(LeaseTermYears, 0, 0)
}

// NextPaymentDate returns the first monthly anniversary of start that is
// strictly after now. Anniversaries are counted from start itself, so a
// lease starting on the 31st is due on the last day of shorter months and
// back on the 31st afterwards. A start in the future is its own first due
// date.
func NextPaymentDate(start, now time.Time) time.Time {
	if start.After(now) {
		return start
	}

	// Jump close to now, then step. The estimate can overshoot by a month
	// around day-of-month boundaries, so back off before stepping forward.
	months := (now.Year()-start.Year())*12 + int(now.Month()-start.Month()) - 1
	if months < 1 {
		months = 1
	}
	for {
		next := addMonthsClamped(start, months)
		if next.After(now) {
			if months > 1 && addMonthsClamped(start, months-1).After(now) {
				months--
				continue
			}
			return next
		}
		months++
	}
}

// addMonthsClamped adds n months, clamping the day to the target month's
// length instead of overflowing into the following month.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
