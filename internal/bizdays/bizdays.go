// Package bizdays counts business days (Monday through Friday). Only weekends
// are excluded; no holiday calendar is consulted.
package bizdays

import "time"

const day = 24 * time.Hour

// BusinessDaysBetween counts the weekdays strictly after start's date up to and
// including end's date. It returns 0 when end's date is not after start's date.
func BusinessDaysBetween(start, end time.Time) int {
	from := dateOf(start)
	to := dateOf(end)
	if !to.After(from) {
		return 0
	}

	total := int(to.Sub(from) / day)
	weeks, rest := total/7, total%7
	count := weeks * 5

	// walk the partial week day by day
	d := from.AddDate(0, 0, weeks*7)
	for i := 0; i < rest; i++ {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			count++
		}
	}
	return count
}

// IsBusinessDay reports whether t falls on a weekday.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// AddBusinessDays returns the date n business days after t's date, keeping t's
// clock time and location. n <= 0 returns t unchanged.
func AddBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if IsBusinessDay(t) {
			n--
		}
	}
	return t
}

// dateOf drops the clock part and pins the date to UTC so that day arithmetic
// is never skewed by DST shifts.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
