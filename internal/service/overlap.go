package service

import "time"

const day = 24 * time.Hour

// Overlaps reports whether the half-open ranges [s1,e1) and [s2,e2)
// intersect.  Ranges that merely touch do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}

// Nights counts the nights between start and end, rounding any partial day
// up.  A non-positive range has zero nights.
func Nights(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	return n
}

// localDate truncates t to midnight of its calendar date in loc.
func localDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
